package enrollment

import (
	"context"
	"errors"
	"sync"
	"time"

	"learnhub/apperr"
	"learnhub/logger"
	"learnhub/models"
	"learnhub/models/course"
	"learnhub/notify"
	"learnhub/services/authz"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const notifyTimeout = 10 * time.Second

// Service creates enrollments and records lesson progress. Progress
// percentages are computed from rows on every read and never stored.
type Service struct {
	db       *gorm.DB
	authz    *authz.Resolver
	notifier notify.Notifier
	log      *logger.Logger
	pending  sync.WaitGroup
}

func NewService(db *gorm.DB, resolver *authz.Resolver, notifier notify.Notifier, log *logger.Logger) *Service {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &Service{db: db, authz: resolver, notifier: notifier, log: log.With("service", "EnrollmentService")}
}

// Enroll creates the single enrollment of a student in a course. The course
// must exist, be published and belong to the student's assigned instructor.
// A second enrollment for the same pair is rejected by the unique index.
func (s *Service) Enroll(ctx context.Context, studentID, courseID uint) (*course.Enrollment, error) {
	var (
		student models.Student
		c       course.Course
		e       course.Enrollment
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Take(&student, studentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Student not found!")
			}
			return apperr.Internal("Failed to load student!", err)
		}

		// Hold the course until the enrollment is written so a concurrent delete waits.
		if err := tx.Clauses(clause.Locking{Strength: clause.LockingStrengthShare}).Take(&c, courseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Course not found!")
			}
			return apperr.Internal("Failed to load course!", err)
		}

		if student.InstructorID == nil || *student.InstructorID != c.InstructorID {
			return apperr.Forbidden("You can only enroll in courses from your instructor!")
		}
		if !c.IsPublished {
			return apperr.Invalid("Course is not published!")
		}

		e = course.Enrollment{StudentID: studentID, CourseID: courseID, EnrolledAt: time.Now()}
		if err := tx.Create(&e).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("You are already enrolled in this course!")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to enroll!")
	}

	s.log.Info("Student enrolled", "student_id", studentID, "course_id", courseID, "enrollment_id", e.ID)
	s.notifyEnrolled(ctx, notify.EnrollmentEvent{
		EnrollmentID: e.ID,
		CourseID:     c.ID,
		CourseTitle:  c.Title,
		StudentID:    student.ID,
		StudentName:  student.Name,
		StudentEmail: student.Email,
		InstructorID: c.InstructorID,
		EnrolledAt:   e.EnrolledAt,
	})
	return &e, nil
}

// notifyEnrolled delivers the event in the background; failures are only logged.
func (s *Service) notifyEnrolled(ctx context.Context, ev notify.EnrollmentEvent) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()
		if err := s.notifier.EnrollmentCreated(nctx, ev); err != nil {
			s.log.Warn("Enrollment notification failed", "enrollment_id", ev.EnrollmentID, "error", err)
		}
	}()
}

// Wait blocks until in-flight notifications have finished.
func (s *Service) Wait() {
	s.pending.Wait()
}
