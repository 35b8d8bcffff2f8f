package enrollment

import (
	"context"
	"errors"
	"math"
	"time"

	"learnhub/apperr"
	"learnhub/models/course"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Progress is derived from lesson and progress rows at read time.
type Progress struct {
	EnrollmentID     uint  `json:"enrollment_id"`
	CourseID         uint  `json:"course_id"`
	TotalLessons     int64 `json:"total_lessons"`
	CompletedLessons int64 `json:"completed_lessons"`
	Percentage       int   `json:"percentage"`
}

type ProgressDetail struct {
	Progress
	Lessons []course.LessonProgress `json:"lessons"`
}

// Percentage is round(100 * completed / total), and 0 for an empty course.
func Percentage(completed, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}

// RecordProgress upserts the (enrollment, lesson) progress row. Completing
// stamps completed_at once; un-completing clears it. Watch time always
// reflects the latest call.
func (s *Service) RecordProgress(ctx context.Context, studentID, lessonID uint, completed bool, watchTime int) (*course.LessonProgress, error) {
	if watchTime < 0 {
		return nil, apperr.Validation(map[string]string{"watch_time": "watch_time must be at least 0!"})
	}

	var row course.LessonProgress
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		resolver := s.authz.With(tx)
		chain, err := resolver.LessonChain(ctx, lessonID)
		if apperr.Is(err, apperr.KindNotFound) {
			return apperr.NotFound("Lesson not found!")
		}
		if err != nil {
			return err
		}
		enrollmentID, err := resolver.StudentEnrollment(ctx, studentID, chain.CourseID)
		if err != nil {
			return err
		}

		now := time.Now()
		row = course.LessonProgress{EnrollmentID: enrollmentID, LessonID: lessonID, Completed: completed, WatchTime: watchTime}
		var completedAt interface{}
		if completed {
			row.CompletedAt = &now
			completedAt = gorm.Expr("COALESCE(lesson_progress.completed_at, ?)", now)
		}

		err = tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "enrollment_id"}, {Name: "lesson_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"completed":    completed,
				"watch_time":   watchTime,
				"completed_at": completedAt,
				"updated_at":   now,
			}),
		}).Create(&row).Error
		if err != nil {
			return err
		}
		var saved course.LessonProgress
		if err := tx.Where("enrollment_id = ? AND lesson_id = ?", enrollmentID, lessonID).Take(&saved).Error; err != nil {
			return err
		}
		row = saved
		return nil
	})
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to update progress!")
	}
	return &row, nil
}

// ComputeProgress derives the progress of one enrollment.
func (s *Service) ComputeProgress(ctx context.Context, enrollmentID uint) (Progress, error) {
	var e course.Enrollment
	if err := s.db.WithContext(ctx).Take(&e, enrollmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Progress{}, apperr.NotFound("Enrollment not found!")
		}
		return Progress{}, apperr.Internal("Failed to load enrollment!", err)
	}
	out, err := progressFor(s.db.WithContext(ctx), []course.Enrollment{e})
	if err != nil {
		return Progress{}, apperr.Internal("Failed to compute progress!", err)
	}
	return out[0], nil
}

// StudentProgress returns the student's own progress with per-lesson rows.
func (s *Service) StudentProgress(ctx context.Context, studentID, enrollmentID uint) (*ProgressDetail, error) {
	e, err := s.authz.StudentOwnsEnrollment(ctx, studentID, enrollmentID)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	out, err := progressFor(db, []course.Enrollment{*e})
	if err != nil {
		return nil, apperr.Internal("Failed to compute progress!", err)
	}

	var lessons []course.LessonProgress
	err = db.Joins("JOIN lessons ON lessons.id = lesson_progress.lesson_id").
		Joins("JOIN modules ON modules.id = lessons.module_id").
		Where("lesson_progress.enrollment_id = ? AND modules.course_id = ?", e.ID, e.CourseID).
		Order("modules.order_index asc, lessons.order_index asc").
		Find(&lessons).Error
	if err != nil {
		return nil, apperr.Internal("Failed to fetch progress!", err)
	}
	return &ProgressDetail{Progress: out[0], Lessons: lessons}, nil
}

type countRow struct {
	ID uint
	N  int64
}

func countsBy(q *gorm.DB) (map[uint]int64, error) {
	var rows []countRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]int64, len(rows))
	for _, r := range rows {
		out[r.ID] = r.N
	}
	return out, nil
}

// progressFor computes progress for a batch of enrollments with two grouped
// queries. Only completed rows whose lesson still belongs to the enrollment's
// course are counted.
func progressFor(db *gorm.DB, enrollments []course.Enrollment) ([]Progress, error) {
	if len(enrollments) == 0 {
		return []Progress{}, nil
	}
	courseIDs := make([]uint, 0, len(enrollments))
	enrollmentIDs := make([]uint, 0, len(enrollments))
	for _, e := range enrollments {
		courseIDs = append(courseIDs, e.CourseID)
		enrollmentIDs = append(enrollmentIDs, e.ID)
	}

	totals, err := countsBy(db.Table("lessons").
		Select("modules.course_id AS id, COUNT(lessons.id) AS n").
		Joins("JOIN modules ON modules.id = lessons.module_id").
		Where("modules.course_id IN ?", courseIDs).
		Group("modules.course_id"))
	if err != nil {
		return nil, err
	}
	completed, err := countsBy(db.Table("lesson_progress").
		Select("lesson_progress.enrollment_id AS id, COUNT(lesson_progress.id) AS n").
		Joins("JOIN enrollments ON enrollments.id = lesson_progress.enrollment_id").
		Joins("JOIN lessons ON lessons.id = lesson_progress.lesson_id").
		Joins("JOIN modules ON modules.id = lessons.module_id AND modules.course_id = enrollments.course_id").
		Where("lesson_progress.enrollment_id IN ? AND lesson_progress.completed = ?", enrollmentIDs, true).
		Group("lesson_progress.enrollment_id"))
	if err != nil {
		return nil, err
	}

	out := make([]Progress, len(enrollments))
	for i, e := range enrollments {
		total, done := totals[e.CourseID], completed[e.ID]
		out[i] = Progress{
			EnrollmentID:     e.ID,
			CourseID:         e.CourseID,
			TotalLessons:     total,
			CompletedLessons: done,
			Percentage:       Percentage(done, total),
		}
	}
	return out, nil
}
