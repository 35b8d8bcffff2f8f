package authz

import (
	"context"
	"errors"

	"learnhub/apperr"
	"learnhub/models"
	"learnhub/models/community"
	"learnhub/models/course"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Chain is a resolved ownership chain. Ids below the walk's starting point are zero.
type Chain struct {
	VideoID      uint
	LessonID     uint
	ModuleID     uint
	CourseID     uint
	InstructorID uint
	Published    bool
}

// Resolver is the single place ownership and enrollment chains are walked.
// Ownership failures are reported as apperr.NotOwned regardless of whether the
// target exists.
type Resolver struct {
	db   *gorm.DB
	lock string
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// With binds the resolver to a transaction so checks see the same snapshot as
// the write. Every row a check reads is held FOR SHARE until the transaction
// ends, so a parent cannot be deleted under an insert.
func (r *Resolver) With(tx *gorm.DB) *Resolver {
	return &Resolver{db: tx, lock: clause.LockingStrengthShare}
}

// ForUpdate binds the resolver to a transaction that deletes or restructures
// the checked rows. Rows are held FOR UPDATE so concurrent inserts under them wait.
func (r *Resolver) ForUpdate(tx *gorm.DB) *Resolver {
	return &Resolver{db: tx, lock: clause.LockingStrengthUpdate}
}

func (r *Resolver) query(ctx context.Context) *gorm.DB {
	q := r.query(ctx)
	if r.lock != "" {
		q = q.Clauses(clause.Locking{Strength: r.lock})
	}
	return q
}

const chainSelect = "courses.id AS course_id, courses.instructor_id AS instructor_id, courses.is_published AS published"

func (r *Resolver) walk(q *gorm.DB) (Chain, error) {
	var c Chain
	if err := q.Limit(1).Scan(&c).Error; err != nil {
		return Chain{}, apperr.Internal("Failed to resolve resource!", err)
	}
	if c.CourseID == 0 {
		return Chain{}, apperr.NotOwned()
	}
	return c, nil
}

func (r *Resolver) CourseChain(ctx context.Context, courseID uint) (Chain, error) {
	return r.walk(r.query(ctx).Table("courses").
		Select(chainSelect).
		Where("courses.id = ?", courseID))
}

func (r *Resolver) ModuleChain(ctx context.Context, moduleID uint) (Chain, error) {
	return r.walk(r.query(ctx).Table("modules").
		Select("modules.id AS module_id, "+chainSelect).
		Joins("JOIN courses ON courses.id = modules.course_id").
		Where("modules.id = ?", moduleID))
}

func (r *Resolver) LessonChain(ctx context.Context, lessonID uint) (Chain, error) {
	return r.walk(r.query(ctx).Table("lessons").
		Select("lessons.id AS lesson_id, modules.id AS module_id, "+chainSelect).
		Joins("JOIN modules ON modules.id = lessons.module_id").
		Joins("JOIN courses ON courses.id = modules.course_id").
		Where("lessons.id = ?", lessonID))
}

func (r *Resolver) VideoChain(ctx context.Context, videoID uint) (Chain, error) {
	return r.walk(r.query(ctx).Table("lesson_videos").
		Select("lesson_videos.id AS video_id, lessons.id AS lesson_id, modules.id AS module_id, "+chainSelect).
		Joins("JOIN lessons ON lessons.id = lesson_videos.lesson_id").
		Joins("JOIN modules ON modules.id = lessons.module_id").
		Joins("JOIN courses ON courses.id = modules.course_id").
		Where("lesson_videos.id = ?", videoID))
}

func owned(c Chain, err error, instructorID uint) (Chain, error) {
	if err != nil {
		return Chain{}, err
	}
	if instructorID == 0 || c.InstructorID != instructorID {
		return Chain{}, apperr.NotOwned()
	}
	return c, nil
}

func (r *Resolver) InstructorOwnsCourse(ctx context.Context, instructorID, courseID uint) (Chain, error) {
	c, err := r.CourseChain(ctx, courseID)
	return owned(c, err, instructorID)
}

func (r *Resolver) InstructorOwnsModule(ctx context.Context, instructorID, moduleID uint) (Chain, error) {
	c, err := r.ModuleChain(ctx, moduleID)
	return owned(c, err, instructorID)
}

func (r *Resolver) InstructorOwnsLesson(ctx context.Context, instructorID, lessonID uint) (Chain, error) {
	c, err := r.LessonChain(ctx, lessonID)
	return owned(c, err, instructorID)
}

func (r *Resolver) InstructorOwnsVideo(ctx context.Context, instructorID, videoID uint) (Chain, error) {
	c, err := r.VideoChain(ctx, videoID)
	return owned(c, err, instructorID)
}

// InstructorOwnsEnrollment checks Enrollment -> Course -> Instructor.
func (r *Resolver) InstructorOwnsEnrollment(ctx context.Context, instructorID, enrollmentID uint) (Chain, error) {
	c, err := r.walk(r.query(ctx).Table("enrollments").
		Select(chainSelect).
		Joins("JOIN courses ON courses.id = enrollments.course_id").
		Where("enrollments.id = ?", enrollmentID))
	return owned(c, err, instructorID)
}

// StudentEnrollment returns the student's enrollment id in the course, or a
// Forbidden error when there is none.
func (r *Resolver) StudentEnrollment(ctx context.Context, studentID, courseID uint) (uint, error) {
	var e course.Enrollment
	err := r.query(ctx).Select("id").
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, apperr.Forbidden("You are not enrolled in this course!")
	}
	if err != nil {
		return 0, apperr.Internal("Failed to check enrollment!", err)
	}
	return e.ID, nil
}

// StudentOwnsEnrollment loads an enrollment that must belong to the student.
func (r *Resolver) StudentOwnsEnrollment(ctx context.Context, studentID, enrollmentID uint) (*course.Enrollment, error) {
	var e course.Enrollment
	err := r.query(ctx).Where("id = ? AND student_id = ?", enrollmentID, studentID).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotOwned()
	}
	if err != nil {
		return nil, apperr.Internal("Failed to load enrollment!", err)
	}
	return &e, nil
}

func (r *Resolver) Community(ctx context.Context, communityID uint) (*community.Community, error) {
	var c community.Community
	err := r.query(ctx).Take(&c, communityID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotOwned()
	}
	if err != nil {
		return nil, apperr.Internal("Failed to load community!", err)
	}
	return &c, nil
}

func (r *Resolver) InstructorOwnsCommunity(ctx context.Context, instructorID, communityID uint) (*community.Community, error) {
	c, err := r.Community(ctx, communityID)
	if err != nil {
		return nil, err
	}
	if instructorID == 0 || c.InstructorID != instructorID {
		return nil, apperr.NotOwned()
	}
	return c, nil
}

// ActiveMember requires an active membership of the student in the community.
func (r *Resolver) ActiveMember(ctx context.Context, studentID, communityID uint) (*community.Member, error) {
	var m community.Member
	err := r.query(ctx).
		Where("community_id = ? AND student_id = ? AND is_active = ?", communityID, studentID, true).
		Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Forbidden("You are not a member of this community!")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to check membership!", err)
	}
	return &m, nil
}

// StudentInstructor returns the student's assigned instructor, or 0 when none is assigned.
func (r *Resolver) StudentInstructor(ctx context.Context, studentID uint) (uint, error) {
	var st models.Student
	err := r.query(ctx).Select("id", "instructor_id").Take(&st, studentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, apperr.NotFound("Student not found!")
	}
	if err != nil {
		return 0, apperr.Internal("Failed to load student!", err)
	}
	if st.InstructorID == nil {
		return 0, nil
	}
	return *st.InstructorID, nil
}

// StudentCanBrowseCourse resolves a course a student may see without being
// enrolled: published and owned by the student's instructor.
func (r *Resolver) StudentCanBrowseCourse(ctx context.Context, studentID, courseID uint) (Chain, error) {
	instructorID, err := r.StudentInstructor(ctx, studentID)
	if err != nil {
		return Chain{}, err
	}
	c, err := r.CourseChain(ctx, courseID)
	if err != nil {
		return Chain{}, err
	}
	if !c.Published || instructorID == 0 || c.InstructorID != instructorID {
		return Chain{}, apperr.NotOwned()
	}
	return c, nil
}
