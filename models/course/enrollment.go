package course

import (
	"time"

	"learnhub/models"
)

// Enrollment links one student to one course. The unique index makes a second
// enrollment for the same pair fail instead of duplicating. Rows of the course
// hierarchy reference their parent with ON DELETE CASCADE.
type Enrollment struct {
	models.Model
	StudentID  uint      `json:"student_id" gorm:"not null;uniqueIndex:idx_enrollments_student_course"`
	CourseID   uint      `json:"course_id" gorm:"not null;uniqueIndex:idx_enrollments_student_course;index:idx_enrollments_course"`
	EnrolledAt time.Time `json:"enrolled_at"`

	Course *Course `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// LessonProgress is keyed by (enrollment, lesson) and written with upserts only.
type LessonProgress struct {
	models.Model
	EnrollmentID uint       `json:"enrollment_id" gorm:"not null;uniqueIndex:idx_lesson_progress_enrollment_lesson"`
	LessonID     uint       `json:"lesson_id" gorm:"not null;uniqueIndex:idx_lesson_progress_enrollment_lesson;index:idx_lesson_progress_lesson"`
	Completed    bool       `json:"completed"`
	WatchTime    int        `json:"watch_time"` // seconds
	CompletedAt  *time.Time `json:"completed_at"`

	Enrollment *Enrollment `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Lesson     *Lesson     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

func (LessonProgress) TableName() string {
	return "lesson_progress"
}
