package dashboard

import (
	"context"

	"learnhub/apperr"
	"learnhub/models"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Stats are counted from the rows on every request; nothing here is stored.
type Stats struct {
	TotalCourses     int64 `json:"total_courses"`
	PublishedCourses int64 `json:"published_courses"`
	TotalModules     int64 `json:"total_modules"`
	TotalLessons     int64 `json:"total_lessons"`
	TotalEnrollments int64 `json:"total_enrollments"`
	TotalStudents    int64 `json:"total_students"`
	CompletedLessons int64 `json:"completed_lessons"`
	Communities      int64 `json:"communities"`
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) InstructorStats(ctx context.Context, instructorID uint) (*Stats, error) {
	db := s.db.WithContext(ctx)
	owned := func() *gorm.DB {
		return db.Table("courses").Select("id").Where("instructor_id = ?", instructorID)
	}

	var st Stats
	counts := []struct {
		dst *int64
		q   *gorm.DB
	}{
		{&st.TotalCourses, db.Table("courses").Where("instructor_id = ?", instructorID)},
		{&st.PublishedCourses, db.Table("courses").Where("instructor_id = ? AND is_published = ?", instructorID, true)},
		{&st.TotalModules, db.Table("modules").Where("course_id IN (?)", owned())},
		{&st.TotalLessons, db.Table("lessons").
			Joins("JOIN modules ON modules.id = lessons.module_id").
			Where("modules.course_id IN (?)", owned())},
		{&st.TotalEnrollments, db.Table("enrollments").Where("course_id IN (?)", owned())},
		{&st.TotalStudents, db.Model(&models.Student{}).Where("instructor_id = ?", instructorID)},
		{&st.CompletedLessons, db.Table("lesson_progress").
			Joins("JOIN enrollments ON enrollments.id = lesson_progress.enrollment_id").
			Where("enrollments.course_id IN (?) AND lesson_progress.completed = ?", owned(), true)},
		{&st.Communities, db.Table("communities").Where("instructor_id = ?", instructorID)},
	}

	var g errgroup.Group
	for _, c := range counts {
		c := c
		g.Go(func() error {
			return c.q.Count(c.dst).Error
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperr.Internal("Failed to fetch dashboard!", err)
	}
	return &st, nil
}
