package content

import (
	"context"

	"learnhub/apperr"
	"learnhub/models/course"
	"learnhub/services/paging"

	"gorm.io/gorm"
)

// StudentCourseView is what a student sees of a course. Enrolled students get
// the full tree; everyone else only the lessons marked allow_preview.
type StudentCourseView struct {
	*CourseTree
	Enrolled     bool  `json:"enrolled"`
	EnrollmentID *uint `json:"enrollment_id,omitempty"`
}

func previewOnly(db *gorm.DB) *gorm.DB {
	return db.Where("allow_preview = ?", true)
}

// ListPublishedCourses lists the published courses of the student's instructor.
func (s *Service) ListPublishedCourses(ctx context.Context, studentID uint, page paging.Params) ([]CourseSummary, paging.Pagination, error) {
	instructorID, err := s.authz.StudentInstructor(ctx, studentID)
	if err != nil {
		return nil, paging.Pagination{}, err
	}
	if instructorID == 0 {
		return []CourseSummary{}, page.Result(0), nil
	}

	db := s.db.WithContext(ctx)
	q := db.Model(&course.Course{}).Where("instructor_id = ? AND is_published = ?", instructorID, true).Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, paging.Pagination{}, apperr.Internal("Failed to fetch courses!", err)
	}
	var courses []course.Course
	if err := q.Scopes(page.Scope).Order("created_at desc, id desc").Find(&courses).Error; err != nil {
		return nil, paging.Pagination{}, apperr.Internal("Failed to fetch courses!", err)
	}
	summaries, err := summarize(db, courses)
	if err != nil {
		return nil, paging.Pagination{}, apperr.Internal("Failed to fetch courses!", err)
	}
	return summaries, page.Result(total), nil
}

// StudentCourseContent returns the full tree to enrolled students. Others may
// browse the preview lessons of a published course from their instructor.
func (s *Service) StudentCourseContent(ctx context.Context, studentID, courseID uint) (*StudentCourseView, error) {
	db := s.db.WithContext(ctx)

	enrollmentID, err := s.authz.StudentEnrollment(ctx, studentID, courseID)
	switch {
	case err == nil:
		tree, err := loadTree(db, courseID, nil)
		if err != nil {
			return nil, apperr.Wrap(err, "Failed to fetch course!")
		}
		return &StudentCourseView{CourseTree: tree, Enrolled: true, EnrollmentID: &enrollmentID}, nil
	case !apperr.Is(err, apperr.KindForbidden):
		return nil, err
	}

	if _, err := s.authz.StudentCanBrowseCourse(ctx, studentID, courseID); err != nil {
		return nil, err
	}
	tree, err := loadTree(db, courseID, previewOnly)
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to fetch course!")
	}
	return &StudentCourseView{CourseTree: tree}, nil
}
