package enrollment

import (
	"context"

	"learnhub/apperr"
	"learnhub/models"
	"learnhub/models/course"
	"learnhub/services/paging"
)

type CourseBrief struct {
	ID           uint   `json:"id"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnail_url"`
	IsPublished  bool   `json:"is_published"`
}

type StudentBrief struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// MyEnrollment is a student's enrollment with its course and derived progress.
type MyEnrollment struct {
	course.Enrollment
	Course   CourseBrief `json:"course"`
	Progress Progress    `json:"progress"`
}

// CourseEnrollment is one enrolled student as seen by the course owner.
type CourseEnrollment struct {
	course.Enrollment
	Student  StudentBrief `json:"student"`
	Progress Progress     `json:"progress"`
}

func (s *Service) ListStudentEnrollments(ctx context.Context, studentID uint) ([]MyEnrollment, error) {
	db := s.db.WithContext(ctx)

	var enrollments []course.Enrollment
	if err := db.Where("student_id = ?", studentID).Order("enrolled_at desc, id desc").Find(&enrollments).Error; err != nil {
		return nil, apperr.Internal("Failed to fetch enrollments!", err)
	}
	if len(enrollments) == 0 {
		return []MyEnrollment{}, nil
	}

	courseIDs := make([]uint, len(enrollments))
	for i, e := range enrollments {
		courseIDs[i] = e.CourseID
	}
	var courses []course.Course
	if err := db.Where("id IN ?", courseIDs).Find(&courses).Error; err != nil {
		return nil, apperr.Internal("Failed to fetch enrollments!", err)
	}
	byID := make(map[uint]course.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}

	progress, err := progressFor(db, enrollments)
	if err != nil {
		return nil, apperr.Internal("Failed to compute progress!", err)
	}

	out := make([]MyEnrollment, len(enrollments))
	for i, e := range enrollments {
		c := byID[e.CourseID]
		out[i] = MyEnrollment{
			Enrollment: e,
			Course:     CourseBrief{ID: c.ID, Title: c.Title, ThumbnailURL: c.ThumbnailURL, IsPublished: c.IsPublished},
			Progress:   progress[i],
		}
	}
	return out, nil
}

// ListCourseEnrollments lists the students enrolled in an instructor's course.
func (s *Service) ListCourseEnrollments(ctx context.Context, instructorID, courseID uint, page paging.Params) ([]CourseEnrollment, paging.Pagination, error) {
	if _, err := s.authz.InstructorOwnsCourse(ctx, instructorID, courseID); err != nil {
		return nil, paging.Pagination{}, err
	}
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&course.Enrollment{}).Where("course_id = ?", courseID).Count(&total).Error; err != nil {
		return nil, paging.Pagination{}, apperr.Internal("Failed to fetch enrollments!", err)
	}
	var enrollments []course.Enrollment
	if err := db.Where("course_id = ?", courseID).Scopes(page.Scope).Order("enrolled_at desc, id desc").Find(&enrollments).Error; err != nil {
		return nil, paging.Pagination{}, apperr.Internal("Failed to fetch enrollments!", err)
	}

	studentIDs := make([]uint, len(enrollments))
	for i, e := range enrollments {
		studentIDs[i] = e.StudentID
	}
	var students []models.Student
	if len(studentIDs) > 0 {
		if err := db.Where("id IN ?", studentIDs).Find(&students).Error; err != nil {
			return nil, paging.Pagination{}, apperr.Internal("Failed to fetch enrollments!", err)
		}
	}
	byID := make(map[uint]models.Student, len(students))
	for _, st := range students {
		byID[st.ID] = st
	}

	progress, err := progressFor(db, enrollments)
	if err != nil {
		return nil, paging.Pagination{}, apperr.Internal("Failed to compute progress!", err)
	}

	out := make([]CourseEnrollment, len(enrollments))
	for i, e := range enrollments {
		st := byID[e.StudentID]
		out[i] = CourseEnrollment{
			Enrollment: e,
			Student:    StudentBrief{ID: st.ID, Name: st.Name, Email: st.Email},
			Progress:   progress[i],
		}
	}
	return out, page.Result(total), nil
}
