package content

import (
	"context"
	"path/filepath"
	"strings"

	"learnhub/apperr"
	"learnhub/models/course"
	"learnhub/services/paging"
	"learnhub/storage"
	"learnhub/validators"

	"gorm.io/gorm"
)

var thumbnailExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true}

// CourseSummary is a course row with its derived counts.
type CourseSummary struct {
	course.Course
	ModuleCount     int64 `json:"module_count"`
	LessonCount     int64 `json:"lesson_count"`
	EnrollmentCount int64 `json:"enrollment_count"`
}

func (s *Service) CreateCourse(ctx context.Context, instructorID uint, in CourseInput) (*course.Course, error) {
	if err := validators.Struct(&in); err != nil {
		return nil, err
	}
	c := course.Course{
		InstructorID: instructorID,
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		Category:     strings.TrimSpace(in.Category),
		Level:        strings.TrimSpace(in.Level),
		Type:         in.Type,
		Price:        in.Price,
	}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, apperr.Internal("Failed to create course!", err)
	}
	return &c, nil
}

// ListCourses returns the instructor's courses, newest first, with derived counts.
func (s *Service) ListCourses(ctx context.Context, instructorID uint, page paging.Params) ([]CourseSummary, paging.Pagination, error) {
	db := s.db.WithContext(ctx)
	q := db.Model(&course.Course{}).Where("instructor_id = ?", instructorID).Session(&gorm.Session{})

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

func summarize(db *gorm.DB, courses []course.Course) ([]CourseSummary, error) {
	out := make([]CourseSummary, len(courses))
	if len(courses) == 0 {
		return out, nil
	}
	ids := make([]uint, len(courses))
	for i, c := range courses {
		ids[i] = c.ID
	}

	modules, err := countsBy(db.Model(&course.Module{}).
		Select("course_id AS id, COUNT(*) AS n").Where("course_id IN ?", ids).Group("course_id"))
	if err != nil {
		return nil, err
	}
	lessons, err := countsBy(db.Table("lessons").
		Select("modules.course_id AS id, COUNT(lessons.id) AS n").
		Joins("JOIN modules ON modules.id = lessons.module_id").
		Where("modules.course_id IN ?", ids).Group("modules.course_id"))
	if err != nil {
		return nil, err
	}
	enrollments, err := countsBy(db.Model(&course.Enrollment{}).
		Select("course_id AS id, COUNT(*) AS n").Where("course_id IN ?", ids).Group("course_id"))
	if err != nil {
		return nil, err
	}

	for i, c := range courses {
		out[i] = CourseSummary{
			Course:          c,
			ModuleCount:     modules[c.ID],
			LessonCount:     lessons[c.ID],
			EnrollmentCount: enrollments[c.ID],
		}
	}
	return out, nil
}

// GetCourseTree returns the owner's full view of a course.
func (s *Service) GetCourseTree(ctx context.Context, instructorID, courseID uint) (*CourseTree, error) {
	if _, err := s.authz.InstructorOwnsCourse(ctx, instructorID, courseID); err != nil {
		return nil, err
	}
	tree, err := loadTree(s.db.WithContext(ctx), courseID, nil)
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to fetch course!")
	}
	return tree, nil
}

func (s *Service) UpdateCourse(ctx context.Context, instructorID, courseID uint, in CoursePatch) (*course.Course, error) {
	p := in.build()
	if err := p.err(); err != nil {
		return nil, err
	}
	var c course.Course
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.authz.ForUpdate(tx).InstructorOwnsCourse(ctx, instructorID, courseID); err != nil {
			return err
		}
		if len(p.updates) > 0 {
			if err := tx.Model(&course.Course{}).Where("id = ?", courseID).Updates(p.updates).Error; err != nil {
				return err
			}
		}
		return tx.First(&c, courseID).Error
	})
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to update course!")
	}
	return &c, nil
}

// PublishCourse moves a course between Draft and Published. Content stays
// editable in both states; only Published accepts enrollments.
func (s *Service) PublishCourse(ctx context.Context, instructorID, courseID uint, publish bool) (*course.Course, error) {
	var c course.Course
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.authz.ForUpdate(tx).InstructorOwnsCourse(ctx, instructorID, courseID); err != nil {
			return err
		}
		if err := tx.Model(&course.Course{}).Where("id = ?", courseID).Update("is_published", publish).Error; err != nil {
			return err
		}
		return tx.First(&c, courseID).Error
	})
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to update course!")
	}
	s.log.Info("Course publication changed", "course_id", courseID, "published", publish)
	return &c, nil
}

// SetThumbnail uploads a new course image and releases the previous one.
func (s *Service) SetThumbnail(ctx context.Context, instructorID, courseID uint, file storage.FilePart) (*course.Course, error) {
	if !thumbnailExts[strings.ToLower(filepath.Ext(file.Name))] {
		return nil, apperr.Validation(map[string]string{"thumbnail": "Thumbnail must be a png, jpg, gif or webp image!"})
	}
	types, err := s.policy.Check([]storage.FilePart{file})
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.InstructorOwnsCourse(ctx, instructorID, courseID); err != nil {
		return nil, err
	}

	uploaded, err := s.upload(ctx, []storage.FilePart{file}, types)
	if err != nil {
		return nil, err
	}
	obj := uploaded[0]

	var c course.Course
	var previous string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.authz.ForUpdate(tx).InstructorOwnsCourse(ctx, instructorID, courseID); err != nil {
			return err
		}
		if err := tx.First(&c, courseID).Error; err != nil {
			return err
		}
		previous = c.ThumbnailKey
		c.ThumbnailURL, c.ThumbnailKey = obj.URL, obj.Key
		return tx.Model(&c).Updates(map[string]interface{}{"thumbnail_url": obj.URL, "thumbnail_key": obj.Key}).Error
	})
	if err != nil {
		s.releaser.Release(ctx, []string{obj.Key})
		return nil, apperr.Wrap(err, "Failed to update thumbnail!")
	}
	s.releaser.Release(ctx, []string{previous})
	return &c, nil
}

// DeleteCourse removes the course and everything beneath it, including
// enrollments and their progress.
func (s *Service) DeleteCourse(ctx context.Context, instructorID, courseID uint) error {
	var keys []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.authz.ForUpdate(tx).InstructorOwnsCourse(ctx, instructorID, courseID); err != nil {
			return err
		}
		var c course.Course
		if err := tx.First(&c, courseID).Error; err != nil {
			return err
		}
		var err error
		keys, err = purgeCourse(tx, &c)
		return err
	})
	if err != nil {
		return apperr.Wrap(err, "Failed to delete course!")
	}
	s.releaser.Release(ctx, keys)
	s.log.Info("Course deleted", "course_id", courseID, "assets", len(keys))
	return nil
}
