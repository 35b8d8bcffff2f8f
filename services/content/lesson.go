package content

import (
	"context"
	"strings"

	"learnhub/apperr"
	"learnhub/models/course"
	"learnhub/services/ordering"
	"learnhub/storage"
	"learnhub/validators"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateLesson validates the fields and files, uploads the files and then
// inserts the lesson. No row is written if any upload fails, and uploaded
// blobs are released if the insert fails.
func (s *Service) CreateLesson(ctx context.Context, instructorID, moduleID uint, in LessonInput, files []storage.FilePart) (*course.Lesson, error) {
	types, fileErr := s.policy.Check(files)
	if err := mergeFieldErrors(validators.Struct(&in), fileErr); err != nil {
		return nil, err
	}
	if _, err := s.authz.InstructorOwnsModule(ctx, instructorID, moduleID); err != nil {
		return nil, err
	}

	resources, err := s.upload(ctx, files, types)
	if err != nil {
		return nil, err
	}

	lesson := course.Lesson{
		ModuleID:        moduleID,
		Title:           strings.TrimSpace(in.Title),
		Description:     in.Description,
		Content:         in.Content,
		DurationSeconds: in.DurationSeconds,
		AllowPreview:    in.AllowPreview,
		ResourceFiles:   datatypes.NewJSONSlice(resources),
	}
	if lesson.ResourceFiles == nil {
		lesson.ResourceFiles = datatypes.JSONSlice[course.ResourceFile]{}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.authz.With(tx).InstructorOwnsModule(ctx, instructorID, moduleID); err != nil {
			return err
		}
		_, err := s.order.Place(tx, ordering.Lessons(moduleID), in.Position, func(tx *gorm.DB, index int) error {
			lesson.OrderIndex = index
			return tx.Create(&lesson).Error
		})
		return err
	})
	if err != nil {
		s.releaser.Release(ctx, resourceKeys(resources))
		return nil, apperr.Wrap(err, "Failed to create lesson!")
	}
	return &lesson, nil
}

// UpdateLesson patches the provided fields and appends any new files.
func (s *Service) UpdateLesson(ctx context.Context, instructorID, lessonID uint, in LessonPatch, files []storage.FilePart) (*course.Lesson, error) {
	p := in.build()
	types, fileErr := s.policy.Check(files)
	if err := mergeFieldErrors(p.err(), fileErr); err != nil {
		return nil, err
	}
	if _, err := s.authz.InstructorOwnsLesson(ctx, instructorID, lessonID); err != nil {
		return nil, err
	}

	added, err := s.upload(ctx, files, types)
	if err != nil {
		return nil, err
	}

	var lesson course.Lesson
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.authz.ForUpdate(tx).InstructorOwnsLesson(ctx, instructorID, lessonID); err != nil {
			return err
		}
		if len(added) > 0 {
			if err := tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).First(&lesson, lessonID).Error; err != nil {
				return err
			}
			p.set("resource_files", append(lesson.ResourceFiles, added...))
		}
		if len(p.updates) > 0 {
			if err := tx.Model(&course.Lesson{}).Where("id = ?", lessonID).Updates(p.updates).Error; err != nil {
				return err
			}
		}
		return tx.First(&lesson, lessonID).Error
	})
	if err != nil {
		s.releaser.Release(ctx, resourceKeys(added))
		return nil, apperr.Wrap(err, "Failed to update lesson!")
	}
	return &lesson, nil
}

// AddLessonFiles appends resource files to an existing lesson.
func (s *Service) AddLessonFiles(ctx context.Context, instructorID, lessonID uint, files []storage.FilePart) (*course.Lesson, error) {
	if len(files) == 0 {
		return nil, apperr.MissingFields("files")
	}
	return s.UpdateLesson(ctx, instructorID, lessonID, LessonPatch{}, files)
}

// RemoveLessonFile drops one resource file reference and releases its blob.
func (s *Service) RemoveLessonFile(ctx context.Context, instructorID, lessonID uint, key string) (*course.Lesson, error) {
	var lesson course.Lesson
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.authz.ForUpdate(tx).InstructorOwnsLesson(ctx, instructorID, lessonID); err != nil {
			return err
		}
		if err := tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).First(&lesson, lessonID).Error; err != nil {
			return err
		}
		kept := make(datatypes.JSONSlice[course.ResourceFile], 0, len(lesson.ResourceFiles))
		for _, f := range lesson.ResourceFiles {
			if f.Key != key {
				kept = append(kept, f)
			}
		}
		if len(kept) == len(lesson.ResourceFiles) {
			return apperr.NotFound("File not found!")
		}
		lesson.ResourceFiles = kept
		return tx.Model(&lesson).Update("resource_files", kept).Error
	})
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to remove file!")
	}
	s.releaser.Release(ctx, []string{key})
	return &lesson, nil
}

// MoveLesson repositions a lesson within its module.
func (s *Service) MoveLesson(ctx context.Context, instructorID, lessonID uint, position int) (*course.Lesson, error) {
	var lesson course.Lesson
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		chain, err := s.authz.ForUpdate(tx).InstructorOwnsLesson(ctx, instructorID, lessonID)
		if err != nil {
			return err
		}
		if _, err := s.order.Move(tx, ordering.Lessons(chain.ModuleID), lessonID, position); err != nil {
			return err
		}
		return tx.First(&lesson, lessonID).Error
	})
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to move lesson!")
	}
	return &lesson, nil
}

// DeleteLesson removes the lesson with its videos and progress rows, compacts
// its siblings and releases every blob it referenced.
func (s *Service) DeleteLesson(ctx context.Context, instructorID, lessonID uint) error {
	var keys []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		chain, err := s.authz.ForUpdate(tx).InstructorOwnsLesson(ctx, instructorID, lessonID)
		if err != nil {
			return err
		}
		if keys, err = purgeLessons(tx, []uint{lessonID}); err != nil {
			return err
		}
		return s.order.ReindexAfterDelete(tx, ordering.Lessons(chain.ModuleID))
	})
	if err != nil {
		return apperr.Wrap(err, "Failed to delete lesson!")
	}
	s.releaser.Release(ctx, keys)
	return nil
}
