package content

import (
	"context"
	"path/filepath"
	"strings"

	"learnhub/apperr"
	"learnhub/models/course"
	"learnhub/services/ordering"
	"learnhub/storage"
	"learnhub/validators"

	"gorm.io/gorm"
)

var videoExts = map[string]bool{".mp4": true, ".webm": true}

// AddVideo attaches a video to a lesson, either as an external URL or as an
// uploaded file held in the asset store.
func (s *Service) AddVideo(ctx context.Context, instructorID, lessonID uint, in VideoInput, file *storage.FilePart) (*course.LessonVideo, error) {
	fields := map[string]string{}
	if err := validators.Struct(&in); err != nil {
		return nil, err
	}
	url := strings.TrimSpace(in.URL)
	switch {
	case file == nil && url == "":
		fields["url"] = "Either url or file is required!"
	case file != nil && url != "":
		fields["url"] = "Provide either url or file, not both!"
	case file != nil && !videoExts[strings.ToLower(filepath.Ext(file.Name))]:
		fields["file"] = "Video must be an mp4 or webm file!"
	}
	if len(fields) > 0 {
		return nil, apperr.Validation(fields)
	}

	var types []string
	if file != nil {
		var err error
		if types, err = s.policy.Check([]storage.FilePart{*file}); err != nil {
			return nil, err
		}
	}
	if _, err := s.authz.InstructorOwnsLesson(ctx, instructorID, lessonID); err != nil {
		return nil, err
	}

	v := course.LessonVideo{
		LessonID:        lessonID,
		Title:           strings.TrimSpace(in.Title),
		URL:             url,
		DurationSeconds: in.DurationSeconds,
	}
	if file != nil {
		uploaded, err := s.upload(ctx, []storage.FilePart{*file}, types)
		if err != nil {
			return nil, err
		}
		v.URL, v.Key, v.MimeType = uploaded[0].URL, uploaded[0].Key, uploaded[0].MimeType
		if v.Title == "" {
			v.Title = file.Name
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.authz.With(tx).InstructorOwnsLesson(ctx, instructorID, lessonID); err != nil {
			return err
		}
		_, err := s.order.Place(tx, ordering.Videos(lessonID), in.Position, func(tx *gorm.DB, index int) error {
			v.OrderIndex = index
			return tx.Create(&v).Error
		})
		return err
	})
	if err != nil {
		s.releaser.Release(ctx, []string{v.Key})
		return nil, apperr.Wrap(err, "Failed to add video!")
	}
	return &v, nil
}

func (s *Service) MoveVideo(ctx context.Context, instructorID, videoID uint, position int) (*course.LessonVideo, error) {
	var v course.LessonVideo
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		chain, err := s.authz.ForUpdate(tx).InstructorOwnsVideo(ctx, instructorID, videoID)
		if err != nil {
			return err
		}
		if _, err := s.order.Move(tx, ordering.Videos(chain.LessonID), videoID, position); err != nil {
			return err
		}
		return tx.First(&v, videoID).Error
	})
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to move video!")
	}
	return &v, nil
}

func (s *Service) DeleteVideo(ctx context.Context, instructorID, videoID uint) error {
	var key string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		chain, err := s.authz.ForUpdate(tx).InstructorOwnsVideo(ctx, instructorID, videoID)
		if err != nil {
			return err
		}
		var v course.LessonVideo
		if err := tx.First(&v, videoID).Error; err != nil {
			return err
		}
		key = v.Key
		if err := tx.Delete(&v).Error; err != nil {
			return err
		}
		return s.order.ReindexAfterDelete(tx, ordering.Videos(chain.LessonID))
	})
	if err != nil {
		return apperr.Wrap(err, "Failed to delete video!")
	}
	s.releaser.Release(ctx, []string{key})
	return nil
}
