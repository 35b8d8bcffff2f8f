package community

import (
	"context"
	"errors"
	"strings"

	"learnhub/apperr"
	"learnhub/models"
	communityModels "learnhub/models/community"
	"learnhub/services/paging"
	"learnhub/storage"
	"learnhub/validators"

	"gorm.io/gorm"
)

type MessageInput struct {
	Content string `json:"content" form:"content" validate:"notblank"`
}

// canRead allows the owning instructor and active student members.
func (s *Service) canRead(ctx context.Context, tx *gorm.DB, p models.Principal, communityID uint) error {
	r := s.authz.With(tx)
	switch {
	case p.IsInstructor():
		_, err := r.InstructorOwnsCommunity(ctx, *p.InstructorID, communityID)
		return err
	case p.IsStudent():
		if _, err := r.Community(ctx, communityID); err != nil {
			return err
		}
		_, err := r.ActiveMember(ctx, *p.StudentID, communityID)
		return err
	default:
		return apperr.Forbidden("Access denied!")
	}
}

func author(p models.Principal) (uint, string) {
	if p.IsInstructor() {
		return *p.InstructorID, models.RoleInstructor
	}
	return *p.StudentID, models.RoleStudent
}

// loadForWrite loads a message the principal may modify: any message in an
// instructor's own community, or a student's own message while still a member.
func (s *Service) loadForWrite(ctx context.Context, tx *gorm.DB, p models.Principal, messageID uint) (*communityModels.Message, error) {
	var msg communityModels.Message
	if err := tx.Take(&msg, messageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotOwned()
		}
		return nil, apperr.Internal("Failed to load message!", err)
	}
	if p.IsInstructor() {
		if _, err := s.authz.With(tx).InstructorOwnsCommunity(ctx, *p.InstructorID, msg.CommunityID); err != nil {
			return nil, err
		}
		return &msg, nil
	}
	if !p.IsStudent() || msg.AuthorRole != models.RoleStudent || msg.AuthorID != *p.StudentID {
		return nil, apperr.NotOwned()
	}
	if _, err := s.authz.With(tx).ActiveMember(ctx, *p.StudentID, msg.CommunityID); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListMessages returns pinned messages first, then newest first.
func (s *Service) ListMessages(ctx context.Context, p models.Principal, communityID uint, page paging.Params) ([]communityModels.Message, paging.Pagination, error) {
	db := s.db.WithContext(ctx)
	if err := s.canRead(ctx, db, p, communityID); err != nil {
		return nil, paging.Pagination{}, err
	}

	q := db.Model(&communityModels.Message{}).Where("community_id = ?", communityID).Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, paging.Pagination{}, apperr.Internal("Failed to fetch messages!", err)
	}
	var msgs []communityModels.Message
	if err := q.Scopes(page.Scope).Order("is_pinned desc, created_at desc, id desc").Find(&msgs).Error; err != nil {
		return nil, paging.Pagination{}, apperr.Internal("Failed to fetch messages!", err)
	}
	return msgs, page.Result(total), nil
}

// CreateMessage posts a message, uploading the optional attachment first.
func (s *Service) CreateMessage(ctx context.Context, p models.Principal, communityID uint, in MessageInput, file *storage.FilePart) (*communityModels.Message, error) {
	if err := validators.Struct(&in); err != nil {
		return nil, err
	}
	var contentType string
	if file != nil {
		types, err := s.policy.Check([]storage.FilePart{*file})
		if err != nil {
			return nil, err
		}
		contentType = types[0]
	}
	if err := s.canRead(ctx, s.db.WithContext(ctx), p, communityID); err != nil {
		return nil, err
	}

	authorID, role := author(p)
	msg := communityModels.Message{CommunityID: communityID, AuthorID: authorID, AuthorRole: role, Content: strings.TrimSpace(in.Content)}
	if file != nil {
		obj, err := s.store.Upload(ctx, file.Data, contentType)
		if err != nil {
			return nil, apperr.Dependency("Failed to upload file!", err)
		}
		msg.AttachmentURL, msg.AttachmentKey = obj.URL, obj.Key
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.canRead(ctx, tx, p, communityID); err != nil {
			return err
		}
		return tx.Create(&msg).Error
	})
	if err != nil {
		s.releaser.Release(ctx, []string{msg.AttachmentKey})
		return nil, apperr.Wrap(err, "Failed to post message!")
	}
	return &msg, nil
}

func (s *Service) UpdateMessage(ctx context.Context, p models.Principal, messageID uint, in MessageInput) (*communityModels.Message, error) {
	if err := validators.Struct(&in); err != nil {
		return nil, err
	}
	content := strings.TrimSpace(in.Content)
	var msg *communityModels.Message
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if msg, err = s.loadForWrite(ctx, tx, p, messageID); err != nil {
			return err
		}
		msg.Content = content
		return tx.Model(msg).Update("content", content).Error
	})
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to update message!")
	}
	return msg, nil
}

// DeleteMessage removes the message and releases its attachment.
func (s *Service) DeleteMessage(ctx context.Context, p models.Principal, messageID uint) error {
	var key string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		msg, err := s.loadForWrite(ctx, tx, p, messageID)
		if err != nil {
			return err
		}
		key = msg.AttachmentKey
		return tx.Delete(msg).Error
	})
	if err != nil {
		return apperr.Wrap(err, "Failed to delete message!")
	}
	s.releaser.Release(ctx, []string{key})
	return nil
}

// TogglePin flips the pinned flag. Only the owning instructor may pin.
func (s *Service) TogglePin(ctx context.Context, instructorID, messageID uint) (*communityModels.Message, error) {
	var msg *communityModels.Message
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		p := models.Principal{Role: models.RoleInstructor, InstructorID: &instructorID}
		if msg, err = s.loadForWrite(ctx, tx, p, messageID); err != nil {
			return err
		}
		msg.IsPinned = !msg.IsPinned
		return tx.Model(msg).Update("is_pinned", msg.IsPinned).Error
	})
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to pin message!")
	}
	return msg, nil
}
