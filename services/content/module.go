package content

import (
	"context"
	"strings"

	"learnhub/apperr"
	"learnhub/models/course"
	"learnhub/services/ordering"
	"learnhub/validators"

	"gorm.io/gorm"
)

// CreateModule appends to the course's module list, or inserts at
// in.Position when given.
func (s *Service) CreateModule(ctx context.Context, instructorID, courseID uint, in ModuleInput) (*course.Module, error) {
	if err := validators.Struct(&in); err != nil {
		return nil, err
	}
	m := course.Module{CourseID: courseID, Title: strings.TrimSpace(in.Title), Description: in.Description}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.authz.With(tx).InstructorOwnsCourse(ctx, instructorID, courseID); err != nil {
			return err
		}
		_, err := s.order.Place(tx, ordering.Modules(courseID), in.Position, func(tx *gorm.DB, index int) error {
			m.OrderIndex = index
			return tx.Create(&m).Error
		})
		return err
	})
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to create module!")
	}
	return &m, nil
}

func (s *Service) UpdateModule(ctx context.Context, instructorID, moduleID uint, in ModulePatch) (*course.Module, error) {
	p := in.build()
	if err := p.err(); err != nil {
		return nil, err
	}
	var m course.Module
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.authz.ForUpdate(tx).InstructorOwnsModule(ctx, instructorID, moduleID); err != nil {
			return err
		}
		if len(p.updates) > 0 {
			if err := tx.Model(&course.Module{}).Where("id = ?", moduleID).Updates(p.updates).Error; err != nil {
				return err
			}
		}
		return tx.First(&m, moduleID).Error
	})
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to update module!")
	}
	return &m, nil
}

// MoveModule repositions a module within its course.
func (s *Service) MoveModule(ctx context.Context, instructorID, moduleID uint, position int) (*course.Module, error) {
	var m course.Module
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		chain, err := s.authz.ForUpdate(tx).InstructorOwnsModule(ctx, instructorID, moduleID)
		if err != nil {
			return err
		}
		if _, err := s.order.Move(tx, ordering.Modules(chain.CourseID), moduleID, position); err != nil {
			return err
		}
		return tx.First(&m, moduleID).Error
	})
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to move module!")
	}
	return &m, nil
}

// DeleteModule removes the module with its lessons, videos and progress rows,
// compacts the remaining modules and then releases the blobs.
func (s *Service) DeleteModule(ctx context.Context, instructorID, moduleID uint) error {
	var keys []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		chain, err := s.authz.ForUpdate(tx).InstructorOwnsModule(ctx, instructorID, moduleID)
		if err != nil {
			return err
		}
		if keys, err = purgeModules(tx, []uint{moduleID}); err != nil {
			return err
		}
		return s.order.ReindexAfterDelete(tx, ordering.Modules(chain.CourseID))
	})
	if err != nil {
		return apperr.Wrap(err, "Failed to delete module!")
	}
	s.releaser.Release(ctx, keys)
	return nil
}
