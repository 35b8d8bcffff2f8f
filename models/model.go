package models

import "time"

// Model is gorm.Model without DeletedAt. Course content is hard-deleted so that the
// unique (parent, order_index) indexes never see tombstoned siblings.
type Model struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
