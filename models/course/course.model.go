package course

import "learnhub/models"

const (
	TypeFree = "free"
	TypePaid = "paid"
)

// Course is owned by exactly one instructor. IsPublished gates enrollment and
// student visibility; it is not a deletion state.
type Course struct {
	models.Model
	InstructorID uint    `json:"instructor_id" gorm:"index;not null"`
	Title        string  `json:"title" gorm:"not null"`
	Description  string  `json:"description" gorm:"type:text"`
	Category     string  `json:"category"`
	Level        string  `json:"level"`
	Type         string  `json:"type"`
	Price        float64 `json:"price"`
	ThumbnailURL string  `json:"thumbnail_url"`
	ThumbnailKey string  `json:"thumbnail_key,omitempty"`
	IsPublished  bool    `json:"is_published"`
}
