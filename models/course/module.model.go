package course

import "learnhub/models"

// Module represents a section within a course
type Module struct {
	models.Model
	CourseID    uint   `json:"course_id" gorm:"not null;uniqueIndex:idx_modules_course_order"`
	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description" gorm:"type:text"`
	OrderIndex  int    `json:"order_index" gorm:"not null;uniqueIndex:idx_modules_course_order"` // 0..n-1 within the course

	Course *Course `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}
