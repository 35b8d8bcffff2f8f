package community

import (
	"time"

	"learnhub/models"
)

// Community binds to exactly one instructor and optionally one of their courses.
type Community struct {
	models.Model
	InstructorID uint   `json:"instructor_id" gorm:"index;not null"`
	CourseID     *uint  `json:"course_id" gorm:"index"`
	Name         string `json:"name" gorm:"not null"`
	Description  string `json:"description" gorm:"type:text"`
}

// Member is a student's membership. Leaving soft-disables it and joining again
// reactivates the same row.
type Member struct {
	models.Model
	CommunityID uint      `json:"community_id" gorm:"not null;uniqueIndex:idx_community_members_pair"`
	StudentID   uint      `json:"student_id" gorm:"not null;uniqueIndex:idx_community_members_pair"`
	IsActive    bool      `json:"is_active"`
	JoinedAt    time.Time `json:"joined_at"`
}

func (Member) TableName() string {
	return "community_members"
}
