package community

import "learnhub/models"

// Message is append-only; pinning is a flag, not a rank.
type Message struct {
	models.Model
	CommunityID   uint   `json:"community_id" gorm:"not null;index"`
	AuthorID      uint   `json:"author_id" gorm:"not null"`
	AuthorRole    string `json:"author_role" gorm:"type:varchar(20);not null"` // INSTRUCTOR or STUDENT
	Content       string `json:"content" gorm:"type:text;not null"`
	IsPinned      bool   `json:"is_pinned"`
	AttachmentURL string `json:"attachment_url,omitempty"`
	AttachmentKey string `json:"attachment_key,omitempty"`
}

func (Message) TableName() string {
	return "community_messages"
}
