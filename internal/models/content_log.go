package models

import "time"

// Content generation modes
const (
	ContentModeTweet  = "new_tweet"
	ContentModeReply  = "reply"
	ContentModeThread = "thread"
)

// ContentLog records every AI content generation for auditing and reuse
type ContentLog struct {
	ID            int       `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID        int       `json:"user_id" gorm:"index;not null"`
	Prompt        string    `json:"prompt" gorm:"not null"`
	GeneratedText string    `json:"generated_text" gorm:"not null"`
	Mode          string    `json:"mode" gorm:"not null"`
	TokensUsed    int       `json:"tokens_used" gorm:"default:0"`
	CreatedAt     time.Time `json:"created_at"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}

// TableName specifies the table name for ContentLog
func (ContentLog) TableName() string {
	return "content_logs"
}
