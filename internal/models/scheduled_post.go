package models

import "time"

// Scheduled post statuses
const (
	PostStatusPending = "pending"
	PostStatusPosted  = "posted"
	PostStatusFailed  = "failed"
)

// ScheduledPost represents a post queued for future publishing
type ScheduledPost struct {
	ID            int       `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID        int       `json:"user_id" gorm:"index;not null"`
	Content       string    `json:"content" gorm:"not null"`
	ScheduledTime time.Time `json:"scheduled_time" gorm:"index;not null"`
	Status        string    `json:"status" gorm:"default:pending;index"`
	TwitterID     *string   `json:"twitter_id"` // Twitter's tweet ID after posting
	LastError     *string   `json:"last_error"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}

// TableName specifies the table name for ScheduledPost
func (ScheduledPost) TableName() string {
	return "scheduled_posts"
}
