package models

import "time"

// Tweet statuses
const (
	TweetStatusDraft     = "draft"
	TweetStatusScheduled = "scheduled"
	TweetStatusPosted    = "posted"
	TweetStatusFailed    = "failed"
)

// Tweet represents a tweet managed through the platform, from draft to
// posted, including the metrics we pull back from Twitter after posting
type Tweet struct {
	ID          int        `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID      int        `json:"user_id" gorm:"index;not null"`
	Content     string     `json:"content" gorm:"not null"`
	TwitterID   *string    `json:"twitter_id" gorm:"uniqueIndex"` // Twitter's tweet ID after posting
	Status      string     `json:"status" gorm:"default:draft"`
	IsScheduled bool       `json:"is_scheduled" gorm:"default:false"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	PostedAt    *time.Time `json:"posted_at"`

	// Engagement metrics
	LikesCount       int `json:"likes_count" gorm:"default:0"`
	RetweetsCount    int `json:"retweets_count" gorm:"default:0"`
	RepliesCount     int `json:"replies_count" gorm:"default:0"`
	ImpressionsCount int `json:"impressions_count" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}

// TableName specifies the table name for Tweet
func (Tweet) TableName() string {
	return "tweets"
}

// Engagement returns the combined engagement count for ranking
func (t *Tweet) Engagement() int {
	return t.LikesCount + t.RetweetsCount + t.RepliesCount
}
