package models

import "time"

// TwitterAccount is the durable linkage between a platform user and a
// Twitter account. A user holds at most one linkage; relinking replaces
// the prior row. Access credentials are encrypted before they reach this
// struct and are never serialized to clients.
type TwitterAccount struct {
	ID                int       `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID            int       `json:"user_id" gorm:"uniqueIndex;not null"`
	TwitterUserID     string    `json:"twitter_user_id" gorm:"uniqueIndex;not null"`
	TwitterUsername   string    `json:"twitter_username" gorm:"not null"`
	AccessToken       string    `json:"-" gorm:"not null"`
	AccessTokenSecret string    `json:"-" gorm:"not null"`
	LinkedAt          time.Time `json:"linked_at" gorm:"not null"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}

// TableName specifies the table name for TwitterAccount
func (TwitterAccount) TableName() string {
	return "twitter_accounts"
}
