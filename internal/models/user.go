package models

import "time"

// User represents a user in the system
type User struct {
	ID           int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Username     string    `json:"username" gorm:"uniqueIndex;not null"`
	Email        *string   `json:"email" gorm:"uniqueIndex"`
	Password     string    `json:"-" gorm:"not null"` // Never expose password in JSON
	FullName     *string   `json:"full_name"`
	LanguagePref string    `json:"language_pref" gorm:"default:en"`
	Active       bool      `json:"active" gorm:"default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relationships (optional, for eager loading)
	Tweets         []Tweet         `json:"-" gorm:"foreignKey:UserID"`
	ScheduledPosts []ScheduledPost `json:"-" gorm:"foreignKey:UserID"`
	ContentLogs    []ContentLog    `json:"-" gorm:"foreignKey:UserID"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}
