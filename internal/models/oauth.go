package models

import "time"

// OAuthPendingRequest holds the request-token secret between flow
// initiation and the provider callback. Rows are one-time use: the
// callback consumes (deletes) the row before exchanging the verifier,
// and expired rows are swept by a background job.
type OAuthPendingRequest struct {
	ID           int       `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID       int       `json:"user_id" gorm:"not null"`
	RequestToken string    `json:"request_token" gorm:"uniqueIndex;not null"`
	TokenSecret  string    `json:"-" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at" gorm:"not null"`
}

// TableName specifies the table name for OAuthPendingRequest
func (OAuthPendingRequest) TableName() string {
	return "oauth_pending_requests"
}
