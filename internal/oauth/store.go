package oauth

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/autoreach/autoreach/internal/models"
)

// PendingTTL bounds how long a request token secret survives between
// initiation and callback
const PendingTTL = 10 * time.Minute

// PendingStore holds the request token secret across the provider
// redirect. It is a consume-once cell: Consume returns the secret and
// deletes it atomically, so a second Consume of the same token fails
// with ErrSecretExpired.
type PendingStore interface {
	Put(ctx context.Context, userID int, requestToken, secret string) error
	Consume(ctx context.Context, requestToken string) (string, error)
}

// DBStore keeps pending requests in the database
type DBStore struct {
	db *gorm.DB
}

// NewDBStore creates a database-backed pending store
func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db}
}

// Put stores the secret for a request token. A user has at most one
// pending flow, so any prior rows for the user are dropped first.
func (s *DBStore) Put(ctx context.Context, userID int, requestToken, secret string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.OAuthPendingRequest{}).Error; err != nil {
			return fmt.Errorf("failed to clear prior pending requests: %w", err)
		}

		pending := models.OAuthPendingRequest{
			UserID:       userID,
			RequestToken: requestToken,
			TokenSecret:  secret,
			CreatedAt:    time.Now(),
			ExpiresAt:    time.Now().Add(PendingTTL),
		}
		if err := tx.Create(&pending).Error; err != nil {
			return fmt.Errorf("failed to store pending request: %w", err)
		}
		return nil
	})
}

// Consume returns the stored secret and deletes the row. The delete's
// row count decides the winner if two callbacks race on the same token.
func (s *DBStore) Consume(ctx context.Context, requestToken string) (string, error) {
	var secret string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pending models.OAuthPendingRequest
		err := tx.Where("request_token = ? AND expires_at > ?", requestToken, time.Now()).
			First(&pending).Error
		if err == gorm.ErrRecordNotFound {
			return ErrSecretExpired
		}
		if err != nil {
			return fmt.Errorf("failed to look up pending request: %w", err)
		}

		result := tx.Where("id = ?", pending.ID).Delete(&models.OAuthPendingRequest{})
		if result.Error != nil {
			return fmt.Errorf("failed to consume pending request: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrSecretExpired
		}

		secret = pending.TokenSecret
		return nil
	})
	if err != nil {
		return "", err
	}

	return secret, nil
}
