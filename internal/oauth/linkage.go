package oauth

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/autoreach/autoreach/internal/models"
	"github.com/autoreach/autoreach/internal/secrets"
	"github.com/autoreach/autoreach/internal/twitter"
)

// upsertAttempts bounds the transparent retry after a successful
// exchange: the user already consented, so a transient write failure
// should not force a full restart of the flow
const upsertAttempts = 3

// LinkageStore persists the durable account linkage
type LinkageStore interface {
	Upsert(ctx context.Context, userID int, creds *twitter.AccessCredentials) (*models.TwitterAccount, error)
	Get(ctx context.Context, userID int) (*models.TwitterAccount, error)
	Credentials(ctx context.Context, userID int) (*twitter.AccessCredentials, error)
	Delete(ctx context.Context, userID int) error
}

// GormLinkageStore stores linkages in the database with credentials
// encrypted at rest
type GormLinkageStore struct {
	db     *gorm.DB
	cipher *secrets.Cipher
}

// NewLinkageStore creates a database-backed linkage store
func NewLinkageStore(db *gorm.DB, cipher *secrets.Cipher) *GormLinkageStore {
	return &GormLinkageStore{db: db, cipher: cipher}
}

// Upsert writes the linkage in a single transaction, replacing any prior
// linkage the user holds. Retries a few times before giving up.
func (s *GormLinkageStore) Upsert(ctx context.Context, userID int, creds *twitter.AccessCredentials) (*models.TwitterAccount, error) {
	sealedToken, err := s.cipher.Seal(creds.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	sealedSecret, err := s.cipher.Seal(creds.AccessTokenSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	account := &models.TwitterAccount{
		UserID:            userID,
		TwitterUserID:     creds.UserID,
		TwitterUsername:   creds.ScreenName,
		AccessToken:       sealedToken,
		AccessTokenSecret: sealedSecret,
		LinkedAt:          time.Now(),
	}

	var lastErr error
	for attempt := 1; attempt <= upsertAttempts; attempt++ {
		lastErr = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("user_id = ?", userID).Delete(&models.TwitterAccount{}).Error; err != nil {
				return err
			}
			account.ID = 0
			return tx.Create(account).Error
		})
		if lastErr == nil {
			return account, nil
		}
		log.Printf("OAuth: Linkage upsert attempt %d/%d failed: %v", attempt, upsertAttempts, lastErr)
	}

	return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, lastErr)
}

// Get returns the user's linkage, or nil when none exists
func (s *GormLinkageStore) Get(ctx context.Context, userID int) (*models.TwitterAccount, error) {
	var account models.TwitterAccount
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&account).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load linkage: %w", err)
	}
	return &account, nil
}

// Credentials returns the decrypted provider credentials for API calls
func (s *GormLinkageStore) Credentials(ctx context.Context, userID int) (*twitter.AccessCredentials, error) {
	account, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("no Twitter account linked")
	}

	token, err := s.cipher.Open(account.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt access token: %w", err)
	}
	secret, err := s.cipher.Open(account.AccessTokenSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt access token secret: %w", err)
	}

	return &twitter.AccessCredentials{
		AccessToken:       token,
		AccessTokenSecret: secret,
		UserID:            account.TwitterUserID,
		ScreenName:        account.TwitterUsername,
	}, nil
}

// Delete removes the user's linkage
func (s *GormLinkageStore) Delete(ctx context.Context, userID int) error {
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.TwitterAccount{}).Error; err != nil {
		return fmt.Errorf("failed to delete linkage: %w", err)
	}
	return nil
}
