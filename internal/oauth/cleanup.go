package oauth

import (
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/autoreach/autoreach/internal/models"
)

// StartCleanupJob starts a background job to clean up expired pending
// OAuth requests. Only needed with the database-backed store; Redis
// expires its keys on its own.
func StartCleanupJob(db *gorm.DB) {
	log.Println("OAuth: Starting cleanup job (runs every 10 minutes)")

	// Run cleanup immediately on start
	go cleanupExpiredRequests(db)

	// Then run every 10 minutes
	ticker := time.NewTicker(10 * time.Minute)
	go func() {
		for range ticker.C {
			cleanupExpiredRequests(db)
		}
	}()
}

func cleanupExpiredRequests(db *gorm.DB) {
	result := db.Where("expires_at < ?", time.Now()).Delete(&models.OAuthPendingRequest{})
	if result.Error != nil {
		log.Println("OAuth cleanup: Failed to delete expired pending requests:", result.Error)
	} else if result.RowsAffected > 0 {
		log.Printf("OAuth cleanup: Deleted %d expired pending requests", result.RowsAffected)
	}
}
