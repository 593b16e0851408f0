package jobs

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/autoreach/autoreach/internal/models"
)

// Scheduler manages background jobs
type Scheduler struct {
	cron      *cron.Cron
	db        *gorm.DB
	publisher *Publisher
}

// NewScheduler creates a new job scheduler
func NewScheduler(db *gorm.DB, publisher *Publisher) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		db:        db,
		publisher: publisher,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	// Publish due scheduled posts every minute
	s.cron.AddFunc("* * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 55*time.Second)
		defer cancel()
		s.publisher.PublishDue(ctx)
	})

	// Refresh engagement metrics hourly at minute 10
	s.cron.AddFunc("10 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		s.publisher.RefreshMetrics(ctx)
	})

	// Cleanup old content logs daily at 3:14 AM
	s.cron.AddFunc("14 3 * * *", func() {
		log.Println("Jobs: Running content log cleanup...")
		s.cleanupOldContentLogs()
	})

	s.cron.Start()
	log.Println("Job scheduler started")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("Job scheduler stopped")
}

// cleanupOldContentLogs removes generation logs older than 180 days
func (s *Scheduler) cleanupOldContentLogs() {
	result := s.db.Where("created_at < ?", time.Now().AddDate(0, 0, -180)).
		Delete(&models.ContentLog{})
	if result.Error != nil {
		log.Printf("Jobs: Failed to cleanup old content logs: %v", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		log.Printf("Jobs: Cleaned up %d old content logs", result.RowsAffected)
	}
}
