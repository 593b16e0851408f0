package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/autoreach/autoreach/internal/models"
	"github.com/autoreach/autoreach/internal/oauth"
	"github.com/autoreach/autoreach/internal/twitter"
	"github.com/autoreach/autoreach/internal/websocket"
)

// TweetPoster is the Twitter client surface the publisher needs
type TweetPoster interface {
	PostTweet(ctx context.Context, creds *twitter.AccessCredentials, text string) (string, error)
	GetTweetMetrics(ctx context.Context, creds *twitter.AccessCredentials, tweetID string) (*twitter.TweetMetrics, error)
}

// Publisher posts due scheduled posts to Twitter and records outcomes.
// Used by the cron job and by the post-now endpoint.
type Publisher struct {
	db       *gorm.DB
	poster   TweetPoster
	linkages oauth.LinkageStore
	hub      *websocket.Hub
}

// NewPublisher creates a Publisher
func NewPublisher(db *gorm.DB, poster TweetPoster, linkages oauth.LinkageStore, hub *websocket.Hub) *Publisher {
	return &Publisher{db: db, poster: poster, linkages: linkages, hub: hub}
}

// PublishDue publishes every pending post whose scheduled time has
// passed. Failures mark the post failed and move on.
func (p *Publisher) PublishDue(ctx context.Context) {
	var due []models.ScheduledPost
	err := p.db.WithContext(ctx).
		Where("status = ? AND scheduled_time <= ?", models.PostStatusPending, time.Now()).
		Order("scheduled_time ASC").
		Limit(50).
		Find(&due).Error
	if err != nil {
		log.Println("Jobs: Failed to load due posts:", err)
		return
	}

	for i := range due {
		if err := p.Publish(ctx, &due[i]); err != nil {
			log.Printf("Jobs: Failed to publish post %d: %v", due[i].ID, err)
		}
	}
}

// Publish posts a single scheduled post and updates its status
func (p *Publisher) Publish(ctx context.Context, post *models.ScheduledPost) error {
	creds, err := p.linkages.Credentials(ctx, post.UserID)
	if err != nil {
		p.markFailed(post, err)
		return fmt.Errorf("no usable Twitter credentials: %w", err)
	}

	twitterID, err := p.poster.PostTweet(ctx, creds, post.Content)
	if err != nil {
		p.markFailed(post, err)
		return fmt.Errorf("tweet post failed: %w", err)
	}

	now := time.Now()
	post.Status = models.PostStatusPosted
	post.TwitterID = &twitterID
	post.LastError = nil
	post.UpdatedAt = now
	if err := p.db.Save(post).Error; err != nil {
		// The tweet exists on Twitter; surface the bookkeeping failure
		return fmt.Errorf("tweet posted but status update failed: %w", err)
	}

	// Record the published tweet for analytics
	tweet := models.Tweet{
		UserID:      post.UserID,
		Content:     post.Content,
		TwitterID:   &twitterID,
		Status:      models.TweetStatusPosted,
		IsScheduled: true,
		ScheduledAt: &post.ScheduledTime,
		PostedAt:    &now,
		CreatedAt:   now,
	}
	if err := p.db.Create(&tweet).Error; err != nil {
		log.Printf("Jobs: Failed to record published tweet for post %d: %v", post.ID, err)
	}

	p.notify(post.UserID, websocket.EventPostPublished, post)
	log.Printf("Jobs: Published scheduled post %d as tweet %s", post.ID, twitterID)
	return nil
}

// RefreshMetrics pulls engagement counts for recently posted tweets
func (p *Publisher) RefreshMetrics(ctx context.Context) {
	var tweets []models.Tweet
	err := p.db.WithContext(ctx).
		Where("status = ? AND twitter_id IS NOT NULL AND posted_at > ?",
			models.TweetStatusPosted, time.Now().Add(-7*24*time.Hour)).
		Find(&tweets).Error
	if err != nil {
		log.Println("Jobs: Failed to load tweets for metrics refresh:", err)
		return
	}

	for i := range tweets {
		tweet := &tweets[i]

		creds, err := p.linkages.Credentials(ctx, tweet.UserID)
		if err != nil {
			continue
		}

		metrics, err := p.poster.GetTweetMetrics(ctx, creds, *tweet.TwitterID)
		if err != nil {
			log.Printf("Jobs: Metrics refresh failed for tweet %s: %v", *tweet.TwitterID, err)
			continue
		}

		tweet.LikesCount = metrics.Likes
		tweet.RetweetsCount = metrics.Retweets
		tweet.RepliesCount = metrics.Replies
		tweet.ImpressionsCount = metrics.Impressions
		tweet.UpdatedAt = time.Now()
		if err := p.db.Save(tweet).Error; err != nil {
			log.Printf("Jobs: Failed to save metrics for tweet %d: %v", tweet.ID, err)
			continue
		}

		p.notify(tweet.UserID, websocket.EventTweetMetrics, tweet)
	}
}

func (p *Publisher) markFailed(post *models.ScheduledPost, cause error) {
	msg := cause.Error()
	post.Status = models.PostStatusFailed
	post.LastError = &msg
	post.UpdatedAt = time.Now()
	if err := p.db.Save(post).Error; err != nil {
		log.Printf("Jobs: Failed to mark post %d failed: %v", post.ID, err)
	}
	p.notify(post.UserID, websocket.EventPostFailed, post)
}

func (p *Publisher) notify(userID int, event string, payload interface{}) {
	if p.hub == nil {
		return
	}
	if err := p.hub.NotifyUser(userID, event, payload); err != nil {
		log.Printf("Jobs: Failed to notify user %d: %v", userID, err)
	}
}
