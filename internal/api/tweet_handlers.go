package api

import (
	"encoding/json"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/autoreach/autoreach/internal/models"
)

// CreateTweetRequest represents a tweet draft or scheduled tweet
type CreateTweetRequest struct {
	Content     string     `json:"content"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

// UpdateTweetRequest carries partial tweet updates
type UpdateTweetRequest struct {
	Content     *string    `json:"content"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

// HandleGetTweets returns the user's tweets, newest first
func HandleGetTweets(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value(userContextKey).(*models.User)

		var tweets []models.Tweet
		err := db.Where("user_id = ?", user.ID).
			Order("created_at DESC").
			Limit(100).
			Find(&tweets).Error
		if err != nil {
			http.Error(w, "Failed to fetch tweets", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(tweets)
	}
}

// HandleGetTweet returns a single tweet by ID
func HandleGetTweet(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value(userContextKey).(*models.User)
		tweetID := chi.URLParam(r, "id")

		var tweet models.Tweet
		err := db.Where("id = ? AND user_id = ?", tweetID, user.ID).First(&tweet).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				http.Error(w, "Tweet not found", http.StatusNotFound)
			} else {
				http.Error(w, "Failed to fetch tweet", http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(tweet)
	}
}

// HandleCreateTweet creates a draft or scheduled tweet
func HandleCreateTweet(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value(userContextKey).(*models.User)

		var req CreateTweetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if req.Content == "" {
			http.Error(w, "Content is required", http.StatusBadRequest)
			return
		}
		if utf8.RuneCountInString(req.Content) > 280 {
			http.Error(w, "Content exceeds 280 characters", http.StatusBadRequest)
			return
		}

		tweet := models.Tweet{
			UserID:      user.ID,
			Content:     req.Content,
			Status:      models.TweetStatusDraft,
			ScheduledAt: req.ScheduledAt,
			IsScheduled: req.ScheduledAt != nil,
			CreatedAt:   time.Now(),
		}
		if req.ScheduledAt != nil {
			tweet.Status = models.TweetStatusScheduled
		}

		if err := db.Create(&tweet).Error; err != nil {
			http.Error(w, "Failed to create tweet", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(tweet)
	}
}

// HandleUpdateTweet updates a draft or scheduled tweet
func HandleUpdateTweet(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value(userContextKey).(*models.User)
		tweetID := chi.URLParam(r, "id")

		var tweet models.Tweet
		err := db.Where("id = ? AND user_id = ?", tweetID, user.ID).First(&tweet).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				http.Error(w, "Tweet not found", http.StatusNotFound)
			} else {
				http.Error(w, "Failed to fetch tweet", http.StatusInternalServerError)
			}
			return
		}

		if tweet.Status == models.TweetStatusPosted {
			http.Error(w, "Posted tweets cannot be edited", http.StatusBadRequest)
			return
		}

		var req UpdateTweetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if req.Content != nil {
			if *req.Content == "" || utf8.RuneCountInString(*req.Content) > 280 {
				http.Error(w, "Content must be 1-280 characters", http.StatusBadRequest)
				return
			}
			tweet.Content = *req.Content
		}
		if req.ScheduledAt != nil {
			tweet.ScheduledAt = req.ScheduledAt
			tweet.IsScheduled = true
			tweet.Status = models.TweetStatusScheduled
		}
		tweet.UpdatedAt = time.Now()

		if err := db.Save(&tweet).Error; err != nil {
			http.Error(w, "Failed to update tweet", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(tweet)
	}
}

// HandleDeleteTweet deletes a tweet record
func HandleDeleteTweet(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value(userContextKey).(*models.User)
		tweetID := chi.URLParam(r, "id")

		result := db.Where("id = ? AND user_id = ?", tweetID, user.ID).Delete(&models.Tweet{})
		if result.Error != nil {
			http.Error(w, "Failed to delete tweet", http.StatusInternalServerError)
			return
		}
		if result.RowsAffected == 0 {
			http.Error(w, "Tweet not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message": "Tweet deleted successfully"}`))
	}
}
