package api

import (
	"encoding/json"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/autoreach/autoreach/internal/jobs"
	"github.com/autoreach/autoreach/internal/models"
)

// CreateScheduledPostRequest schedules a post for future publishing
type CreateScheduledPostRequest struct {
	Content       string    `json:"content"`
	ScheduledTime time.Time `json:"scheduled_time"`
}

// UpdateScheduledPostRequest carries partial updates to a pending post
type UpdateScheduledPostRequest struct {
	Content       *string    `json:"content"`
	ScheduledTime *time.Time `json:"scheduled_time"`
}

// HandleGetScheduledPosts returns the user's scheduled posts
func HandleGetScheduledPosts(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value(userContextKey).(*models.User)

		query := db.Where("user_id = ?", user.ID)
		if status := r.URL.Query().Get("status"); status != "" {
			switch status {
			case models.PostStatusPending, models.PostStatusPosted, models.PostStatusFailed:
				query = query.Where("status = ?", status)
			default:
				http.Error(w, "Invalid status filter: "+status, http.StatusBadRequest)
				return
			}
		}

		var posts []models.ScheduledPost
		if err := query.Order("scheduled_time ASC").Limit(100).Find(&posts).Error; err != nil {
			http.Error(w, "Failed to fetch scheduled posts", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(posts)
	}
}

// HandleGetScheduledPost returns a single scheduled post
func HandleGetScheduledPost(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value(userContextKey).(*models.User)

		post, ok := loadScheduledPost(w, r, db, user.ID)
		if !ok {
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(post)
	}
}

// HandleCreateScheduledPost schedules a new post
func HandleCreateScheduledPost(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value(userContextKey).(*models.User)

		var req CreateScheduledPostRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if req.Content == "" || utf8.RuneCountInString(req.Content) > 280 {
			http.Error(w, "Content must be 1-280 characters", http.StatusBadRequest)
			return
		}
		if !req.ScheduledTime.After(time.Now()) {
			http.Error(w, "Scheduled time must be in the future", http.StatusBadRequest)
			return
		}

		post := models.ScheduledPost{
			UserID:        user.ID,
			Content:       req.Content,
			ScheduledTime: req.ScheduledTime,
			Status:        models.PostStatusPending,
			CreatedAt:     time.Now(),
		}

		if err := db.Create(&post).Error; err != nil {
			http.Error(w, "Failed to create scheduled post", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(post)
	}
}

// HandleUpdateScheduledPost updates a pending post
func HandleUpdateScheduledPost(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value(userContextKey).(*models.User)

		post, ok := loadScheduledPost(w, r, db, user.ID)
		if !ok {
			return
		}

		if post.Status != models.PostStatusPending {
			http.Error(w, "Can only update pending posts", http.StatusBadRequest)
			return
		}

		var req UpdateScheduledPostRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if req.Content != nil {
			if *req.Content == "" || utf8.RuneCountInString(*req.Content) > 280 {
				http.Error(w, "Content must be 1-280 characters", http.StatusBadRequest)
				return
			}
			post.Content = *req.Content
		}
		if req.ScheduledTime != nil {
			if !req.ScheduledTime.After(time.Now()) {
				http.Error(w, "Scheduled time must be in the future", http.StatusBadRequest)
				return
			}
			post.ScheduledTime = *req.ScheduledTime
		}
		post.UpdatedAt = time.Now()

		if err := db.Save(post).Error; err != nil {
			http.Error(w, "Failed to update scheduled post", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(post)
	}
}

// HandleDeleteScheduledPost deletes a pending post
func HandleDeleteScheduledPost(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value(userContextKey).(*models.User)

		post, ok := loadScheduledPost(w, r, db, user.ID)
		if !ok {
			return
		}

		if post.Status != models.PostStatusPending {
			http.Error(w, "Can only delete pending posts", http.StatusBadRequest)
			return
		}

		if err := db.Delete(post).Error; err != nil {
			http.Error(w, "Failed to delete scheduled post", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message": "Scheduled post deleted successfully"}`))
	}
}

// HandlePublishNow publishes a pending post immediately
func HandlePublishNow(db *gorm.DB, publisher *jobs.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value(userContextKey).(*models.User)

		post, ok := loadScheduledPost(w, r, db, user.ID)
		if !ok {
			return
		}

		if post.Status != models.PostStatusPending {
			http.Error(w, "Post is not pending", http.StatusBadRequest)
			return
		}

		if err := publisher.Publish(r.Context(), post); err != nil {
			http.Error(w, "Failed to post tweet: "+err.Error(), http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message":    "Post published successfully",
			"twitter_id": post.TwitterID,
		})
	}
}

func loadScheduledPost(w http.ResponseWriter, r *http.Request, db *gorm.DB, userID int) (*models.ScheduledPost, bool) {
	postID := chi.URLParam(r, "id")

	var post models.ScheduledPost
	err := db.Where("id = ? AND user_id = ?", postID, userID).First(&post).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			http.Error(w, "Scheduled post not found", http.StatusNotFound)
		} else {
			http.Error(w, "Failed to fetch scheduled post", http.StatusInternalServerError)
		}
		return nil, false
	}

	return &post, true
}
