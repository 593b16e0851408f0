package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/autoreach/autoreach/internal/content"
	"github.com/autoreach/autoreach/internal/models"
)

// GenerateTweetRequest asks for one AI-written tweet
type GenerateTweetRequest struct {
	Topic       string `json:"topic"`
	Style       string `json:"style"`
	UserContext string `json:"user_context"`
	Language    string `json:"language"`
}

// GenerateThreadRequest asks for a thread
type GenerateThreadRequest struct {
	Topic     string `json:"topic"`
	NumTweets int    `json:"num_tweets"`
	Style     string `json:"style"`
	Language  string `json:"language"`
}

// GenerateReplyRequest asks for a reply to an existing tweet
type GenerateReplyRequest struct {
	OriginalTweet string `json:"original_tweet"`
	ReplyStyle    string `json:"reply_style"`
	UserContext   string `json:"user_context"`
	Language      string `json:"language"`
}

// HandleGenerateTweet generates a single tweet
func HandleGenerateTweet(svc *content.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value(userContextKey).(*models.User)

		var req GenerateTweetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		generated, err := svc.GenerateTweet(r.Context(), user, content.TweetRequest{
			Topic:       req.Topic,
			Style:       req.Style,
			UserContext: req.UserContext,
			Language:    req.Language,
		})
		if err != nil {
			log.Println("Content: Tweet generation failed:", err)
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(generated)
	}
}

// HandleGenerateThread generates a thread
func HandleGenerateThread(svc *content.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value(userContextKey).(*models.User)

		var req GenerateThreadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		generated, err := svc.GenerateThread(r.Context(), user, content.ThreadRequest{
			Topic:     req.Topic,
			NumTweets: req.NumTweets,
			Style:     req.Style,
			Language:  req.Language,
		})
		if err != nil {
			log.Println("Content: Thread generation failed:", err)
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(generated)
	}
}

// HandleGenerateReply generates a reply
func HandleGenerateReply(svc *content.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value(userContextKey).(*models.User)

		var req GenerateReplyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		generated, err := svc.GenerateReply(r.Context(), user, content.ReplyRequest{
			OriginalTweet: req.OriginalTweet,
			ReplyStyle:    req.ReplyStyle,
			UserContext:   req.UserContext,
			Language:      req.Language,
		})
		if err != nil {
			log.Println("Content: Reply generation failed:", err)
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(generated)
	}
}

// HandleGetContentHistory returns recent generations
func HandleGetContentHistory(svc *content.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value(userContextKey).(*models.User)

		logs, err := svc.History(r.Context(), user.ID, 50)
		if err != nil {
			http.Error(w, "Failed to load content history", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(logs)
	}
}
