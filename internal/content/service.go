// Package content generates tweets, threads, and replies with an AI
// provider and logs every generation for the user's history.
package content

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/autoreach/autoreach/internal/models"
)

// Completer is the AI provider surface the service needs
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (*Completion, error)
}

// Service generates content and records it in content_logs
type Service struct {
	completer Completer
	db        *gorm.DB
}

// NewService creates a content generation service
func NewService(completer Completer, db *gorm.DB) *Service {
	return &Service{completer: completer, db: db}
}

// TweetRequest describes a single tweet generation
type TweetRequest struct {
	Topic       string
	Style       string
	UserContext string
	Language    string
}

// ThreadRequest describes a thread generation
type ThreadRequest struct {
	Topic     string
	NumTweets int
	Style     string
	Language  string
}

// ReplyRequest describes a reply generation
type ReplyRequest struct {
	OriginalTweet string
	ReplyStyle    string
	UserContext   string
	Language      string
}

// Generated is the outcome of any generation call
type Generated struct {
	Content    string   `json:"content"`
	Tweets     []string `json:"tweets,omitempty"` // set for threads
	Prompt     string   `json:"prompt"`
	TokensUsed int      `json:"tokens_used"`
}

// GenerateTweet produces one tweet
func (s *Service) GenerateTweet(ctx context.Context, user *models.User, req TweetRequest) (*Generated, error) {
	if req.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}
	if req.Style == "" {
		req.Style = "engaging"
	}
	language := pickLanguage(req.Language, user)

	prompt := tweetPrompt(req.Topic, req.Style, req.UserContext)
	completion, err := s.completer.Complete(ctx, systemPrompt(language), prompt, 120)
	if err != nil {
		return nil, fmt.Errorf("tweet generation failed: %w", err)
	}

	text := enforceTweetLength(completion.Text)
	s.logGeneration(user.ID, prompt, text, models.ContentModeTweet, completion.TokensUsed)

	return &Generated{
		Content:    text,
		Prompt:     prompt,
		TokensUsed: completion.TokensUsed,
	}, nil
}

// GenerateThread produces a numbered thread, split into tweets
func (s *Service) GenerateThread(ctx context.Context, user *models.User, req ThreadRequest) (*Generated, error) {
	if req.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}
	if req.NumTweets < 2 {
		req.NumTweets = 3
	}
	if req.NumTweets > 10 {
		return nil, fmt.Errorf("threads are limited to 10 tweets")
	}
	if req.Style == "" {
		req.Style = "informative"
	}
	language := pickLanguage(req.Language, user)

	prompt := threadPrompt(req.Topic, req.Style, req.NumTweets)
	completion, err := s.completer.Complete(ctx, systemPrompt(language), prompt, 1000)
	if err != nil {
		return nil, fmt.Errorf("thread generation failed: %w", err)
	}

	tweets := splitThread(completion.Text)
	s.logGeneration(user.ID, prompt, completion.Text, models.ContentModeThread, completion.TokensUsed)

	return &Generated{
		Content:    completion.Text,
		Tweets:     tweets,
		Prompt:     prompt,
		TokensUsed: completion.TokensUsed,
	}, nil
}

// GenerateReply produces a reply to an existing tweet
func (s *Service) GenerateReply(ctx context.Context, user *models.User, req ReplyRequest) (*Generated, error) {
	if req.OriginalTweet == "" {
		return nil, fmt.Errorf("original tweet is required")
	}
	if req.ReplyStyle == "" {
		req.ReplyStyle = "helpful"
	}
	language := pickLanguage(req.Language, user)

	prompt := replyPrompt(req.OriginalTweet, req.ReplyStyle, req.UserContext)
	completion, err := s.completer.Complete(ctx, systemPrompt(language), prompt, 120)
	if err != nil {
		return nil, fmt.Errorf("reply generation failed: %w", err)
	}

	text := enforceTweetLength(completion.Text)
	s.logGeneration(user.ID, prompt, text, models.ContentModeReply, completion.TokensUsed)

	return &Generated{
		Content:    text,
		Prompt:     prompt,
		TokensUsed: completion.TokensUsed,
	}, nil
}

// History returns the user's recent generations, newest first
func (s *Service) History(ctx context.Context, userID, limit int) ([]models.ContentLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var logs []models.ContentLog
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load content history: %w", err)
	}
	return logs, nil
}

// logGeneration records the generation; a logging failure never fails
// the generation itself
func (s *Service) logGeneration(userID int, prompt, generated, mode string, tokens int) {
	entry := models.ContentLog{
		UserID:        userID,
		Prompt:        prompt,
		GeneratedText: generated,
		Mode:          mode,
		TokensUsed:    tokens,
		CreatedAt:     time.Now(),
	}
	if err := s.db.Create(&entry).Error; err != nil {
		log.Println("Content: Failed to log generation:", err)
	}
}

func pickLanguage(requested string, user *models.User) string {
	if requested != "" {
		return requested
	}
	if user != nil && user.LanguagePref != "" {
		return user.LanguagePref
	}
	return "en"
}

// splitThread breaks the model output into individual tweets on blank
// lines, trimming leftover numbering whitespace
func splitThread(text string) []string {
	parts := strings.Split(text, "\n\n")
	tweets := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		tweets = append(tweets, enforceTweetLength(part))
	}
	return tweets
}
