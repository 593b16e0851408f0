package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"strconv"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/autoreach/autoreach/internal/models"
	"github.com/autoreach/autoreach/internal/oauth"
	"github.com/autoreach/autoreach/internal/twitter"
)

// DashboardAnalytics summarizes the user's tweet performance
type DashboardAnalytics struct {
	TotalTweets       int        `json:"total_tweets"`
	TotalLikes        int        `json:"total_likes"`
	TotalRetweets     int        `json:"total_retweets"`
	TotalReplies      int        `json:"total_replies"`
	AvgEngagementRate float64    `json:"avg_engagement_rate"`
	TopTweets         []TopTweet `json:"top_tweets"`
}

// TopTweet is a compact view of a high-engagement tweet
type TopTweet struct {
	ID         int    `json:"id"`
	Content    string `json:"content"`
	Likes      int    `json:"likes"`
	Retweets   int    `json:"retweets"`
	Engagement int    `json:"engagement"`
}

// HandleGetDashboardAnalytics returns the dashboard summary
func HandleGetDashboardAnalytics(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value(userContextKey).(*models.User)

		var tweets []models.Tweet
		if err := db.Where("user_id = ?", user.ID).Find(&tweets).Error; err != nil {
			http.Error(w, "Failed to fetch tweets", http.StatusInternalServerError)
			return
		}

		resp := DashboardAnalytics{TotalTweets: len(tweets)}
		for _, t := range tweets {
			resp.TotalLikes += t.LikesCount
			resp.TotalRetweets += t.RetweetsCount
			resp.TotalReplies += t.RepliesCount
		}

		if resp.TotalTweets > 0 {
			total := resp.TotalLikes + resp.TotalRetweets + resp.TotalReplies
			resp.AvgEngagementRate = float64(total) / float64(resp.TotalTweets)
		}

		sort.Slice(tweets, func(i, j int) bool {
			return tweets[i].Engagement() > tweets[j].Engagement()
		})
		for i, t := range tweets {
			if i >= 5 {
				break
			}
			resp.TopTweets = append(resp.TopTweets, TopTweet{
				ID:         t.ID,
				Content:    truncateContent(t.Content, 100),
				Likes:      t.LikesCount,
				Retweets:   t.RetweetsCount,
				Engagement: t.Engagement(),
			})
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

// DailyEngagement aggregates one day of activity
type DailyEngagement struct {
	Date     string `json:"date"`
	Tweets   int    `json:"tweets"`
	Likes    int    `json:"likes"`
	Retweets int    `json:"retweets"`
	Replies  int    `json:"replies"`
}

// HandleGetEngagementAnalytics returns per-day engagement over a window
func HandleGetEngagementAnalytics(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value(userContextKey).(*models.User)

		days := 30
		if d := r.URL.Query().Get("days"); d != "" {
			if parsed, err := strconv.Atoi(d); err == nil && parsed > 0 && parsed <= 365 {
				days = parsed
			}
		}

		var tweets []models.Tweet
		err := db.Where("user_id = ? AND created_at >= ?", user.ID, time.Now().AddDate(0, 0, -days)).
			Find(&tweets).Error
		if err != nil {
			http.Error(w, "Failed to fetch tweets", http.StatusInternalServerError)
			return
		}

		byDay := make(map[string]*DailyEngagement)
		for _, t := range tweets {
			day := t.CreatedAt.Format("2006-01-02")
			entry, ok := byDay[day]
			if !ok {
				entry = &DailyEngagement{Date: day}
				byDay[day] = entry
			}
			entry.Tweets++
			entry.Likes += t.LikesCount
			entry.Retweets += t.RetweetsCount
			entry.Replies += t.RepliesCount
		}

		daily := make([]DailyEngagement, 0, len(byDay))
		for _, entry := range byDay {
			daily = append(daily, *entry)
		}
		sort.Slice(daily, func(i, j int) bool { return daily[i].Date < daily[j].Date })

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"daily_engagement": daily})
	}
}

// AccountFetcher is the Twitter client surface growth analytics needs
type AccountFetcher interface {
	GetMe(ctx context.Context, creds *twitter.AccessCredentials) (*twitter.UserProfile, error)
}

// HandleGetGrowthAnalytics returns live follower counts from the
// linked Twitter account
func HandleGetGrowthAnalytics(linkages oauth.LinkageStore, fetcher AccountFetcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value(userContextKey).(*models.User)

		creds, err := linkages.Credentials(r.Context(), user.ID)
		if err != nil {
			http.Error(w, "No Twitter account linked", http.StatusBadRequest)
			return
		}

		profile, err := fetcher.GetMe(r.Context(), creds)
		if err != nil {
			log.Println("Analytics: Failed to fetch profile:", err)
			http.Error(w, "Failed to fetch account growth", http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"follower_count":  profile.FollowersCount,
			"following_count": profile.FollowingCount,
			"tweet_count":     profile.TweetCount,
			"username":        profile.Username,
		})
	}
}

// truncateContent shortens long tweet text for summary views, cutting
// on a rune boundary so multibyte content stays valid UTF-8
func truncateContent(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "..."
}
