package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/autoreach/autoreach/internal/config"
	"github.com/autoreach/autoreach/internal/content"
	"github.com/autoreach/autoreach/internal/jobs"
	"github.com/autoreach/autoreach/internal/oauth"
	"github.com/autoreach/autoreach/internal/twitter"
	"github.com/autoreach/autoreach/internal/websocket"
)

// Deps bundles the collaborators handlers need. Flow, TwitterClient and
// ContentService are nil when the integration is not configured.
type Deps struct {
	DB             *gorm.DB
	Hub            *websocket.Hub
	Flow           *oauth.Flow
	Linkages       oauth.LinkageStore
	TwitterClient  *twitter.Client
	ContentService *content.Service
	Publisher      *jobs.Publisher
}

// NewRouter creates a new HTTP router
func NewRouter(cfg *config.Config, deps Deps) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(SecurityHeadersMiddleware(cfg))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Rate limiters: general traffic and a stricter one for auth
	apiLimiter := NewRateLimiter(rate.Limit(20), 40)
	apiLimiter.CleanupOldLimiters()
	authLimiter := NewRateLimiter(rate.Limit(1), 5)
	authLimiter.CleanupOldLimiters()

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Use(RateLimitMiddleware(apiLimiter))

		// Auth routes
		r.Group(func(r chi.Router) {
			r.Use(StrictRateLimitMiddleware(authLimiter))
			r.Post("/auth/register", HandleRegister(deps.DB, cfg))
			r.Post("/auth/login", HandleLogin(deps.DB, cfg))
			r.Post("/auth/logout", HandleLogout())
		})

		// The OAuth callback resolves the session itself so an expired
		// login still produces a renderable flow result
		if deps.Flow != nil {
			r.Get("/twitter/callback", HandleTwitterCallback(deps.DB, cfg.JWTSecret, deps.Flow))
		}

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(cfg.JWTSecret, deps.DB))

			// User routes
			r.Get("/user/me", HandleGetCurrentUser(deps.DB))

			// Twitter account linking
			if deps.Flow != nil {
				r.Post("/twitter/connect", HandleTwitterConnect(deps.Flow))
				r.Get("/twitter/status", HandleTwitterStatus(deps.Linkages))
				r.Delete("/twitter/disconnect", HandleTwitterDisconnect(deps.Linkages))
			} else {
				r.HandleFunc("/twitter/*", handleDisabled("Twitter integration"))
			}

			// Tweet routes
			r.Get("/tweets", HandleGetTweets(deps.DB))
			r.Post("/tweets", HandleCreateTweet(deps.DB))
			r.Get("/tweets/{id}", HandleGetTweet(deps.DB))
			r.Put("/tweets/{id}", HandleUpdateTweet(deps.DB))
			r.Delete("/tweets/{id}", HandleDeleteTweet(deps.DB))

			// Scheduled post routes
			r.Get("/scheduled-posts", HandleGetScheduledPosts(deps.DB))
			r.Post("/scheduled-posts", HandleCreateScheduledPost(deps.DB))
			r.Get("/scheduled-posts/{id}", HandleGetScheduledPost(deps.DB))
			r.Put("/scheduled-posts/{id}", HandleUpdateScheduledPost(deps.DB))
			r.Delete("/scheduled-posts/{id}", HandleDeleteScheduledPost(deps.DB))
			if deps.Publisher != nil {
				r.Post("/scheduled-posts/{id}/publish", HandlePublishNow(deps.DB, deps.Publisher))
			}

			// Analytics routes
			r.Get("/analytics/dashboard", HandleGetDashboardAnalytics(deps.DB))
			r.Get("/analytics/engagement", HandleGetEngagementAnalytics(deps.DB))
			if deps.TwitterClient != nil {
				r.Get("/analytics/growth", HandleGetGrowthAnalytics(deps.Linkages, deps.TwitterClient))
			}

			// Content generation routes
			if deps.ContentService != nil {
				r.Post("/content/generate-tweet", HandleGenerateTweet(deps.ContentService))
				r.Post("/content/generate-thread", HandleGenerateThread(deps.ContentService))
				r.Post("/content/generate-reply", HandleGenerateReply(deps.ContentService))
				r.Get("/content/history", HandleGetContentHistory(deps.ContentService))
			} else {
				r.HandleFunc("/content/*", handleDisabled("Content generation"))
			}
		})
	})

	// WebSocket endpoint
	if deps.Hub != nil {
		r.Get("/ws", deps.Hub.HandleWebSocket)
	}

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}

func handleDisabled(feature string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, feature+" is not enabled", http.StatusNotFound)
	}
}
