package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/autoreach/autoreach/internal/api"
	"github.com/autoreach/autoreach/internal/config"
	"github.com/autoreach/autoreach/internal/content"
	"github.com/autoreach/autoreach/internal/database"
	"github.com/autoreach/autoreach/internal/jobs"
	"github.com/autoreach/autoreach/internal/oauth"
	"github.com/autoreach/autoreach/internal/secrets"
	"github.com/autoreach/autoreach/internal/twitter"
	"github.com/autoreach/autoreach/internal/websocket"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Get underlying SQL database for cleanup
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database connection: %v", err)
	}
	defer sqlDB.Close()

	// Run migrations
	if err := database.RunMigrations(cfg.Database); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize WebSocket hub
	hub := websocket.NewHub(cfg.JWTSecret, cfg.CORSOrigins)
	go hub.Run()

	// Credential encryption for stored Twitter tokens
	cipher, err := secrets.NewCipher(cfg.TokenCipherKey)
	if err != nil {
		log.Fatalf("Failed to initialize token cipher: %v", err)
	}
	linkages := oauth.NewLinkageStore(db, cipher)

	deps := api.Deps{
		DB:       db,
		Hub:      hub,
		Linkages: linkages,
	}

	// Twitter integration
	if cfg.Twitter != nil && cfg.Twitter.Enabled {
		twitterClient, err := twitter.NewClient(cfg.Twitter)
		if err != nil {
			log.Fatalf("Failed to initialize Twitter client: %v", err)
		}

		// Pending OAuth requests live in Redis when configured,
		// otherwise in the database with a cleanup job
		var pending oauth.PendingStore
		if cfg.Redis.Addr != "" {
			store := oauth.NewRedisStore(cfg.Redis)
			pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := store.Ping(pingCtx); err != nil {
				cancel()
				log.Fatalf("Failed to connect to Redis: %v", err)
			}
			cancel()
			pending = store
			log.Println("OAuth: Using Redis pending request store")
		} else {
			pending = oauth.NewDBStore(db)
			oauth.StartCleanupJob(db)
		}

		deps.Flow = oauth.NewFlow(twitterClient, pending, linkages, cfg.Twitter.CallbackURL)
		deps.TwitterClient = twitterClient
		deps.Publisher = jobs.NewPublisher(db, twitterClient, linkages, hub)

		// Start the post publisher and metrics refresher
		scheduler := jobs.NewScheduler(db, deps.Publisher)
		scheduler.Start()
		defer scheduler.Stop()
	} else {
		log.Println("Twitter integration disabled; scheduled publishing is off")
	}

	// Content generation
	if cfg.OpenAI != nil && cfg.OpenAI.Enabled {
		openaiClient, err := content.NewOpenAIClient(cfg.OpenAI)
		if err != nil {
			log.Fatalf("Failed to initialize OpenAI client: %v", err)
		}
		deps.ContentService = content.NewService(openaiClient, db)
	}

	// Setup API router
	router := api.NewRouter(cfg, deps)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on port %d", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
