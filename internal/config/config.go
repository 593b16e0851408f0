package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration
type Config struct {
	Port           int
	Database       DatabaseConfig
	JWTSecret      string
	Environment    string
	CORSOrigins    []string
	Twitter        *TwitterConfig
	OpenAI         *OpenAIConfig
	Redis          RedisConfig
	TokenCipherKey string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Type         string // postgres
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// TwitterConfig holds Twitter API credentials for the OAuth 1.0a flow
type TwitterConfig struct {
	Enabled        bool
	ConsumerKey    string
	ConsumerSecret string
	CallbackURL    string
}

// OpenAIConfig holds settings for the content generation provider
type OpenAIConfig struct {
	Enabled bool
	APIKey  string
	Model   string
	BaseURL string
}

// RedisConfig holds optional Redis settings. When Addr is empty the
// pending OAuth request store falls back to the database.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Load loads configuration from environment variables
func Load() *Config {
	env := getEnv("ENVIRONMENT", "production")
	jwtSecret := loadJWTSecret(env)

	cfg := &Config{
		Port: getEnvInt("PORT", 8080),
		Database: DatabaseConfig{
			Type:         getEnv("DATABASE_TYPE", "postgres"),
			DSN:          getEnv("DATABASE_DSN", buildPostgresDSN()),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
		},
		JWTSecret:   jwtSecret,
		Environment: env,
		CORSOrigins: loadCORSOrigins(env),
		Twitter:     loadTwitterConfig(),
		OpenAI:      loadOpenAIConfig(),
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		TokenCipherKey: loadTokenCipherKey(env),
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	return cfg
}

func buildPostgresDSN() string {
	host := getEnv("POSTGRES_HOST", "localhost")
	port := getEnv("POSTGRES_PORT", "5432")
	user := getEnv("POSTGRES_USER", "autoreach")
	password := getEnv("POSTGRES_PASSWORD", "secret")
	dbName := getEnv("POSTGRES_DB", "autoreach")
	sslMode := getEnv("POSTGRES_SSLMODE", "disable")

	u := url.URL{
		Scheme: "postgresql",
		User:   url.UserPassword(user, password),
		Host:   fmt.Sprintf("%s:%s", host, port),
		Path:   dbName,
	}

	query := u.Query()
	query.Set("sslmode", sslMode)
	u.RawQuery = query.Encode()

	return u.String()
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Environment == "production" {
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
		}

		// Check for insecure default secrets
		insecureSecrets := []string{
			"change-this-secret-in-production",
			"change-me-in-production",
			"secret",
			"password",
			"changeme",
		}
		for _, insecure := range insecureSecrets {
			if c.JWTSecret == insecure {
				return fmt.Errorf("JWT_SECRET is set to an insecure default value. Please set a strong random secret")
			}
		}
	}

	if len(c.CORSOrigins) == 0 {
		return fmt.Errorf("at least one CORS origin must be configured")
	}

	if c.Database.Type != "postgres" {
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}

	if c.TokenCipherKey != "" {
		key, err := base64.StdEncoding.DecodeString(c.TokenCipherKey)
		if err != nil || len(key) != 32 {
			return fmt.Errorf("TOKEN_CIPHER_KEY must be a base64-encoded 32-byte key")
		}
	}

	// Validate Twitter config if enabled
	if c.Twitter != nil && c.Twitter.Enabled {
		if c.Twitter.ConsumerKey == "" || c.Twitter.ConsumerSecret == "" {
			return fmt.Errorf("TWITTER_CONSUMER_KEY and TWITTER_CONSUMER_SECRET are required when Twitter is enabled")
		}
		if c.Twitter.CallbackURL == "" {
			return fmt.Errorf("Twitter callback URL could not be derived; set APP_URL or TWITTER_CALLBACK_URL")
		}
	}

	return nil
}

func loadJWTSecret(env string) string {
	secret := os.Getenv("JWT_SECRET")

	// If JWT_SECRET is not set, generate a random one for development
	if secret == "" {
		if env == "production" {
			log.Fatal("FATAL: JWT_SECRET environment variable is required in production")
		}

		// Generate random secret for development
		log.Println("WARNING: JWT_SECRET not set. Generating random secret for development.")
		log.Println("WARNING: This secret will change on restart. Set JWT_SECRET in production!")
		return generateRandomSecret()
	}

	// Validate secret length
	if len(secret) < 16 {
		log.Fatal("FATAL: JWT_SECRET must be at least 16 characters long")
	}

	return secret
}

func loadTokenCipherKey(env string) string {
	key := os.Getenv("TOKEN_CIPHER_KEY")
	if key == "" {
		if env == "production" {
			log.Fatal("FATAL: TOKEN_CIPHER_KEY environment variable is required in production")
		}
		log.Println("WARNING: TOKEN_CIPHER_KEY not set. Generating random key for development.")
		log.Println("WARNING: Stored Twitter credentials will be unreadable after restart.")
		return base64.StdEncoding.EncodeToString(randomBytes(32))
	}
	return key
}

func loadCORSOrigins(env string) []string {
	if appURL := getAppURL(); appURL != "" {
		return []string{appURL}
	}

	// Default origins based on environment
	if env == "development" {
		return []string{"http://localhost:3000", "http://localhost:8080"}
	}

	// In production, require explicit CORS configuration
	log.Println("WARNING: APP_URL not set. Using default localhost origins.")
	log.Println("WARNING: Set APP_URL environment variable for production deployments.")
	return []string{"http://localhost:3000", "http://localhost:8080"}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func generateRandomSecret() string {
	return base64.URLEncoding.EncodeToString(randomBytes(32))
}

func randomBytes(n int) []byte {
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		log.Fatal("Failed to generate random secret:", err)
	}
	return bytes
}

func getAppURL() string {
	appURL := os.Getenv("APP_URL")
	if appURL == "" {
		return ""
	}
	return strings.TrimRight(appURL, "/")
}

func loadTwitterConfig() *TwitterConfig {
	consumerKey := os.Getenv("TWITTER_CONSUMER_KEY")
	consumerSecret := os.Getenv("TWITTER_CONSUMER_SECRET")

	if consumerKey == "" || consumerSecret == "" {
		log.Println("WARNING: Twitter consumer credentials not set. Account linking will be disabled.")
		return &TwitterConfig{Enabled: false}
	}

	callbackURL := os.Getenv("TWITTER_CALLBACK_URL")
	if callbackURL == "" {
		if appURL := getAppURL(); appURL != "" {
			callbackURL = appURL + "/auth/twitter/callback"
		}
	}

	return &TwitterConfig{
		Enabled:        true,
		ConsumerKey:    consumerKey,
		ConsumerSecret: consumerSecret,
		CallbackURL:    callbackURL,
	}
}

func loadOpenAIConfig() *OpenAIConfig {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Println("WARNING: OPENAI_API_KEY not set. Content generation will be disabled.")
		return &OpenAIConfig{Enabled: false}
	}

	return &OpenAIConfig{
		Enabled: true,
		APIKey:  apiKey,
		Model:   getEnv("OPENAI_MODEL", "gpt-4"),
		BaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
	}
}
