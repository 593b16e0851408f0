package oauth

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/autoreach/autoreach/internal/config"
)

const pendingKeyPrefix = "oauth:pending:"

// RedisStore keeps pending requests in Redis with the TTL enforced by
// the server. GETDEL makes consume atomic without a transaction.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed pending store
func NewRedisStore(cfg config.RedisConfig) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

// Put stores the secret for a request token with the pending TTL
func (s *RedisStore) Put(ctx context.Context, userID int, requestToken, secret string) error {
	if err := s.client.Set(ctx, pendingKeyPrefix+requestToken, secret, PendingTTL).Err(); err != nil {
		return fmt.Errorf("failed to store pending request: %w", err)
	}
	return nil
}

// Consume returns the stored secret and deletes it in one round trip
func (s *RedisStore) Consume(ctx context.Context, requestToken string) (string, error) {
	secret, err := s.client.GetDel(ctx, pendingKeyPrefix+requestToken).Result()
	if err == redis.Nil {
		return "", ErrSecretExpired
	}
	if err != nil {
		return "", fmt.Errorf("failed to consume pending request: %w", err)
	}
	return secret, nil
}

// Ping verifies the Redis connection at startup
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
