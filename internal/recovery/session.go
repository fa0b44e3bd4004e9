package recovery

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSessionStore keeps reset authorization markers in Redis with a TTL.
type RedisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{
		client: client,
	}
}

func (s *RedisSessionStore) Authorize(ctx context.Context, email string, ttl time.Duration) error {
	err := s.client.Set(ctx, sessionKey(email), "1", ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to store reset authorization: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) IsAuthorized(ctx context.Context, email string) (bool, error) {
	exists, err := s.client.Exists(ctx, sessionKey(email)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check reset authorization: %w", err)
	}
	return exists > 0, nil
}

func (s *RedisSessionStore) Clear(ctx context.Context, email string) error {
	err := s.client.Del(ctx, sessionKey(email)).Err()
	if err != nil {
		return fmt.Errorf("failed to clear reset authorization: %w", err)
	}
	return nil
}

// sessionKey hashes the email so addresses don't appear in Redis keys.
func sessionKey(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf("password_reset_session:%s", hex.EncodeToString(sum[:]))
}
