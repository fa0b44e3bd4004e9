package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Fixed window per IP: 10 requests per 15 minutes.
	ipWindowLimit    = 10
	ipWindowDuration = 15 * time.Minute

	// Per-email cooldown between code/reset requests.
	emailCooldown = 2 * time.Minute
)

// Limiter implements fixed-window rate limiting and per-email cooldowns in
// Redis. All failures are reported to the caller, who decides whether to
// fail open.
type Limiter struct {
	client *redis.Client
}

func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{client: client}
}

func ipKey(ip, purpose string) string {
	return fmt.Sprintf("ratelimit:ip:%s:%s", purpose, ip)
}

func emailKey(email string) string {
	// Hash the email so addresses never appear in Redis keys.
	sum := sha256.Sum256([]byte(strings.ToLower(email)))
	return fmt.Sprintf("ratelimit:email:%s", hex.EncodeToString(sum[:]))
}

// CheckIPRateLimitWithPurpose reports whether the IP has exhausted its window
// for the given purpose.
func (l *Limiter) CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error) {
	count, err := l.client.Get(ctx, ipKey(ip, purpose)).Int()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}

	return count >= ipWindowLimit, nil
}

// RecordIPRequestWithPurpose counts one request against the IP's window.
func (l *Limiter) RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error {
	key := ipKey(ip, purpose)

	pipe := l.client.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ipWindowDuration)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record request: %w", err)
	}

	return nil
}

// CheckIPRateLimit reports whether the IP has exhausted the default window.
func (l *Limiter) CheckIPRateLimit(ctx context.Context, ip string) (bool, error) {
	return l.CheckIPRateLimitWithPurpose(ctx, ip, "default")
}

// RecordIPRequest counts one request against the default window.
func (l *Limiter) RecordIPRequest(ctx context.Context, ip string) error {
	return l.RecordIPRequestWithPurpose(ctx, ip, "default")
}

// CheckEmailCooldown reports whether the email is still cooling down.
func (l *Limiter) CheckEmailCooldown(ctx context.Context, email string) (bool, error) {
	exists, err := l.client.Exists(ctx, emailKey(email)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check email cooldown: %w", err)
	}

	return exists > 0, nil
}

// SetEmailCooldown starts the cooldown for an email.
func (l *Limiter) SetEmailCooldown(ctx context.Context, email string) error {
	if err := l.client.Set(ctx, emailKey(email), "1", emailCooldown).Err(); err != nil {
		return fmt.Errorf("failed to set email cooldown: %w", err)
	}

	return nil
}
