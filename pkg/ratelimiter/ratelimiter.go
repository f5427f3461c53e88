package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"anoa.com/devconnector/pkg/apperror"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RateLimitError is returned when an action is still cooling down.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return e.Message
}

func (e *RateLimitError) Unwrap() error {
	return apperror.ErrRateLimitExceeded
}

func key(userID uuid.UUID, action string) string {
	return fmt.Sprintf("rate_limit:user:%s:%s", userID.String(), action)
}

// CheckAndSetRateLimit reports whether the user may perform action now and,
// if so, starts a cooldown of limit. A nil client allows everything.
func CheckAndSetRateLimit(ctx context.Context, rdb *redis.Client, userID uuid.UUID, action string, limit time.Duration) (bool, error) {
	if rdb == nil || limit <= 0 {
		return true, nil
	}

	wasSet, err := rdb.SetNX(ctx, key(userID, action), "locked", limit).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit in redis: %w", err)
	}

	return wasSet, nil
}

func GetRateLimitTTL(ctx context.Context, rdb *redis.Client, userID uuid.UUID, action string) (time.Duration, error) {
	if rdb == nil {
		return 0, nil
	}
	return rdb.TTL(ctx, key(userID, action)).Result()
}

func ClearRateLimit(ctx context.Context, rdb *redis.Client, userID uuid.UUID, action string) error {
	if rdb == nil {
		return nil
	}
	_, err := rdb.Del(ctx, key(userID, action)).Result()
	return err
}

// Acquire combines the check with building the client-facing error.
func Acquire(ctx context.Context, rdb *redis.Client, userID uuid.UUID, action string, limit time.Duration) error {
	allowed, err := CheckAndSetRateLimit(ctx, rdb, userID, action, limit)
	if err != nil {
		return err
	}
	if allowed {
		return nil
	}

	ttl, _ := GetRateLimitTTL(ctx, rdb, userID, action)
	if ttl < time.Second {
		ttl = time.Second
	}
	return &RateLimitError{
		Message:    fmt.Sprintf("You are doing that too fast. Please wait %.0f seconds", ttl.Seconds()),
		RetryAfter: ttl,
	}
}
