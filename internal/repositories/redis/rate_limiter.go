package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pawmart/pawmart-api/internal/config"
)

// NewClient connects to Redis using the configured DSN and verifies the
// connection before handing the client out.
func NewClient(cfg *config.Redis) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

// RateLimiter tracks login attempts per user in a Redis sorted set, scored by
// timestamp, so the window slides instead of resetting on a fixed boundary.
type RateLimiter struct {
	client *redis.Client
	cfg    *config.RateConfig
}

func NewRateLimiter(client *redis.Client, cfg *config.RateConfig) *RateLimiter {
	return &RateLimiter{client: client, cfg: cfg}
}

// CheckLoginRateLimit returns whether the attempt is allowed, how many
// attempts remain, and how long to wait when blocked.
func (r *RateLimiter) CheckLoginRateLimit(ctx context.Context, username string) (bool, int, int, error) {
	key := fmt.Sprintf("login_attempts:%s", username)

	now := time.Now().Unix()
	windowStart := now - int64(r.cfg.WindowSize.Seconds())

	pipe := r.client.Pipeline()

	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: now})
	count := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, r.cfg.WindowSize)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, 0, err
	}

	attempts := count.Val()
	remaining := r.cfg.MaxAttempts - attempts

	if attempts >= r.cfg.MaxAttempts {
		oldest, err := r.client.ZRange(ctx, key, 0, 0).Result()
		if err != nil || len(oldest) == 0 {
			return false, 0, 0, err
		}

		oldestTime, err := strconv.ParseInt(oldest[0], 10, 64)
		if err != nil {
			return false, 0, 0, err
		}

		retryAfter := int64(r.cfg.WindowSize.Seconds()) - (now - oldestTime)

		return false, 0, int(retryAfter), nil
	}

	return true, int(remaining), 0, nil
}
