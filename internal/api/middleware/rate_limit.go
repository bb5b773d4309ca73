package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/foodnetwork-backend/internal/config"
	"github.com/princeprakhar/foodnetwork-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// NewRateLimitStore shares counters through redis when REDIS_URL is set so
// that every replica enforces the same budget. Otherwise counters live in
// process memory.
func NewRateLimitStore(ctx context.Context, cfg *config.Config) (limiter.Store, error) {
	if cfg.RedisURL == "" {
		return memory.NewStore(), nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix:   "foodnetwork:ratelimit",
		MaxRetry: 3,
	})
	if err != nil {
		return nil, fmt.Errorf("create redis limiter store: %w", err)
	}
	logger.Info("Rate limiter using redis store")
	return store, nil
}

// RateLimitMiddleware budgets each client per route template, so /reviews/1
// and /reviews/2 draw from the same counter.
func RateLimitMiddleware(cfg *config.Config, store limiter.Store) gin.HandlerFunc {
	rate := limiter.Rate{
		Period: time.Second,
		Limit:  int64(cfg.RateLimitRPS),
	}

	instance := limiter.New(store, rate, limiter.WithTrustForwardHeader(true))

	return mgin.NewMiddleware(instance, mgin.WithKeyGetter(func(c *gin.Context) string {
		return fmt.Sprintf("%s:%s", c.ClientIP(), c.FullPath())
	}))
}
