package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sinar-app/sinar-api/internal/response"
)

// RateLimiter provides rate limiting functionality using Redis
type RateLimiter struct {
	redis *redis.Client
}

// NewRedisClient parses redisURL and checks the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{redis: client}
}

// RateLimitByIP allows maxRequests per window for each client IP across
// the whole API. Redis failures let the request through.
func (rl *RateLimiter) RateLimitByIP(maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "rate_limit:ip:" + c.ClientIP()
		ctx := c.Request.Context()

		count, err := rl.redis.Incr(ctx, key).Result()
		if err != nil {
			log.Printf("rate limiter error: %v", err)
			c.Next()
			return
		}

		// Set expiry on first request
		if count == 1 {
			if err := rl.redis.Expire(ctx, key, window).Err(); err != nil {
				log.Printf("rate limiter expire error: %v", err)
			}
		}

		if count > int64(maxRequests) {
			ttl, err := rl.redis.TTL(ctx, key).Result()
			if err != nil || ttl < 0 {
				ttl = window
			}

			c.Header("Retry-After", strconv.Itoa(int(ttl.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.Envelope{
				Status:  false,
				Code:    http.StatusTooManyRequests,
				Message: "Too many requests. Please try again later.",
			})
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(maxRequests-int(count)))

		c.Next()
	}
}

// Close closes the Redis connection
func (rl *RateLimiter) Close() error {
	return rl.redis.Close()
}
