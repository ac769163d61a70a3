package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/sportsconnect/messaging/internal/auth"
)

const localUserID = "user_id"

// BearerAuth resolves the acting user from the Authorization header and
// stashes it in the request locals. Missing or invalid tokens get a 401.
func BearerAuth(v *auth.Validator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		hdr := c.Get("Authorization")
		if hdr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Not authorized"})
		}
		parts := strings.SplitN(hdr, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Not authorized"})
		}
		userID, err := v.Validate(parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Not authorized"})
		}
		c.Locals(localUserID, userID)
		return c.Next()
	}
}

func actingUser(c *fiber.Ctx) string {
	if v, ok := c.Locals(localUserID).(string); ok {
		return v
	}
	return ""
}

// RateLimiter is a fixed-window per-user limiter on Redis INCR.
type RateLimiter struct {
	redis  *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewRateLimiter(r *redis.Client, prefix string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{redis: r, prefix: prefix, limit: limit, window: window}
}

func (r *RateLimiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := fmt.Sprintf("%s:%s", r.prefix, actingUser(c))
		ctx := context.Background()
		count, err := r.redis.Incr(ctx, key).Result()
		if err != nil {
			// limiter outage must not take requests down with it
			return c.Next()
		}
		if count == 1 {
			r.redis.Expire(ctx, key, r.window)
		}
		if count > int64(r.limit) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"message": "Rate limit exceeded"})
		}
		return c.Next()
	}
}
