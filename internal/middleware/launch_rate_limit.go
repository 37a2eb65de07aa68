package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// LaunchRateLimit caps campaign launches per owner per minute using Redis if
// available. The wallet debit is the real gate; this only stops accidental
// rapid-fire submissions from burning balance.
func LaunchRateLimit(cache *redis.Client, maxPerMin int) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 3
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next() // no-op without Redis
		}
		var req struct {
			OwnerID string `json:"owner_id"`
		}
		_ = c.BodyParser(&req)
		owner := strings.TrimSpace(req.OwnerID)
		if owner == "" {
			owner = c.IP()
		}
		key := "rl:launch:" + owner
		cnt, err := cache.Incr(c.UserContext(), key).Result()
		if err == nil && cnt == 1 {
			cache.Expire(c.UserContext(), key, time.Minute)
		}
		if err != nil {
			return c.Next() // fail-open on cache errors
		}
		if cnt > int64(maxPerMin) {
			return fiber.NewError(http.StatusTooManyRequests, "too many campaign launches, try again in a minute")
		}
		return c.Next()
	}
}
