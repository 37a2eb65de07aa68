package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	idempotencyPrefix    = "idempotency:v1:"
	inProgressMarker     = "__in_progress__"
)

type storedResponse struct {
	Status  int               `json:"status"`
	Body    string            `json:"body"`
	Headers map[string]string `json:"headers"`
}

// KeyFunc derives the replay key for a request. An empty key with a nil
// error lets the request through without replay protection.
type KeyFunc func(c *fiber.Ctx) (string, error)

// HeaderKey requires the Idempotency-Key header. Dashboard clients send a
// fresh key per mutation so a blind retry replays the stored response.
func HeaderKey(c *fiber.Ctx) (string, error) {
	key := c.Get(idempotencyKeyHeader)
	if key == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "missing Idempotency-Key header")
	}
	return key, nil
}

// WebhookKey uses the Idempotency-Key header when present and otherwise
// falls back to the named field of the JSON body. External processors do not
// send the header; their payment reference is the natural replay key, and
// the ledger enforces it again underneath.
func WebhookKey(field string) KeyFunc {
	return func(c *fiber.Ctx) (string, error) {
		if key := c.Get(idempotencyKeyHeader); key != "" {
			return key, nil
		}
		var body map[string]any
		if err := json.Unmarshal(c.Body(), &body); err != nil {
			return "", nil // malformed bodies are the handler's problem
		}
		key, _ := body[field].(string)
		return key, nil
	}
}

// Idempotency replays stored responses for a mutating route, keyed by keyFn
// and persisted in Redis. It absorbs blind retries in front of the ledger's
// own externalRef idempotency, which guarantees correctness even when Redis
// is cold. A nil cache disables the guard, which is a development
// convenience only.
func Idempotency(cache *redis.Client, ttl time.Duration, logger *slog.Logger, keyFn KeyFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next()
		}

		key, err := keyFn(c)
		if err != nil {
			return err
		}
		if key == "" {
			return c.Next()
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		// Scoped per route so a processor reference and a dashboard key can
		// never collide across endpoints.
		cacheKey := idempotencyPrefix + c.Method() + ":" + c.Path() + ":" + key

		cached, err := cache.Get(ctx, cacheKey).Result()
		if err == nil {
			if cached == inProgressMarker {
				return fiber.NewError(fiber.StatusConflict, "duplicate request currently processing")
			}

			var stored storedResponse
			if err := json.Unmarshal([]byte(cached), &stored); err != nil {
				logger.Warn("failed to decode stored idempotent response", slog.String("key", key), slog.Any("error", err))
				return fiber.NewError(fiber.StatusConflict, "duplicate request")
			}

			for header, value := range stored.Headers {
				if strings.EqualFold(header, fiber.HeaderContentLength) {
					continue
				}
				c.Set(header, value)
			}
			return c.Status(stored.Status).SendString(stored.Body)
		}

		if err != redis.Nil {
			logger.Error("idempotency lookup failed", slog.String("key", key), slog.Any("error", err))
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency store failure")
		}

		if err := cache.SetNX(ctx, cacheKey, inProgressMarker, ttl).Err(); err != nil {
			logger.Error("idempotency reservation failed", slog.String("key", key), slog.Any("error", err))
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency reservation failure")
		}

		if err := c.Next(); err != nil {
			cleanupCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			cache.Del(cleanupCtx, cacheKey) // best effort cleanup
			return err
		}

		stored := storedResponse{
			Status:  c.Response().StatusCode(),
			Body:    string(c.Response().Body()),
			Headers: map[string]string{},
		}

		c.Response().Header.VisitAll(func(k, v []byte) {
			stored.Headers[string(k)] = string(v)
		})

		payload, err := json.Marshal(stored)
		if err != nil {
			logger.Error("failed to encode idempotent response", slog.String("key", key), slog.Any("error", err))
			cleanupCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			cache.Del(cleanupCtx, cacheKey)
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency persistence failure")
		}

		persistCtx, persistCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer persistCancel()

		if err := cache.Set(persistCtx, cacheKey, payload, ttl).Err(); err != nil {
			logger.Error("failed to persist idempotent response", slog.String("key", key), slog.Any("error", err))
			cache.Del(persistCtx, cacheKey)
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency persistence failure")
		}

		return nil
	}
}
