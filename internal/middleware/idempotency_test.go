package middleware

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/YamirG/WEAREEXPORTERS/internal/logging"
)

func setupTestApp(t *testing.T, keyFn KeyFunc) (*fiber.App, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	app := fiber.New()
	app.Use(Idempotency(cache, time.Minute, logging.Discard(), keyFn))

	calls := 0
	app.Post("/confirmations", func(c *fiber.Ctx) error {
		calls++
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"calls": calls})
	})

	cleanup := func() {
		cache.Close()
		mr.Close()
	}

	return app, cleanup
}

func postJSON(t *testing.T, app *fiber.App, body string, headers map[string]string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/confirmations", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, payload
}

func handlerCalls(t *testing.T, payload []byte) int {
	t.Helper()
	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("invalid json %q: %v", payload, err)
	}
	calls, ok := decoded["calls"].(float64)
	if !ok {
		t.Fatalf("payload has no call count: %q", payload)
	}
	return int(calls)
}

func TestIdempotencyHeaderKeyRequiresHeader(t *testing.T) {
	app, cleanup := setupTestApp(t, HeaderKey)
	defer cleanup()

	status, _ := postJSON(t, app, "{}", nil)
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected %d got %d", fiber.StatusBadRequest, status)
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	app, cleanup := setupTestApp(t, HeaderKey)
	defer cleanup()

	headers := map[string]string{idempotencyKeyHeader: "dash-42"}
	_, payload := postJSON(t, app, "{}", headers)

	// The retry must replay the stored response without reaching the handler.
	_, cached := postJSON(t, app, "{}", headers)
	if string(cached) != string(payload) {
		t.Fatalf("expected replayed payload %s got %s", string(payload), string(cached))
	}
	if calls := handlerCalls(t, cached); calls != 1 {
		t.Fatalf("handler must run exactly once, got %d", calls)
	}
}

func TestIdempotencyDistinctKeysReachHandler(t *testing.T) {
	app, cleanup := setupTestApp(t, HeaderKey)
	defer cleanup()

	for i, key := range []string{"k1", "k2"} {
		_, payload := postJSON(t, app, "{}", map[string]string{idempotencyKeyHeader: key})
		if calls := handlerCalls(t, payload); calls != i+1 {
			t.Fatalf("expected call count %d, got %d", i+1, calls)
		}
	}
}

func TestIdempotencyWebhookKeyFallsBackToBodyRef(t *testing.T) {
	app, cleanup := setupTestApp(t, WebhookKey("external_ref"))
	defer cleanup()

	body := `{"external_ref":"pp-7","owner_id":"owner-1","amount_usd":"25.00"}`

	// No Idempotency-Key header on either delivery; the processor reference
	// carries the replay key.
	status, payload := postJSON(t, app, body, nil)
	if status != fiber.StatusOK {
		t.Fatalf("first delivery: expected %d got %d", fiber.StatusOK, status)
	}

	status, cached := postJSON(t, app, body, nil)
	if status != fiber.StatusOK {
		t.Fatalf("redelivery: expected %d got %d", fiber.StatusOK, status)
	}
	if string(cached) != string(payload) {
		t.Fatalf("expected replayed payload %s got %s", string(payload), string(cached))
	}
	if calls := handlerCalls(t, cached); calls != 1 {
		t.Fatalf("handler must run exactly once, got %d", calls)
	}
}

func TestIdempotencyWebhookKeyHeaderWins(t *testing.T) {
	app, cleanup := setupTestApp(t, WebhookKey("external_ref"))
	defer cleanup()

	body := `{"external_ref":"pp-8"}`
	_, payload := postJSON(t, app, body, map[string]string{idempotencyKeyHeader: "client-1"})
	if calls := handlerCalls(t, payload); calls != 1 {
		t.Fatalf("expected call count 1, got %d", calls)
	}

	// A different header key is a different request even with the same body.
	_, payload = postJSON(t, app, body, map[string]string{idempotencyKeyHeader: "client-2"})
	if calls := handlerCalls(t, payload); calls != 2 {
		t.Fatalf("expected call count 2, got %d", calls)
	}
}

func TestIdempotencyNilCachePassesThrough(t *testing.T) {
	app := fiber.New()
	app.Use(Idempotency(nil, time.Minute, logging.Discard(), HeaderKey))

	calls := 0
	app.Post("/confirmations", func(c *fiber.Ctx) error {
		calls++
		return c.SendStatus(fiber.StatusOK)
	})

	for i := 0; i < 2; i++ {
		status, _ := postJSON(t, app, "{}", nil)
		if status != fiber.StatusOK {
			t.Fatalf("expected %d got %d", fiber.StatusOK, status)
		}
	}
	if calls != 2 {
		t.Fatalf("expected handler to run twice without a cache, got %d", calls)
	}
}
