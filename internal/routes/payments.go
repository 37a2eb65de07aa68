package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/YamirG/WEAREEXPORTERS/internal/payments"
)

// RegisterPaymentRoutes wires the payment confirmation webhook. The replay
// guard keys on the processor's external_ref, so deliveries work without an
// Idempotency-Key header.
func RegisterPaymentRoutes(r fiber.Router, h *payments.Handler, webhookGuard fiber.Handler) {
	r.Post("/payments/confirmations", webhookGuard, h.Confirm)
}
