package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/YamirG/WEAREEXPORTERS/internal/campaign"
)

// RegisterCampaignRoutes wires campaign launch and listing endpoints. A
// launch debits the wallet, so it sits behind the replay guard and the
// per-owner rate limit.
func RegisterCampaignRoutes(r fiber.Router, h *campaign.Handler, replayGuard, launchLimiter fiber.Handler) {
	r.Post("/campaigns", replayGuard, launchLimiter, h.Create)
	r.Get("/wallets/:ownerId/campaigns", h.List)
}
