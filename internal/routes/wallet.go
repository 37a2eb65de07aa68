package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/YamirG/WEAREEXPORTERS/internal/bonus"
	"github.com/YamirG/WEAREEXPORTERS/internal/wallet"
)

// RegisterWalletRoutes wires the dashboard wallet endpoints and the
// subscription bonus grant. The grant needs no replay guard: its external
// reference is derived from the owner and period, so the ledger already
// makes it idempotent.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler, bh *bonus.Handler) {
	r.Get("/wallets/:ownerId/balance", h.Balance)
	r.Get("/wallets/:ownerId/transactions", h.Transactions)
	r.Get("/wallets/:ownerId/reconcile", h.Reconcile)
	r.Post("/wallets/:ownerId/bonus", bh.Grant)
}
