// Package wallet exposes the dashboard-facing HTTP surface of the ledger:
// balance, transaction history, and on-demand reconciliation.
package wallet

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/YamirG/WEAREEXPORTERS/internal/ledger"
	"github.com/YamirG/WEAREEXPORTERS/internal/money"
)

// Handler exposes wallet read endpoints.
type Handler struct {
	service *ledger.Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *ledger.Service) *Handler {
	return &Handler{service: service}
}

type transactionResponse struct {
	ID          string `json:"id"`
	AmountUSD   string `json:"amount_usd"`
	Kind        string `json:"kind"`
	Source      string `json:"source"`
	ExternalRef string `json:"external_ref,omitempty"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

// Balance returns the owner's current balance.
func (h *Handler) Balance(c *fiber.Ctx) error {
	ownerID := utils.CopyString(c.Params("ownerId"))
	balance, err := h.service.Balance(c.UserContext(), ownerID)
	if err != nil {
		return storeStatus(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"owner_id":    ownerID,
		"balance_usd": money.FormatUSD(balance),
		"timestamp":   time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// Transactions returns the owner's ledger entries, newest first.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	ownerID := utils.CopyString(c.Params("ownerId"))
	txs, err := h.service.Transactions(c.UserContext(), ownerID)
	if err != nil {
		return storeStatus(err)
	}
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, transactionResponse{
			ID:          tx.ID,
			AmountUSD:   money.FormatUSD(tx.Amount),
			Kind:        tx.Kind,
			Source:      tx.Source,
			ExternalRef: tx.ExternalRef,
			Status:      tx.Status,
			CreatedAt:   tx.CreatedAt.Format(time.RFC3339),
		})
	}
	return c.Status(http.StatusOK).JSON(out)
}

// Reconcile recomputes the balance from the transaction log and compares it
// against the materialized value. A mismatch is reported as a 500; it means
// the ledger invariant broke and requires investigation, not repair.
func (h *Handler) Reconcile(c *fiber.Ctx) error {
	ownerID := utils.CopyString(c.Params("ownerId"))
	report, err := h.service.Reconcile(c.UserContext(), ownerID)
	if err != nil {
		if errors.Is(err, ledger.ErrLedgerCorrupt) {
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
				"owner_id":         report.OwnerID,
				"consistent":       false,
				"materialized_usd": money.FormatUSD(report.Materialized),
				"recomputed_usd":   money.FormatUSD(report.Recomputed),
				"transactions":     report.Transactions,
			})
		}
		return storeStatus(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"owner_id":         report.OwnerID,
		"consistent":       true,
		"materialized_usd": money.FormatUSD(report.Materialized),
		"recomputed_usd":   money.FormatUSD(report.Recomputed),
		"transactions":     report.Transactions,
	})
}

func storeStatus(err error) error {
	if errors.Is(err, ledger.ErrStoreUnavailable) {
		return fiber.NewError(http.StatusServiceUnavailable, "wallet service is temporarily unavailable")
	}
	return fiber.NewError(http.StatusInternalServerError, err.Error())
}
