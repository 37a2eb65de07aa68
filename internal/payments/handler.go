package payments

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/YamirG/WEAREEXPORTERS/internal/ledger"
	"github.com/YamirG/WEAREEXPORTERS/internal/money"
)

// Handler exposes the payment confirmation webhook.
type Handler struct {
	service *Service
}

// NewHandler constructs a payments handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Confirm consumes a payment confirmation. First deliveries and redeliveries
// both answer 200; a redelivery carries the original transaction.
func (h *Handler) Confirm(c *fiber.Ctx) error {
	var req ConfirmationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	amount, err := money.ParseUSD(req.AmountUSD)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.Confirm(c.UserContext(), Confirmation{
		ExternalRef: req.ExternalRef,
		OwnerID:     req.OwnerID,
		Amount:      amount,
	})
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrMissingExternalRef), errors.Is(err, ErrUnverifiedPayment):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ledger.ErrBusy):
			return fiber.NewError(http.StatusConflict, "wallet busy, retry the confirmation")
		case errors.Is(err, ledger.ErrStoreUnavailable):
			return fiber.NewError(http.StatusServiceUnavailable, "wallet service is temporarily unavailable, the payment was not credited")
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	// Processors retry until they see success, and a replayed reference is a
	// success: the original credit is returned unchanged.
	return c.Status(http.StatusOK).JSON(ConfirmationResponse{
		TransactionID: result.TransactionID,
		ExternalRef:   result.ExternalRef,
		AmountUSD:     money.FormatUSD(result.Amount),
	})
}
