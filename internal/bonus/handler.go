package bonus

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/YamirG/WEAREEXPORTERS/internal/ledger"
	"github.com/YamirG/WEAREEXPORTERS/internal/money"
)

// Handler exposes the subscription bonus grant endpoint.
type Handler struct {
	service *Service
}

// NewHandler constructs a bonus handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type grantRequest struct {
	Period string `json:"period"`
}

// Grant credits the bonus for the owner. An omitted period defaults to the
// current month; regranting a period returns the original transaction.
func (h *Handler) Grant(c *fiber.Ctx) error {
	var req grantRequest
	_ = c.BodyParser(&req)

	tx, err := h.service.Grant(c.UserContext(), utils.CopyString(c.Params("ownerId")), req.Period)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrBusy):
			return fiber.NewError(http.StatusConflict, "wallet busy, retry the grant")
		case errors.Is(err, ledger.ErrStoreUnavailable):
			return fiber.NewError(http.StatusServiceUnavailable, "wallet service is temporarily unavailable")
		default:
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"transaction_id": tx.ID,
		"external_ref":   tx.ExternalRef,
		"amount_usd":     money.FormatUSD(tx.Amount),
	})
}
