package campaign

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/YamirG/WEAREEXPORTERS/internal/ledger"
	"github.com/YamirG/WEAREEXPORTERS/internal/money"
)

// Handler exposes campaign HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a campaign HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	OwnerID      string `json:"owner_id"`
	Product      string `json:"product"`
	TargetMarket string `json:"target_market"`
}

type campaignResponse struct {
	ID            string `json:"id"`
	OwnerID       string `json:"owner_id"`
	Product       string `json:"product"`
	TargetMarket  string `json:"target_market"`
	CostUSD       string `json:"cost_usd"`
	TransactionID string `json:"transaction_id"`
	CreatedAt     string `json:"created_at"`
}

// Create launches a prospecting campaign after debiting the fixed cost.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	campaign, err := h.service.Create(c.UserContext(), CreateInput{
		OwnerID:      req.OwnerID,
		Product:      req.Product,
		TargetMarket: req.TargetMarket,
	})
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInsufficientFunds):
			return fiber.NewError(http.StatusPaymentRequired,
				"insufficient wallet balance: top up $"+money.FormatUSD(h.service.Cost())+" to launch a campaign")
		case errors.Is(err, ledger.ErrBusy):
			return fiber.NewError(http.StatusConflict, "wallet busy, retry the launch")
		case errors.Is(err, ledger.ErrStoreUnavailable):
			return fiber.NewError(http.StatusServiceUnavailable, "wallet service is temporarily unavailable, no funds were taken")
		default:
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}

	return c.Status(http.StatusCreated).JSON(toResponse(campaign))
}

// List returns the owner's campaigns.
func (h *Handler) List(c *fiber.Ctx) error {
	ownerID := utils.CopyString(c.Params("ownerId"))
	campaigns, err := h.service.ListByOwner(c.UserContext(), ownerID)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]campaignResponse, 0, len(campaigns))
	for _, campaign := range campaigns {
		out = append(out, toResponse(campaign))
	}
	return c.Status(http.StatusOK).JSON(out)
}

func toResponse(campaign Campaign) campaignResponse {
	return campaignResponse{
		ID:            campaign.ID,
		OwnerID:       campaign.OwnerID,
		Product:       campaign.Product,
		TargetMarket:  campaign.TargetMarket,
		CostUSD:       money.FormatUSD(campaign.Cost),
		TransactionID: campaign.TransactionID,
		CreatedAt:     campaign.CreatedAt.Format(time.RFC3339),
	}
}
