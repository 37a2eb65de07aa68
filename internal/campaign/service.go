package campaign

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/YamirG/WEAREEXPORTERS/internal/ledger"
	"github.com/YamirG/WEAREEXPORTERS/internal/money"
	"github.com/YamirG/WEAREEXPORTERS/internal/notification"
)

// DefaultCost is the fixed price of one prospecting campaign in USD cents.
const DefaultCost int64 = 5_000

// Service gates campaign creation behind a successful wallet debit. No debit,
// no campaign.
type Service struct {
	repo     Repository
	ledger   *ledger.Service
	notifier notification.Notifier
	cost     int64
}

// NewService builds the campaign service. A non-positive cost falls back to
// the default.
func NewService(repo Repository, ledgerSvc *ledger.Service, notifier notification.Notifier, cost int64) *Service {
	if cost <= 0 {
		cost = DefaultCost
	}
	return &Service{repo: repo, ledger: ledgerSvc, notifier: notifier, cost: cost}
}

// Cost returns the fixed campaign price in cents.
func (s *Service) Cost() int64 {
	return s.cost
}

// CreateInput captures the campaign details supplied by the subscriber.
type CreateInput struct {
	OwnerID      string
	Product      string
	TargetMarket string
}

// Create debits the fixed campaign cost and, only on success, writes the
// campaign record. On insufficient funds the rejection is surfaced and no
// campaign exists.
func (s *Service) Create(ctx context.Context, input CreateInput) (Campaign, error) {
	if strings.TrimSpace(input.OwnerID) == "" {
		return Campaign{}, fmt.Errorf("owner id is required")
	}
	if strings.TrimSpace(input.Product) == "" {
		return Campaign{}, fmt.Errorf("product is required")
	}

	tx, err := s.ledger.Debit(ctx, input.OwnerID, s.cost, ledger.SourceCampaignSpend)
	if err != nil {
		return Campaign{}, err
	}

	campaign := Campaign{
		ID:            uuid.NewString(),
		OwnerID:       input.OwnerID,
		Product:       input.Product,
		TargetMarket:  input.TargetMarket,
		Cost:          s.cost,
		TransactionID: tx.ID,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, campaign); err != nil {
		// The debit is already on the ledger; the record write failing is a
		// store fault the caller must see, not paper over.
		return Campaign{}, fmt.Errorf("store campaign: %w", err)
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindCampaignCreated,
			Destination: input.OwnerID,
			Body:        fmt.Sprintf("Campaign for %q created, $%s debited", input.Product, money.FormatUSD(s.cost)),
		})
	}

	return campaign, nil
}

// ListByOwner returns the owner's campaigns, newest first.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]Campaign, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}
