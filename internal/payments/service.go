package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/YamirG/WEAREEXPORTERS/internal/ledger"
	"github.com/YamirG/WEAREEXPORTERS/internal/money"
	"github.com/YamirG/WEAREEXPORTERS/internal/notification"
)

// Service turns confirmed external payments into wallet credits. The credit
// is keyed on the processor reference, so a confirmation delivered more than
// once lands exactly one ledger entry.
type Service struct {
	ledger   *ledger.Service
	verifier Verifier
	notifier notification.Notifier
}

// NewService builds the payment confirmation service.
func NewService(ledgerSvc *ledger.Service, verifier Verifier, notifier notification.Notifier) *Service {
	if verifier == nil {
		verifier = StaticVerifier{}
	}
	return &Service{ledger: ledgerSvc, verifier: verifier, notifier: notifier}
}

// Result reports the ledger outcome of consuming a confirmation.
type Result struct {
	TransactionID string
	ExternalRef   string
	Amount        int64
	ProcessedAt   time.Time
}

// Confirm verifies the payment with the processor and credits the owner's
// wallet. Redelivery of the same reference returns the original transaction.
func (s *Service) Confirm(ctx context.Context, confirmation Confirmation) (Result, error) {
	if confirmation.OwnerID == "" {
		return Result{}, fmt.Errorf("owner id is required")
	}
	if confirmation.ExternalRef == "" {
		return Result{}, ledger.ErrMissingExternalRef
	}
	if confirmation.Amount <= 0 {
		return Result{}, ledger.ErrInvalidAmount
	}

	if err := s.verifier.Verify(ctx, confirmation); err != nil {
		return Result{}, err
	}

	tx, err := s.ledger.Credit(ctx, confirmation.OwnerID, confirmation.Amount, confirmation.ExternalRef, ledger.SourcePaymentProcessor)
	if err != nil {
		return Result{}, err
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindWalletCredited,
			Destination: confirmation.OwnerID,
			Body:        fmt.Sprintf("Your wallet was topped up with $%s", money.FormatUSD(tx.Amount)),
		})
	}

	return Result{
		TransactionID: tx.ID,
		ExternalRef:   confirmation.ExternalRef,
		Amount:        tx.Amount,
		ProcessedAt:   time.Now().UTC(),
	}, nil
}
