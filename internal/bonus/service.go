// Package bonus grants the recurring subscription bonus. A bonus is just
// another credit through the idempotent ledger path: its external reference
// is derived from the owner and the period, so granting the same period twice
// is a no-op.
package bonus

import (
	"context"
	"fmt"
	"time"

	"github.com/YamirG/WEAREEXPORTERS/internal/ledger"
	"github.com/YamirG/WEAREEXPORTERS/internal/money"
	"github.com/YamirG/WEAREEXPORTERS/internal/notification"
)

// DefaultAmount is the subscription bonus in USD cents.
const DefaultAmount int64 = 5_000

// Service credits the periodic subscriber bonus.
type Service struct {
	ledger   *ledger.Service
	notifier notification.Notifier
	amount   int64
}

// NewService builds the bonus service. A non-positive amount falls back to
// the default.
func NewService(ledgerSvc *ledger.Service, notifier notification.Notifier, amount int64) *Service {
	if amount <= 0 {
		amount = DefaultAmount
	}
	return &Service{ledger: ledgerSvc, notifier: notifier, amount: amount}
}

// Period formats the bonus period for a point in time (one grant per month).
func Period(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// Ref builds the idempotency reference for an owner and period.
func Ref(ownerID, period string) string {
	return fmt.Sprintf("bonus-%s-%s", period, ownerID)
}

// Grant credits the bonus for the given period. Repeat grants for the same
// owner and period return the original transaction unchanged.
func (s *Service) Grant(ctx context.Context, ownerID, period string) (ledger.Transaction, error) {
	if ownerID == "" {
		return ledger.Transaction{}, fmt.Errorf("owner id is required")
	}
	if period == "" {
		period = Period(time.Now())
	}

	tx, err := s.ledger.Credit(ctx, ownerID, s.amount, Ref(ownerID, period), ledger.SourceBonus)
	if err != nil {
		return ledger.Transaction{}, err
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindBonusGranted,
			Destination: ownerID,
			Body:        fmt.Sprintf("Subscription bonus of $%s credited for %s", money.FormatUSD(tx.Amount), period),
		})
	}

	return tx, nil
}
