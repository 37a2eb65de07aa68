package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YamirG/WEAREEXPORTERS/internal/ledger"
	"github.com/YamirG/WEAREEXPORTERS/internal/logging"
	"github.com/YamirG/WEAREEXPORTERS/internal/notification"
)

type rejectingVerifier struct{}

func (rejectingVerifier) Verify(context.Context, Confirmation) error {
	return ErrUnverifiedPayment
}

func newTestService(verifier Verifier) (*Service, *ledger.Service) {
	ledgerSvc := ledger.NewService(ledger.NewMemoryStore())
	notifier := notification.NewLoggerNotifier(logging.Discard())
	return NewService(ledgerSvc, verifier, notifier), ledgerSvc
}

func TestConfirmCreditsWallet(t *testing.T) {
	svc, ledgerSvc := newTestService(nil)
	ctx := context.Background()

	result, err := svc.Confirm(ctx, Confirmation{ExternalRef: "pp-1", OwnerID: "owner-1", Amount: 10_000})
	require.NoError(t, err)
	assert.NotEmpty(t, result.TransactionID)
	assert.Equal(t, int64(10_000), result.Amount)

	balance, err := ledgerSvc.Balance(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, int64(10_000), balance)
}

func TestConfirmRedeliveryDoesNotDoubleCredit(t *testing.T) {
	svc, ledgerSvc := newTestService(nil)
	ctx := context.Background()

	confirmation := Confirmation{ExternalRef: "pp-1", OwnerID: "owner-1", Amount: 10_000}

	first, err := svc.Confirm(ctx, confirmation)
	require.NoError(t, err)

	second, err := svc.Confirm(ctx, confirmation)
	require.NoError(t, err)
	assert.Equal(t, first.TransactionID, second.TransactionID)

	balance, err := ledgerSvc.Balance(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, int64(10_000), balance, "redelivered confirmation must credit exactly once")
}

func TestConfirmValidation(t *testing.T) {
	svc, ledgerSvc := newTestService(nil)
	ctx := context.Background()

	tests := []struct {
		name         string
		confirmation Confirmation
		wantErr      error
	}{
		{name: "missing ref", confirmation: Confirmation{OwnerID: "owner-1", Amount: 100}, wantErr: ledger.ErrMissingExternalRef},
		{name: "zero amount", confirmation: Confirmation{ExternalRef: "pp-1", OwnerID: "owner-1"}, wantErr: ledger.ErrInvalidAmount},
		{name: "negative amount", confirmation: Confirmation{ExternalRef: "pp-1", OwnerID: "owner-1", Amount: -5}, wantErr: ledger.ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Confirm(ctx, tt.confirmation)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	balance, err := ledgerSvc.Balance(ctx, "owner-1")
	require.NoError(t, err)
	assert.Zero(t, balance, "failed confirmations must not credit")
}

func TestConfirmUnverifiedPaymentIsNotCredited(t *testing.T) {
	svc, ledgerSvc := newTestService(rejectingVerifier{})
	ctx := context.Background()

	_, err := svc.Confirm(ctx, Confirmation{ExternalRef: "pp-1", OwnerID: "owner-1", Amount: 10_000})
	require.True(t, errors.Is(err, ErrUnverifiedPayment))

	balance, err := ledgerSvc.Balance(ctx, "owner-1")
	require.NoError(t, err)
	assert.Zero(t, balance)
}
