package payments

import (
	"context"
	"errors"
)

// ErrUnverifiedPayment indicates the processor did not recognize the
// confirmation. Nothing is credited on this path.
var ErrUnverifiedPayment = errors.New("payment could not be verified")

// Confirmation is the processor-issued result of a completed checkout.
type Confirmation struct {
	ExternalRef string
	OwnerID     string
	Amount      int64
}

// Verifier checks a confirmation against the external payment processor
// before any funds are credited. Client-held state is never trusted on its
// own.
type Verifier interface {
	Verify(ctx context.Context, confirmation Confirmation) error
}

// StaticVerifier approves every well-formed confirmation. It stands in for a
// live processor lookup in development and tests.
type StaticVerifier struct{}

// Verify approves the confirmation when it carries a reference and a
// positive amount.
func (StaticVerifier) Verify(_ context.Context, confirmation Confirmation) error {
	if confirmation.ExternalRef == "" || confirmation.Amount <= 0 {
		return ErrUnverifiedPayment
	}
	return nil
}
