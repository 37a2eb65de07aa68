package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidAmount occurs when a caller submits a zero or negative amount.
	// Nothing is written on this path.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInsufficientFunds occurs when a debit would drive the wallet balance
	// below zero. The wallet is unchanged; a rejected transaction is recorded
	// for audit.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrMissingExternalRef indicates a payment-processor credit arrived
	// without the processor-issued reference required for idempotency.
	ErrMissingExternalRef = errors.New("external reference is required")

	// ErrBusy indicates the optimistic write path lost the race to another
	// writer on every attempt. The wallet is unchanged and the whole
	// operation is safe to retry.
	ErrBusy = errors.New("wallet busy")

	// ErrStoreUnavailable signals a persistence failure. The ledger fails
	// closed: no partial state is ever left behind.
	ErrStoreUnavailable = errors.New("wallet store unavailable")

	// ErrVersionConflict is returned by stores when the wallet version moved
	// between read and write. Consumed internally by the service retry loop.
	ErrVersionConflict = errors.New("wallet version conflict")

	// ErrDuplicateExternalRef is returned by stores when a completed credit
	// with the same external reference already exists for the wallet. The
	// service resolves it to the existing transaction.
	ErrDuplicateExternalRef = errors.New("duplicate external reference")

	// ErrLedgerCorrupt indicates the materialized balance diverged from the
	// transaction log. This is a fatal consistency violation and is never
	// repaired silently.
	ErrLedgerCorrupt = errors.New("ledger corrupt: balance diverges from transaction log")
)

const (
	// KindCredit marks a transaction that increases the wallet balance.
	KindCredit = "credit"
	// KindDebit marks a transaction that decreases the wallet balance.
	KindDebit = "debit"

	// StatusCompleted marks a transaction that was applied to the balance.
	StatusCompleted = "completed"
	// StatusRejected marks a debit refused for insufficient funds, kept for audit.
	StatusRejected = "rejected"

	// SourcePaymentProcessor tags credits originating from confirmed external
	// payments. These require a unique external reference.
	SourcePaymentProcessor = "payment-processor"
	// SourceCampaignSpend tags debits charged for prospecting campaigns.
	SourceCampaignSpend = "campaign-spend"
	// SourceBonus tags subscription bonus credits.
	SourceBonus = "bonus"
)

// Wallet is the materialized balance for one owner. Amounts are USD cents.
// Version increases on every completed transaction and drives the optimistic
// concurrency control in Store.Append.
type Wallet struct {
	OwnerID   string
	Balance   int64
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Transaction is one immutable ledger entry. Once written with a terminal
// status it is never mutated or deleted.
type Transaction struct {
	ID          string
	OwnerID     string
	Amount      int64
	Kind        string
	Source      string
	ExternalRef string
	Status      string
	CreatedAt   time.Time
}

// Store is the durable home of wallets and their transaction log. Append is
// the only path that mutates a balance and must be atomic: the wallet row is
// updated and the transaction written together, or not at all.
type Store interface {
	// EnsureWallet returns the wallet for the owner, creating it with a zero
	// balance on first touch.
	EnsureWallet(ctx context.Context, ownerID string) (Wallet, error)

	// FindCompletedCredit looks up a completed credit by external reference.
	// The boolean reports whether one exists.
	FindCompletedCredit(ctx context.Context, ownerID, externalRef string) (Transaction, bool, error)

	// Append writes tx and moves the wallet to newBalance, guarded by a
	// compare-and-swap on expectedVersion. Returns ErrVersionConflict when
	// the wallet moved underneath the caller and ErrDuplicateExternalRef
	// when the credit reference was already applied.
	Append(ctx context.Context, ownerID string, expectedVersion, newBalance int64, tx Transaction) error

	// AppendRejected records an audit transaction without touching the
	// wallet balance or version.
	AppendRejected(ctx context.Context, tx Transaction) error

	// Transactions returns the wallet's ledger entries, newest first.
	Transactions(ctx context.Context, ownerID string) ([]Transaction, error)
}
