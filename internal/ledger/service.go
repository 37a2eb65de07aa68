package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	defaultMaxAttempts = 3
	defaultRetryDelay  = 20 * time.Millisecond
)

// Service is the sole writer of wallet and transaction state. Every call
// leaves the invariants intact: the balance always equals the fold over
// completed transactions, never goes negative, and no external reference is
// credited twice.
type Service struct {
	store       Store
	maxAttempts int
	retryDelay  time.Duration
}

// Option adjusts service construction.
type Option func(*Service)

// WithMaxAttempts bounds the optimistic retry loop.
func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithRetryDelay sets the base backoff between conflicting write attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.retryDelay = d
		}
	}
}

// NewService builds a ledger service on top of the provided store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:       store,
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Credit increases the wallet balance by amount. When externalRef names a
// completed credit that already exists for the wallet, the existing
// transaction is returned unchanged so that redelivered payment
// confirmations never double-credit. Credits from the payment processor must
// carry a reference.
func (s *Service) Credit(ctx context.Context, ownerID string, amount int64, externalRef, source string) (Transaction, error) {
	if amount <= 0 {
		return Transaction{}, ErrInvalidAmount
	}
	if source == SourcePaymentProcessor && externalRef == "" {
		return Transaction{}, ErrMissingExternalRef
	}

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		if attempt > 0 {
			if err := s.wait(ctx, attempt); err != nil {
				return Transaction{}, err
			}
		}

		w, err := s.store.EnsureWallet(ctx, ownerID)
		if err != nil {
			return Transaction{}, storeErr("ensure wallet", err)
		}

		if externalRef != "" {
			existing, found, err := s.store.FindCompletedCredit(ctx, ownerID, externalRef)
			if err != nil {
				return Transaction{}, storeErr("lookup external ref", err)
			}
			if found {
				return existing, nil
			}
		}

		tx := Transaction{
			ID:          uuid.NewString(),
			OwnerID:     ownerID,
			Amount:      amount,
			Kind:        KindCredit,
			Source:      source,
			ExternalRef: externalRef,
			Status:      StatusCompleted,
			CreatedAt:   time.Now().UTC(),
		}

		err = s.store.Append(ctx, ownerID, w.Version, w.Balance+amount, tx)
		switch {
		case err == nil:
			return tx, nil
		case errors.Is(err, ErrDuplicateExternalRef):
			// The same reference landed concurrently; surface that credit.
			existing, found, lookupErr := s.store.FindCompletedCredit(ctx, ownerID, externalRef)
			if lookupErr != nil {
				return Transaction{}, storeErr("lookup external ref", lookupErr)
			}
			if found {
				return existing, nil
			}
			continue
		case errors.Is(err, ErrVersionConflict):
			// Lost the race to another writer; re-read and retry.
			continue
		default:
			return Transaction{}, storeErr("append credit", err)
		}
	}

	return Transaction{}, ErrBusy
}

// Debit decreases the wallet balance by amount. The balance check and the
// write happen under a version compare-and-swap, so two concurrent debits
// can never jointly overdraw the wallet. An insufficient balance records a
// rejected transaction for audit and returns ErrInsufficientFunds with the
// wallet untouched.
func (s *Service) Debit(ctx context.Context, ownerID string, amount int64, source string) (Transaction, error) {
	if amount <= 0 {
		return Transaction{}, ErrInvalidAmount
	}

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		if attempt > 0 {
			if err := s.wait(ctx, attempt); err != nil {
				return Transaction{}, err
			}
		}

		w, err := s.store.EnsureWallet(ctx, ownerID)
		if err != nil {
			return Transaction{}, storeErr("ensure wallet", err)
		}

		now := time.Now().UTC()
		if w.Balance < amount {
			rejected := Transaction{
				ID:        uuid.NewString(),
				OwnerID:   ownerID,
				Amount:    amount,
				Kind:      KindDebit,
				Source:    source,
				Status:    StatusRejected,
				CreatedAt: now,
			}
			if err := s.store.AppendRejected(ctx, rejected); err != nil {
				return Transaction{}, storeErr("record rejected debit", err)
			}
			return rejected, ErrInsufficientFunds
		}

		tx := Transaction{
			ID:        uuid.NewString(),
			OwnerID:   ownerID,
			Amount:    amount,
			Kind:      KindDebit,
			Source:    source,
			Status:    StatusCompleted,
			CreatedAt: now,
		}

		err = s.store.Append(ctx, ownerID, w.Version, w.Balance-amount, tx)
		switch {
		case err == nil:
			return tx, nil
		case errors.Is(err, ErrVersionConflict):
			continue
		default:
			return Transaction{}, storeErr("append debit", err)
		}
	}

	return Transaction{}, ErrBusy
}

// Balance returns the materialized balance for the owner, creating the
// wallet on first touch. No side effects beyond wallet creation.
func (s *Service) Balance(ctx context.Context, ownerID string) (int64, error) {
	w, err := s.store.EnsureWallet(ctx, ownerID)
	if err != nil {
		return 0, storeErr("ensure wallet", err)
	}
	return w.Balance, nil
}

// Transactions lists the wallet's ledger entries, newest first.
func (s *Service) Transactions(ctx context.Context, ownerID string) ([]Transaction, error) {
	txs, err := s.store.Transactions(ctx, ownerID)
	if err != nil {
		return nil, storeErr("list transactions", err)
	}
	return txs, nil
}

// Reconciliation reports the outcome of recomputing a wallet balance from
// its transaction log.
type Reconciliation struct {
	OwnerID      string
	Materialized int64
	Recomputed   int64
	Transactions int
}

// Reconcile folds the completed transactions for the wallet and compares the
// result against the materialized balance. A mismatch is returned as
// ErrLedgerCorrupt, never repaired.
func (s *Service) Reconcile(ctx context.Context, ownerID string) (Reconciliation, error) {
	w, err := s.store.EnsureWallet(ctx, ownerID)
	if err != nil {
		return Reconciliation{}, storeErr("ensure wallet", err)
	}
	txs, err := s.store.Transactions(ctx, ownerID)
	if err != nil {
		return Reconciliation{}, storeErr("list transactions", err)
	}

	var sum int64
	for _, tx := range txs {
		if tx.Status != StatusCompleted {
			continue
		}
		switch tx.Kind {
		case KindCredit:
			sum += tx.Amount
		case KindDebit:
			sum -= tx.Amount
		}
	}

	report := Reconciliation{
		OwnerID:      ownerID,
		Materialized: w.Balance,
		Recomputed:   sum,
		Transactions: len(txs),
	}
	if sum != w.Balance {
		return report, fmt.Errorf("%w: owner %s materialized=%d recomputed=%d", ErrLedgerCorrupt, ownerID, w.Balance, sum)
	}
	return report, nil
}

func (s *Service) wait(ctx context.Context, attempt int) error {
	timer := time.NewTimer(time.Duration(attempt) * s.retryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
}
