package ledger

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu      sync.RWMutex
	wallets map[string]Wallet
	log     map[string][]Transaction
}

// NewMemoryStore creates a concurrency-safe in-memory store. It backs unit
// tests and local development without Postgres.
func NewMemoryStore() Store {
	return &memoryStore{
		wallets: make(map[string]Wallet),
		log:     make(map[string][]Transaction),
	}
}

func (m *memoryStore) EnsureWallet(_ context.Context, ownerID string) (Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.wallets[ownerID]; ok {
		return w, nil
	}
	now := time.Now().UTC()
	w := Wallet{OwnerID: ownerID, Balance: 0, Version: 0, CreatedAt: now, UpdatedAt: now}
	m.wallets[ownerID] = w
	return w, nil
}

func (m *memoryStore) FindCompletedCredit(_ context.Context, ownerID, externalRef string) (Transaction, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, tx := range m.log[ownerID] {
		if tx.Kind == KindCredit && tx.Status == StatusCompleted && tx.ExternalRef == externalRef {
			return tx, true, nil
		}
	}
	return Transaction{}, false, nil
}

func (m *memoryStore) Append(_ context.Context, ownerID string, expectedVersion, newBalance int64, tx Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.wallets[ownerID]
	if !ok || w.Version != expectedVersion {
		return ErrVersionConflict
	}

	if tx.Kind == KindCredit && tx.ExternalRef != "" {
		for _, existing := range m.log[ownerID] {
			if existing.Kind == KindCredit && existing.Status == StatusCompleted && existing.ExternalRef == tx.ExternalRef {
				return ErrDuplicateExternalRef
			}
		}
	}

	w.Balance = newBalance
	w.Version++
	w.UpdatedAt = time.Now().UTC()
	m.wallets[ownerID] = w
	m.log[ownerID] = append(m.log[ownerID], tx)
	return nil
}

func (m *memoryStore) AppendRejected(_ context.Context, tx Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log[tx.OwnerID] = append(m.log[tx.OwnerID], tx)
	return nil
}

func (m *memoryStore) Transactions(_ context.Context, ownerID string) ([]Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := m.log[ownerID]
	out := make([]Transaction, len(entries))
	for i, tx := range entries {
		out[len(entries)-1-i] = tx
	}
	return out, nil
}
