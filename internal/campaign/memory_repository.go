package campaign

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	storage map[string][]Campaign
}

// NewMemoryRepository constructs an in-memory repository for tests and
// development without Postgres.
func NewMemoryRepository() Repository {
	return &memoryRepository{storage: make(map[string][]Campaign)}
}

func (r *memoryRepository) Create(_ context.Context, campaign Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.storage[campaign.OwnerID] = append(r.storage[campaign.OwnerID], campaign)
	return nil
}

func (r *memoryRepository) ListByOwner(_ context.Context, ownerID string) ([]Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := r.storage[ownerID]
	out := make([]Campaign, len(entries))
	for i, c := range entries {
		out[len(entries)-1-i] = c
	}
	return out, nil
}
