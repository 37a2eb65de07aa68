package ledger

import "time"

// SeedBalance is a test helper that forces a balance on the in-memory store
// without going through the credit path.
func SeedBalance(s Store, ownerID string, amount int64) {
	if mem, ok := s.(*memoryStore); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		w, exists := mem.wallets[ownerID]
		if !exists {
			now := time.Now().UTC()
			w = Wallet{OwnerID: ownerID, CreatedAt: now, UpdatedAt: now}
		}
		w.Balance = amount
		mem.wallets[ownerID] = w
	}
}
