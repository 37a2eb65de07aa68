package ledger

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_EnsureWalletCreatesOnce(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	w, err := s.EnsureWallet(ctx, "owner-1")
	if err != nil {
		t.Fatalf("ensure wallet: %v", err)
	}
	if w.Balance != 0 || w.Version != 0 {
		t.Fatalf("fresh wallet should start at zero, got balance=%d version=%d", w.Balance, w.Version)
	}

	again, err := s.EnsureWallet(ctx, "owner-1")
	if err != nil {
		t.Fatalf("ensure wallet again: %v", err)
	}
	if again.CreatedAt != w.CreatedAt {
		t.Fatal("ensure should return the existing wallet, not recreate it")
	}
}

func TestMemoryStore_AppendCASRejectsStaleVersion(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	s.EnsureWallet(ctx, "owner-1")

	tx := Transaction{ID: "t1", OwnerID: "owner-1", Amount: 100, Kind: KindCredit, Source: SourceBonus, Status: StatusCompleted, CreatedAt: time.Now().UTC()}
	if err := s.Append(ctx, "owner-1", 0, 100, tx); err != nil {
		t.Fatalf("append: %v", err)
	}

	stale := Transaction{ID: "t2", OwnerID: "owner-1", Amount: 50, Kind: KindDebit, Source: SourceCampaignSpend, Status: StatusCompleted, CreatedAt: time.Now().UTC()}
	if err := s.Append(ctx, "owner-1", 0, 50, stale); err != ErrVersionConflict {
		t.Fatalf("expected version conflict, got %v", err)
	}

	w, _ := s.EnsureWallet(ctx, "owner-1")
	if w.Balance != 100 || w.Version != 1 {
		t.Fatalf("conflicting append must not change state, got balance=%d version=%d", w.Balance, w.Version)
	}
}

func TestMemoryStore_AppendRejectsDuplicateCreditRef(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	s.EnsureWallet(ctx, "owner-1")

	first := Transaction{ID: "t1", OwnerID: "owner-1", Amount: 100, Kind: KindCredit, Source: SourcePaymentProcessor, ExternalRef: "pp-1", Status: StatusCompleted, CreatedAt: time.Now().UTC()}
	if err := s.Append(ctx, "owner-1", 0, 100, first); err != nil {
		t.Fatalf("append: %v", err)
	}

	dup := Transaction{ID: "t2", OwnerID: "owner-1", Amount: 100, Kind: KindCredit, Source: SourcePaymentProcessor, ExternalRef: "pp-1", Status: StatusCompleted, CreatedAt: time.Now().UTC()}
	if err := s.Append(ctx, "owner-1", 1, 200, dup); err != ErrDuplicateExternalRef {
		t.Fatalf("expected duplicate ref error, got %v", err)
	}

	found, ok, err := s.FindCompletedCredit(ctx, "owner-1", "pp-1")
	if err != nil || !ok {
		t.Fatalf("expected to find completed credit, ok=%v err=%v", ok, err)
	}
	if found.ID != "t1" {
		t.Fatalf("expected original transaction, got %s", found.ID)
	}
}

func TestMemoryStore_RejectedEntriesSkipWallet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	s.EnsureWallet(ctx, "owner-1")

	rejected := Transaction{ID: "t1", OwnerID: "owner-1", Amount: 10, Kind: KindDebit, Source: SourceCampaignSpend, Status: StatusRejected, CreatedAt: time.Now().UTC()}
	if err := s.AppendRejected(ctx, rejected); err != nil {
		t.Fatalf("append rejected: %v", err)
	}

	w, _ := s.EnsureWallet(ctx, "owner-1")
	if w.Balance != 0 || w.Version != 0 {
		t.Fatalf("rejected entry must not touch the wallet, got balance=%d version=%d", w.Balance, w.Version)
	}

	txs, err := s.Transactions(ctx, "owner-1")
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if len(txs) != 1 || txs[0].Status != StatusRejected {
		t.Fatalf("expected one rejected audit entry, got %+v", txs)
	}
}

func TestMemoryStore_TransactionsNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	s.EnsureWallet(ctx, "owner-1")

	for i, id := range []string{"t1", "t2", "t3"} {
		tx := Transaction{ID: id, OwnerID: "owner-1", Amount: 10, Kind: KindCredit, Source: SourceBonus, Status: StatusCompleted, CreatedAt: time.Now().UTC()}
		if err := s.Append(ctx, "owner-1", int64(i), int64((i+1)*10), tx); err != nil {
			t.Fatalf("append %s: %v", id, err)
		}
	}

	txs, _ := s.Transactions(ctx, "owner-1")
	if len(txs) != 3 || txs[0].ID != "t3" || txs[2].ID != "t1" {
		t.Fatalf("expected newest-first ordering, got %+v", txs)
	}
}
