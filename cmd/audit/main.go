// Command audit reconciles every wallet against its transaction log. It is
// meant for cron or an operator shell: a clean run exits 0, any divergence
// between a materialized balance and the fold over completed transactions
// exits 1. Divergence is never repaired here; it indicates a bug.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/YamirG/WEAREEXPORTERS/internal/config"
	"github.com/YamirG/WEAREEXPORTERS/internal/infra"
	"github.com/YamirG/WEAREEXPORTERS/internal/ledger"
	"github.com/YamirG/WEAREEXPORTERS/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL must be set to audit the ledger")
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)
	ctx := context.Background()

	db, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	store := ledger.NewPostgresStore(db)
	svc := ledger.NewService(store)

	rows, err := db.Query(ctx, `SELECT owner_id FROM wallets ORDER BY owner_id`)
	if err != nil {
		logger.Error("list wallets", "error", err)
		os.Exit(1)
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var ownerID string
		if err := rows.Scan(&ownerID); err != nil {
			logger.Error("scan wallet", "error", err)
			os.Exit(1)
		}
		owners = append(owners, ownerID)
	}
	if err := rows.Err(); err != nil {
		logger.Error("iterate wallets", "error", err)
		os.Exit(1)
	}

	corrupt := 0
	for _, ownerID := range owners {
		report, err := svc.Reconcile(ctx, ownerID)
		switch {
		case err == nil:
			logger.Debug("wallet consistent", "owner_id", ownerID, "balance", report.Materialized, "transactions", report.Transactions)
		case errors.Is(err, ledger.ErrLedgerCorrupt):
			corrupt++
			logger.Error("wallet corrupt",
				"owner_id", ownerID,
				"materialized", report.Materialized,
				"recomputed", report.Recomputed,
				"transactions", report.Transactions)
		default:
			logger.Error("reconcile failed", "owner_id", ownerID, "error", err)
			os.Exit(1)
		}
	}

	logger.Info("audit complete", "wallets", len(owners), "corrupt", corrupt)
	if corrupt > 0 {
		os.Exit(1)
	}
}
