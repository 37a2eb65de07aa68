package ledger

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// PostgresStore persists wallets and the transaction log in PostgreSQL. The
// balance update and the transaction insert share one database transaction,
// with a version compare-and-swap on the wallet row providing the optimistic
// concurrency guard.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds a store backed by the provided pool.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureWallet creates the wallet row on first touch and returns it.
func (s *PostgresStore) EnsureWallet(ctx context.Context, ownerID string) (Wallet, error) {
	_, err := s.db.Exec(ctx, `INSERT INTO wallets (owner_id, balance, version)
        VALUES ($1, 0, 0) ON CONFLICT (owner_id) DO NOTHING`, ownerID)
	if err != nil {
		return Wallet{}, err
	}

	row := s.db.QueryRow(ctx, `SELECT owner_id, balance, version, created_at, updated_at
        FROM wallets WHERE owner_id = $1`, ownerID)
	var w Wallet
	if err := row.Scan(&w.OwnerID, &w.Balance, &w.Version, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return Wallet{}, err
	}
	return w, nil
}

// FindCompletedCredit resolves a completed credit by its external reference.
func (s *PostgresStore) FindCompletedCredit(ctx context.Context, ownerID, externalRef string) (Transaction, bool, error) {
	row := s.db.QueryRow(ctx, `SELECT id, owner_id, amount, kind, source, COALESCE(external_ref, ''), status, created_at
        FROM wallet_transactions
        WHERE owner_id = $1 AND external_ref = $2 AND kind = 'credit' AND status = 'completed'`,
		ownerID, externalRef)
	var tx Transaction
	if err := row.Scan(&tx.ID, &tx.OwnerID, &tx.Amount, &tx.Kind, &tx.Source, &tx.ExternalRef, &tx.Status, &tx.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, false, nil
		}
		return Transaction{}, false, err
	}
	return tx, true, nil
}

// Append applies the transaction and the new balance atomically, guarded by
// the wallet version.
func (s *PostgresStore) Append(ctx context.Context, ownerID string, expectedVersion, newBalance int64, tx Transaction) error {
	dbtx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer dbtx.Rollback(ctx) // nolint:errcheck

	tag, err := dbtx.Exec(ctx, `UPDATE wallets
        SET balance = $1, version = version + 1, updated_at = now()
        WHERE owner_id = $2 AND version = $3`, newBalance, ownerID, expectedVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}

	if err := insertTransaction(ctx, dbtx, tx); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateExternalRef
		}
		return err
	}

	return dbtx.Commit(ctx)
}

// AppendRejected records an audit transaction without touching the wallet row.
func (s *PostgresStore) AppendRejected(ctx context.Context, tx Transaction) error {
	return insertTransaction(ctx, s.db, tx)
}

// Transactions returns the wallet's ledger entries, newest first.
func (s *PostgresStore) Transactions(ctx context.Context, ownerID string) ([]Transaction, error) {
	rows, err := s.db.Query(ctx, `SELECT id, owner_id, amount, kind, source, COALESCE(external_ref, ''), status, created_at
        FROM wallet_transactions WHERE owner_id = $1 ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var tx Transaction
		if err := rows.Scan(&tx.ID, &tx.OwnerID, &tx.Amount, &tx.Kind, &tx.Source, &tx.ExternalRef, &tx.Status, &tx.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertTransaction(ctx context.Context, db execer, tx Transaction) error {
	_, err := db.Exec(ctx, `INSERT INTO wallet_transactions (id, owner_id, amount, kind, source, external_ref, status, created_at)
        VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)`,
		tx.ID, tx.OwnerID, tx.Amount, tx.Kind, tx.Source, tx.ExternalRef, tx.Status, tx.CreatedAt)
	return err
}
