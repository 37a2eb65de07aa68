package campaign

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists campaign records.
type Repository interface {
	Create(ctx context.Context, campaign Campaign) error
	ListByOwner(ctx context.Context, ownerID string) ([]Campaign, error)
}

// PostgresRepository stores campaigns in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a campaign record.
func (r *PostgresRepository) Create(ctx context.Context, campaign Campaign) error {
	_, err := r.db.Exec(ctx, `INSERT INTO campaigns (id, owner_id, product, target_market, cost, transaction_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		campaign.ID, campaign.OwnerID, campaign.Product, campaign.TargetMarket, campaign.Cost, campaign.TransactionID, campaign.CreatedAt.UTC())
	return err
}

// ListByOwner fetches the owner's campaigns, newest first.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]Campaign, error) {
	rows, err := r.db.Query(ctx, `SELECT id, owner_id, product, target_market, cost, transaction_id, created_at
        FROM campaigns WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Campaign
	for rows.Next() {
		var c Campaign
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Product, &c.TargetMarket, &c.Cost, &c.TransactionID, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
