// Package receipts stores the changes accepted by the sync receiver in
// PostgreSQL.
package receipts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/labkeeper/internal/common"
	"github.com/dmitrijs2005/labkeeper/internal/dbx"
	"github.com/jackc/pgx/v5/pgtype"
)

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert stores r. Pushing the same change again refreshes its fields and
// bumps the delivery counter; the first received_at is kept.
func (r *PostgresRepository) Upsert(ctx context.Context, rc Receipt) error {
	query := `
		INSERT INTO receipts (change_id, entry_id, block_ids, updated_at, attempts, received_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (change_id) DO UPDATE
		SET entry_id = EXCLUDED.entry_id,
			block_ids = EXCLUDED.block_ids,
			updated_at = EXCLUDED.updated_at,
			attempts = EXCLUDED.attempts,
			deliveries = receipts.deliveries + 1
	`
	blocks := rc.BlockIDs
	if blocks == nil {
		blocks = []string{}
	}
	if _, err := r.db.ExecContext(ctx, query, rc.ChangeID, rc.EntryID, blocks, rc.UpdatedAt, rc.Attempts, rc.ReceivedAt); err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

// Find returns the receipt of changeID or common.ErrorNotFound.
func (r *PostgresRepository) Find(ctx context.Context, changeID string) (*Receipt, error) {
	query := `
		SELECT change_id, entry_id, block_ids, updated_at, attempts, received_at, deliveries
		FROM receipts
		WHERE change_id = $1
	`
	rc := &Receipt{}
	// text[] needs pgx's own decoding behind database/sql
	blocks := pgtype.NewMap().SQLScanner(&rc.BlockIDs)
	err := r.db.QueryRowContext(ctx, query, changeID).Scan(
		&rc.ChangeID, &rc.EntryID, blocks, &rc.UpdatedAt, &rc.Attempts, &rc.ReceivedAt, &rc.Deliveries)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rc, nil
}

func (r *PostgresRepository) CountForEntry(ctx context.Context, entryID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM receipts
		WHERE entry_id = $1
	`
	var n int
	if err := r.db.QueryRowContext(ctx, query, entryID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
