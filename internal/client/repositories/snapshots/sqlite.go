package snapshots

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/labkeeper/internal/dbx"
)

const (
	getSnapshotSQL    = `SELECT value FROM snapshots WHERE key = ?`
	listSnapshotsSQL  = `SELECT key, value FROM snapshots ORDER BY key`
	deleteSnapshotSQL = `DELETE FROM snapshots WHERE key = ?`
	upsertSnapshotSQL = `
		INSERT INTO snapshots (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	switch err := r.db.QueryRowContext(ctx, getSnapshotSQL, key).Scan(&value); {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("snapshot %s: read: %w", key, err)
	}
	return value, nil
}

func (r *SQLiteRepository) Set(ctx context.Context, key string, value []byte) error {
	return upsert(ctx, r.db, key, value)
}

// SetMany writes all values in one transaction when the handle can begin
// one, so a crash never leaves some collections newer than others.
func (r *SQLiteRepository) SetMany(ctx context.Context, values map[string][]byte) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	write := func(ctx context.Context, tx dbx.DBTX) error {
		for _, k := range keys {
			if err := upsert(ctx, tx, k, values[k]); err != nil {
				return err
			}
		}
		return nil
	}

	if b, ok := r.db.(dbx.Beginner); ok {
		return dbx.WithTx(ctx, b, nil, write)
	}
	return write(ctx, r.db)
}

func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, deleteSnapshotSQL, key); err != nil {
		return fmt.Errorf("snapshot %s: delete: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) (map[string][]byte, error) {
	rows, err := r.db.QueryContext(ctx, listSnapshotsSQL)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	out := map[string][]byte{}
	for rows.Next() {
		var (
			key   string
			value []byte
		)
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("list snapshots: scan: %w", err)
		}
		out[key] = value
	}
	return out, rows.Err()
}

func upsert(ctx context.Context, db dbx.DBTX, key string, value []byte) error {
	if _, err := db.ExecContext(ctx, upsertSnapshotSQL, key, value); err != nil {
		return fmt.Errorf("snapshot %s: write: %w", key, err)
	}
	return nil
}
