package blobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/labkeeper/internal/common"
	"github.com/dmitrijs2005/labkeeper/internal/cryptox"
	"github.com/dmitrijs2005/labkeeper/internal/dbx"
)

// DBStore keeps blobs in the local database, addressed by content.
// Locators are idb://<blake2b-256 hex>.
type DBStore struct {
	db dbx.DBTX
}

func NewDBStore(db dbx.DBTX) *DBStore {
	return &DBStore{db: db}
}

func (s *DBStore) Write(ctx context.Context, data []byte, filename string) (string, error) {
	id := cryptox.ContentKey(data)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blobs (id, filename, data, size) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, filename, data, len(data))
	if err != nil {
		return "", fmt.Errorf("%w: failed to store blob[%s]: %v", common.ErrStorageUnavailable, id, err)
	}
	return locator(SchemeIDB, id), nil
}

func (s *DBStore) Read(ctx context.Context, loc string) ([]byte, error) {
	id, ok := key(loc, SchemeIDB)
	if !ok || id == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, loc)
	}

	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM blobs WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, loc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read blob[%s]: %w", id, err)
	}
	return data, nil
}
