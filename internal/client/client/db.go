package client

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"github.com/dmitrijs2005/labkeeper/internal/client/migrations"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// gooseUpContext is swapped in tests.
var gooseUpContext = goose.UpContext

// notebookPragmas are applied by the driver to every new connection.
var notebookPragmas = []string{"busy_timeout(5000)", "foreign_keys(1)"}

// RunMigrations brings the notebook schema up to date.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("notebook migrations: %w", err)
	}
	return nil
}

// NotebookDSN adds the connection pragmas to a database file path.
func NotebookDSN(path string) string {
	q := url.Values{}
	for _, p := range notebookPragmas {
		q.Add("_pragma", p)
	}
	return path + "?" + q.Encode()
}

// InitDatabase opens (creating if needed) the notebook database file at path
// and migrates it. The pool is limited to one connection: SQLite allows a
// single writer and the snapshot flush runs concurrently with edits.
func InitDatabase(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", NotebookDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open notebook db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
