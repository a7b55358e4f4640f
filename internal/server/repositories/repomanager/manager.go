package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/labkeeper/internal/dbx"
	"github.com/dmitrijs2005/labkeeper/internal/server/repositories/receipts"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Receipts(db dbx.DBTX) receipts.Repository
}
