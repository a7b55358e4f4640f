// Package services holds the business logic of the sync receiver.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/labkeeper/internal/common"
	"github.com/dmitrijs2005/labkeeper/internal/dbx"
	pb "github.com/dmitrijs2005/labkeeper/internal/proto"
	"github.com/dmitrijs2005/labkeeper/internal/server/repositories/receipts"
	"github.com/dmitrijs2005/labkeeper/internal/server/repositories/repomanager"
)

// ReceiptService accepts changes pushed by notebook clients.
type ReceiptService interface {
	// Record stores a receipt for c and returns how many distinct changes of
	// the same entry have been received so far.
	Record(ctx context.Context, c pb.Change) (int, error)
	Get(ctx context.Context, changeID string) (*receipts.Receipt, error)
}

type receiptService struct {
	db  *sql.DB
	rm  repomanager.RepositoryManager
	now func() time.Time
}

func NewReceiptService(db *sql.DB, rm repomanager.RepositoryManager, now func() time.Time) ReceiptService {
	if now == nil {
		now = time.Now
	}
	return &receiptService{db: db, rm: rm, now: now}
}

func (s *receiptService) Record(ctx context.Context, c pb.Change) (int, error) {
	if c.ID == "" || c.EntryID == "" {
		return 0, fmt.Errorf("%w: change without id or entry", common.ErrValidation)
	}

	var total int
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.rm.Receipts(tx)
		err := repo.Upsert(ctx, receipts.Receipt{
			ChangeID:   c.ID,
			EntryID:    c.EntryID,
			BlockIDs:   c.BlockIDs,
			UpdatedAt:  c.UpdatedAt,
			Attempts:   c.Attempts,
			ReceivedAt: s.now(),
		})
		if err != nil {
			return err
		}
		total, err = repo.CountForEntry(ctx, c.EntryID)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("error recording change %s: %w", c.ID, err)
	}
	return total, nil
}

func (s *receiptService) Get(ctx context.Context, changeID string) (*receipts.Receipt, error) {
	return s.rm.Receipts(s.db).Find(ctx, changeID)
}
