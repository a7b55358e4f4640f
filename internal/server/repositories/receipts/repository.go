package receipts

import (
	"context"
	"time"
)

// Receipt records that a change pushed by a notebook client arrived.
// Deliveries counts how many times the same change was pushed.
type Receipt struct {
	ChangeID   string
	EntryID    string
	BlockIDs   []string
	UpdatedAt  time.Time
	Attempts   int
	ReceivedAt time.Time
	Deliveries int
}

type Repository interface {
	Upsert(ctx context.Context, r Receipt) error
	Find(ctx context.Context, changeID string) (*Receipt, error)
	CountForEntry(ctx context.Context, entryID string) (int, error)
}
