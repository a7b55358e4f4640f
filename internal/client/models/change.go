package models

import "time"

// SyncStatus is the lifecycle state of a change record.
type SyncStatus string

const (
	StatusPending SyncStatus = "pending"
	StatusSynced  SyncStatus = "synced"
	StatusFailed  SyncStatus = "failed"
)

// ChangeQueueItem records one save of an entry: the ids of the blocks that
// changed and the progress of pushing them to the remote.
type ChangeQueueItem struct {
	ID          string     `json:"id"`
	EntryID     string     `json:"entryId"`
	Blocks      []string   `json:"blocks"`
	Status      SyncStatus `json:"status"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	Attempts    int        `json:"attempts"`
	LastTriedAt *time.Time `json:"lastTriedAt,omitempty"`
	LastError   string     `json:"lastError,omitempty"`
}

// Clone returns a deep copy of c.
func (c ChangeQueueItem) Clone() ChangeQueueItem {
	out := c
	out.Blocks = cloneStrings(c.Blocks)
	if c.LastTriedAt != nil {
		t := *c.LastTriedAt
		out.LastTriedAt = &t
	}
	return out
}
