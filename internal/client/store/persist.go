package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/labkeeper/internal/logging"
)

// DefaultFlushInterval is how long mutations coalesce before a snapshot
// write.
const DefaultFlushInterval = 250 * time.Millisecond

// Persister writes dirty collections to a SnapshotRepository. Each flush
// writes a whole collection; a later write fully replaces an earlier one.
type Persister struct {
	store    *Store
	repo     SnapshotRepository
	interval time.Duration
	logger   logging.Logger
}

func NewPersister(s *Store, repo SnapshotRepository, interval time.Duration, l logging.Logger) *Persister {
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	return &Persister{
		store:    s,
		repo:     repo,
		interval: interval,
		logger:   l.With("module", "persister"),
	}
}

// batchWriter is implemented by repositories that write several
// collections in one transaction.
type batchWriter interface {
	SetMany(ctx context.Context, values map[string][]byte) error
}

// Flush writes every dirty collection now. Collections whose write fails
// stay dirty for the next flush. A batch-capable repository gets all of
// them in a single call, and a failed batch requeues every collection.
func (p *Persister) Flush(ctx context.Context) error {
	var errs []error
	values := make(map[string][]byte)
	for _, c := range p.store.takeDirty() {
		data, err := p.store.Snapshot(c)
		if err != nil {
			p.store.requeueDirty(c)
			errs = append(errs, fmt.Errorf("encode %s snapshot: %w", c, err))
			continue
		}
		values[string(c)] = data
	}
	if len(values) == 0 {
		return errors.Join(errs...)
	}

	if bw, ok := p.repo.(batchWriter); ok {
		if err := bw.SetMany(ctx, values); err != nil {
			for k := range values {
				p.store.requeueDirty(Collection(k))
			}
			errs = append(errs, fmt.Errorf("write snapshots: %w", err))
		}
		return errors.Join(errs...)
	}

	for k, data := range values {
		if err := p.repo.Set(ctx, k, data); err != nil {
			p.store.requeueDirty(Collection(k))
			errs = append(errs, fmt.Errorf("write %s snapshot: %w", k, err))
		}
	}
	return errors.Join(errs...)
}

// Run flushes on every tick until ctx is done, then flushes once more.
func (p *Persister) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := p.Flush(ctx); err != nil {
				p.logger.Warn(ctx, "snapshot flush failed", "error", err)
			}
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			if err := p.Flush(final); err != nil {
				p.logger.Error(final, "final snapshot flush failed", "error", err)
			}
			cancel()
			return
		}
	}
}
