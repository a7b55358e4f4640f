package syncqueue

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/labkeeper/internal/client/client"
	"github.com/dmitrijs2005/labkeeper/internal/client/models"
	"github.com/dmitrijs2005/labkeeper/internal/common"
	"github.com/dmitrijs2005/labkeeper/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultDrainDelay is the debounce of the background drain.
const DefaultDrainDelay = 900 * time.Millisecond

type Options struct {
	Remote     client.Remote
	Logger     logging.Logger
	Registerer prometheus.Registerer
	Now        func() time.Time
	NewID      common.IDGenerator
	DrainDelay time.Duration
	// DisableAutoDrain leaves every run to explicit SyncNow calls.
	DisableAutoDrain bool
}

// SyncOptions selects the candidates of a run: pending items, plus failed
// ones when IncludeFailed is set, optionally limited to one entry.
type SyncOptions struct {
	EntryID       string
	IncludeFailed bool
}

type Engine struct {
	mu    sync.Mutex
	items []*models.ChangeQueueItem // oldest first

	remote  client.Remote
	logger  logging.Logger
	metrics *Metrics
	now     func() time.Time
	newID   common.IDGenerator

	running atomic.Bool

	autoDrain  bool
	drainDelay time.Duration
	drainCtx   context.Context
	timer      *time.Timer
	closed     bool
	bg         sync.WaitGroup

	subMu sync.Mutex
	subs  map[chan State]struct{}
}

func NewEngine(opts Options) *Engine {
	e := &Engine{
		remote:     opts.Remote,
		logger:     opts.Logger,
		metrics:    NewMetrics(opts.Registerer),
		now:        opts.Now,
		newID:      opts.NewID,
		autoDrain:  !opts.DisableAutoDrain,
		drainDelay: opts.DrainDelay,
		drainCtx:   context.Background(),
		subs:       make(map[chan State]struct{}),
	}
	if e.logger == nil {
		e.logger = logging.Discard()
	}
	e.logger = e.logger.With("module", "syncqueue")
	if e.now == nil {
		e.now = time.Now
	}
	if e.newID == nil {
		e.newID = common.NewID
	}
	if e.drainDelay <= 0 {
		e.drainDelay = DefaultDrainDelay
	}
	return e
}

// Enqueue records a new pending change with zero attempts. A zero ts is
// replaced by the current time.
func (e *Engine) Enqueue(entryID string, blockIDs []string, ts time.Time) models.ChangeQueueItem {
	if ts.IsZero() {
		ts = e.now()
	}
	item := &models.ChangeQueueItem{
		ID:        e.newID(),
		EntryID:   entryID,
		Blocks:    slices.Clone(blockIDs),
		Status:    models.StatusPending,
		UpdatedAt: ts,
	}

	e.mu.Lock()
	e.items = append(e.items, item)
	out := item.Clone()
	e.mu.Unlock()

	e.changed()
	e.scheduleDrain()
	return out
}

// SyncNow runs the candidates selected by opts. It returns false without
// doing anything when another run is in flight.
func (e *Engine) SyncNow(ctx context.Context, opts SyncOptions) bool {
	if !e.running.CompareAndSwap(false, true) {
		return false
	}

	e.metrics.running.Set(1)
	e.changed()

	start := e.now()
	ids := e.candidates(opts)
	var failed int
	for _, id := range ids {
		if !e.attempt(ctx, id) {
			failed++
		}
	}

	e.running.Store(false)
	e.metrics.running.Set(0)
	e.metrics.runDuration.Observe(e.now().Sub(start).Seconds())
	if len(ids) > 0 {
		e.logger.Info(ctx, "sync run finished", "items", len(ids), "failed", failed)
	}

	e.changed()
	e.scheduleDrain()
	return true
}

// RetryChange runs a single item as its own batch. Unknown and synced
// items are left alone.
func (e *Engine) RetryChange(ctx context.Context, changeID string) bool {
	e.mu.Lock()
	i := e.indexOf(changeID)
	eligible := i >= 0 && e.items[i].Status != models.StatusSynced
	e.mu.Unlock()
	if !eligible {
		return false
	}

	if !e.running.CompareAndSwap(false, true) {
		return false
	}
	e.metrics.running.Set(1)
	e.changed()

	start := e.now()
	e.attempt(ctx, changeID)

	e.running.Store(false)
	e.metrics.running.Set(0)
	e.metrics.runDuration.Observe(e.now().Sub(start).Seconds())

	e.changed()
	e.scheduleDrain()
	return true
}

// ClearSynced removes synced items, of one entry when entryID is set, and
// returns how many were removed.
func (e *Engine) ClearSynced(entryID string) int {
	e.mu.Lock()
	before := len(e.items)
	e.items = slices.DeleteFunc(e.items, func(it *models.ChangeQueueItem) bool {
		return it.Status == models.StatusSynced && (entryID == "" || it.EntryID == entryID)
	})
	removed := before - len(e.items)
	e.mu.Unlock()

	if removed > 0 {
		e.changed()
	}
	return removed
}

// Items returns copies of all items, most recent first.
func (e *Engine) Items() []models.ChangeQueueItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked("")
}

// ItemsForEntry returns copies of the items of one entry, most recent first.
func (e *Engine) ItemsForEntry(entryID string) []models.ChangeQueueItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked(entryID)
}

func (e *Engine) Item(id string) (models.ChangeQueueItem, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if i := e.indexOf(id); i >= 0 {
		return e.items[i].Clone(), true
	}
	return models.ChangeQueueItem{}, false
}

func (e *Engine) Summary() Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return summarize(e.items, e.running.Load())
}

// Syncing reports whether a run is in flight.
func (e *Engine) Syncing() bool {
	return e.running.Load()
}

// Subscribe returns a channel receiving the queue state after every change.
// Slow readers only see the latest state. Call cancel to unsubscribe.
func (e *Engine) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	e.subMu.Lock()
	e.subs[ch] = struct{}{}
	e.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			e.subMu.Lock()
			defer e.subMu.Unlock()
			if _, ok := e.subs[ch]; ok {
				delete(e.subs, ch)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// Close stops the auto-drain, waits for background runs and closes all
// subscriptions.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	if e.timer != nil {
		e.timer.Stop()
	}
	e.mu.Unlock()

	e.bg.Wait()

	e.subMu.Lock()
	for ch := range e.subs {
		delete(e.subs, ch)
		close(ch)
	}
	e.subMu.Unlock()
}

// candidates returns the ids to process, oldest first.
func (e *Engine) candidates(opts SyncOptions) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	var ids []string
	for _, it := range e.items {
		if opts.EntryID != "" && it.EntryID != opts.EntryID {
			continue
		}
		if it.Status == models.StatusPending || (opts.IncludeFailed && it.Status == models.StatusFailed) {
			ids = append(ids, it.ID)
		}
	}
	return ids
}

// attempt pushes one item and records the outcome. The remote receives the
// item as it was before the attempt started.
func (e *Engine) attempt(ctx context.Context, id string) bool {
	e.mu.Lock()
	i := e.indexOf(id)
	if i < 0 {
		e.mu.Unlock()
		return true
	}
	it := e.items[i]
	sent := it.Clone()

	now := e.now()
	it.Status = models.StatusPending
	it.Attempts++
	it.LastTriedAt = &now
	it.LastError = ""
	e.mu.Unlock()
	e.changed()

	err := e.remote.AttemptSync(ctx, sent)

	// pending items are never removed, so it is still in the queue
	e.mu.Lock()
	if err != nil {
		it.Status = models.StatusFailed
		it.LastError = err.Error()
	} else {
		it.Status = models.StatusSynced
		it.LastError = ""
	}
	e.mu.Unlock()

	if err != nil {
		e.metrics.attempts.WithLabelValues("failure").Inc()
		e.logger.Warn(ctx, "sync attempt failed", "change", id, "entry", sent.EntryID, "attempt", sent.Attempts+1, "error", err)
	} else {
		e.metrics.attempts.WithLabelValues("success").Inc()
		e.logger.Debug(ctx, "change synced", "change", id, "entry", sent.EntryID)
	}
	e.changed()
	return err == nil
}

func (e *Engine) scheduleDrain() {
	if !e.autoDrain {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || !e.hasPendingLocked() {
		return
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(e.drainDelay, e.drain)
}

func (e *Engine) drain() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.bg.Add(1)
	e.mu.Unlock()
	defer e.bg.Done()

	e.SyncNow(e.drainCtx, SyncOptions{IncludeFailed: false})
}

func (e *Engine) hasPendingLocked() bool {
	return slices.ContainsFunc(e.items, func(it *models.ChangeQueueItem) bool {
		return it.Status == models.StatusPending
	})
}

func (e *Engine) indexOf(id string) int {
	return slices.IndexFunc(e.items, func(it *models.ChangeQueueItem) bool { return it.ID == id })
}

func (e *Engine) snapshotLocked(entryID string) []models.ChangeQueueItem {
	out := make([]models.ChangeQueueItem, 0, len(e.items))
	for i := len(e.items) - 1; i >= 0; i-- {
		if entryID == "" || e.items[i].EntryID == entryID {
			out = append(out, e.items[i].Clone())
		}
	}
	return out
}

// changed refreshes the gauges and publishes the state to subscribers.
func (e *Engine) changed() {
	e.mu.Lock()
	st := State{Items: e.snapshotLocked(""), Summary: summarize(e.items, e.running.Load())}
	e.mu.Unlock()

	e.metrics.observeCounts(st.Summary)

	e.subMu.Lock()
	defer e.subMu.Unlock()
	for ch := range e.subs {
		select {
		case ch <- st:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- st:
			default:
			}
		}
	}
}
