package client

import (
	"context"
	"sync/atomic"

	"github.com/dmitrijs2005/labkeeper/internal/client/models"
)

// Remote pushes one change record to the other side. The item carries the
// attempt count from before the current attempt.
type Remote interface {
	AttemptSync(ctx context.Context, item models.ChangeQueueItem) error
}

// Pinger reports whether the remote is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Connectivity is the global offline signal. It is offline when either the
// user forced it or the last health check failed.
type Connectivity struct {
	forced   atomic.Bool
	detected atomic.Bool
}

func (c *Connectivity) Offline() bool {
	return c.forced.Load() || c.detected.Load()
}

// Force sets the user controlled part of the signal.
func (c *Connectivity) Force(offline bool) {
	c.forced.Store(offline)
}

// Forced reports the user controlled part of the signal.
func (c *Connectivity) Forced() bool {
	return c.forced.Load()
}

// Report records the result of a health check.
func (c *Connectivity) Report(reachable bool) {
	c.detected.Store(!reachable)
}

type gatedRemote struct {
	Remote
	offline func() bool
}

// WithOfflineGate fails attempts with ErrOffline while offline reports true,
// without calling r.
func WithOfflineGate(r Remote, offline func() bool) Remote {
	return &gatedRemote{Remote: r, offline: offline}
}

func (g *gatedRemote) AttemptSync(ctx context.Context, item models.ChangeQueueItem) error {
	if g.offline() {
		return ErrOffline
	}
	return g.Remote.AttemptSync(ctx, item)
}
