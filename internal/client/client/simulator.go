package client

import (
	"context"
	"hash/fnv"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/labkeeper/internal/client/models"
)

// DefaultLatency is the simulated round trip of one attempt.
const DefaultLatency = 450 * time.Millisecond

type SimulatorOptions struct {
	Latency time.Duration
	// Offline is consulted at the start of every attempt.
	Offline func() bool
	// DisableScriptedFailures turns off the first-attempt failures.
	DisableScriptedFailures bool
}

// Simulator is a Remote that fails deterministically. An attempt fails when
// a forced failure is armed, when the offline signal is set, or when the
// item was never tried before and FailsOnFirstAttempt(id) holds. The
// outcome is decided when the call starts; the latency is waited after.
type Simulator struct {
	latency  time.Duration
	offline  func() bool
	scripted bool
	failNext atomic.Bool
	calls    atomic.Int64
}

func NewSimulator(opts SimulatorOptions) *Simulator {
	s := &Simulator{
		latency:  opts.Latency,
		offline:  opts.Offline,
		scripted: !opts.DisableScriptedFailures,
	}
	if s.latency <= 0 {
		s.latency = DefaultLatency
	}
	if s.offline == nil {
		s.offline = func() bool { return false }
	}
	return s
}

// FailNext arms a failure consumed by the next attempt.
func (s *Simulator) FailNext() {
	s.failNext.Store(true)
}

// Calls returns the number of attempts made so far.
func (s *Simulator) Calls() int64 {
	return s.calls.Load()
}

func (s *Simulator) AttemptSync(ctx context.Context, item models.ChangeQueueItem) error {
	s.calls.Add(1)
	outcome := s.decide(item)

	t := time.NewTimer(s.latency)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
	}
	return outcome
}

func (s *Simulator) decide(item models.ChangeQueueItem) error {
	if s.failNext.CompareAndSwap(true, false) {
		return ErrForcedFailure
	}
	if s.offline() {
		return ErrOffline
	}
	if s.scripted && item.Attempts == 0 && FailsOnFirstAttempt(item.ID) {
		return ErrScriptedFailure
	}
	return nil
}

// Ping always succeeds; the simulated network is only "down" through the
// offline signal.
func (s *Simulator) Ping(ctx context.Context) error {
	return ctx.Err()
}

// FailsOnFirstAttempt reports whether the simulator fails a fresh item with
// this id: FNV-1a 32 of the id is divisible by 5.
func FailsOnFirstAttempt(id string) bool {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return h.Sum32()%5 == 0
}
