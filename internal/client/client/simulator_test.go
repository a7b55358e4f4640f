package client

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/labkeeper/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// idsBySchedule returns one id that fails on its first attempt and one
// that does not.
func idsBySchedule(t *testing.T) (failing, passing string) {
	t.Helper()
	for i := 0; failing == "" || passing == ""; i++ {
		id := fmt.Sprintf("change-%d", i)
		if FailsOnFirstAttempt(id) {
			if failing == "" {
				failing = id
			}
		} else if passing == "" {
			passing = id
		}
	}
	return failing, passing
}

func fastSimulator(offline func() bool) *Simulator {
	return NewSimulator(SimulatorOptions{Latency: time.Millisecond, Offline: offline})
}

func TestSimulator_ScriptedFailureOnlyOnFirstAttempt(t *testing.T) {
	s := fastSimulator(nil)
	failing, passing := idsBySchedule(t)
	ctx := context.Background()

	err := s.AttemptSync(ctx, models.ChangeQueueItem{ID: failing, Attempts: 0})
	require.ErrorIs(t, err, ErrScriptedFailure)

	require.NoError(t, s.AttemptSync(ctx, models.ChangeQueueItem{ID: failing, Attempts: 1}))
	require.NoError(t, s.AttemptSync(ctx, models.ChangeQueueItem{ID: passing, Attempts: 0}))
	assert.EqualValues(t, 3, s.Calls())
}

func TestSimulator_ScriptedFailuresCanBeDisabled(t *testing.T) {
	s := NewSimulator(SimulatorOptions{Latency: time.Millisecond, DisableScriptedFailures: true})
	failing, _ := idsBySchedule(t)

	require.NoError(t, s.AttemptSync(context.Background(), models.ChangeQueueItem{ID: failing}))
}

func TestSimulator_ForcedFailureConsumedOnce(t *testing.T) {
	s := fastSimulator(nil)
	_, passing := idsBySchedule(t)
	ctx := context.Background()

	s.FailNext()
	require.ErrorIs(t, s.AttemptSync(ctx, models.ChangeQueueItem{ID: passing}), ErrForcedFailure)
	require.NoError(t, s.AttemptSync(ctx, models.ChangeQueueItem{ID: passing}))
}

func TestSimulator_Offline(t *testing.T) {
	var conn Connectivity
	s := fastSimulator(conn.Offline)
	_, passing := idsBySchedule(t)
	ctx := context.Background()

	conn.Force(true)
	require.ErrorIs(t, s.AttemptSync(ctx, models.ChangeQueueItem{ID: passing, Attempts: 3}), ErrOffline)

	conn.Force(false)
	require.NoError(t, s.AttemptSync(ctx, models.ChangeQueueItem{ID: passing, Attempts: 3}))
}

func TestSimulator_OutcomeDecidedAtCallStart(t *testing.T) {
	var conn Connectivity
	s := NewSimulator(SimulatorOptions{Latency: 50 * time.Millisecond, Offline: conn.Offline})
	_, passing := idsBySchedule(t)

	done := make(chan error, 1)
	go func() { done <- s.AttemptSync(context.Background(), models.ChangeQueueItem{ID: passing}) }()

	time.Sleep(10 * time.Millisecond)
	conn.Force(true)

	require.NoError(t, <-done)
}

func TestSimulator_WaitsLatencyAndHonorsContext(t *testing.T) {
	s := NewSimulator(SimulatorOptions{Latency: 30 * time.Millisecond})
	_, passing := idsBySchedule(t)

	start := time.Now()
	require.NoError(t, s.AttemptSync(context.Background(), models.ChangeQueueItem{ID: passing}))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, s.AttemptSync(ctx, models.ChangeQueueItem{ID: passing}), context.Canceled)
}

func TestNewSimulator_DefaultLatency(t *testing.T) {
	s := NewSimulator(SimulatorOptions{})
	assert.Equal(t, DefaultLatency, s.latency)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestFailsOnFirstAttempt_IsDeterministic(t *testing.T) {
	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("x-%d", i)
		assert.Equal(t, FailsOnFirstAttempt(id), FailsOnFirstAttempt(id))
	}
}

func TestConnectivity(t *testing.T) {
	var c Connectivity
	assert.False(t, c.Offline())

	c.Report(false)
	assert.True(t, c.Offline())
	assert.False(t, c.Forced())

	c.Report(true)
	c.Force(true)
	assert.True(t, c.Offline())
	assert.True(t, c.Forced())

	c.Force(false)
	assert.False(t, c.Offline())
}

func TestWithOfflineGate(t *testing.T) {
	var c Connectivity
	inner := fastSimulator(nil)
	inner.scripted = false
	r := WithOfflineGate(inner, c.Offline)

	c.Force(true)
	err := r.AttemptSync(context.Background(), models.ChangeQueueItem{ID: "x", Attempts: 1})
	require.ErrorIs(t, err, ErrOffline)
	assert.Zero(t, inner.Calls())

	c.Force(false)
	require.NoError(t, r.AttemptSync(context.Background(), models.ChangeQueueItem{ID: "x", Attempts: 1}))
	assert.EqualValues(t, 1, inner.Calls())
}
