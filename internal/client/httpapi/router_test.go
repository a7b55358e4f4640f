package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/labkeeper/internal/client/models"
	"github.com/dmitrijs2005/labkeeper/internal/client/syncqueue"
	"github.com/dmitrijs2005/labkeeper/internal/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingRemote struct {
	mu   sync.Mutex
	fail map[string]bool
}

func (r *failingRemote) AttemptSync(ctx context.Context, it models.ChangeQueueItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail[it.EntryID] {
		return errors.New("remote said no")
	}
	return nil
}

func newTestAPI(t *testing.T) (*httptest.Server, *syncqueue.Engine, *failingRemote) {
	t.Helper()
	reg := prometheus.NewRegistry()
	remote := &failingRemote{fail: map[string]bool{}}
	engine := syncqueue.NewEngine(syncqueue.Options{
		Remote:           remote,
		Registerer:       reg,
		NewID:            common.SequenceIDs("c"),
		DisableAutoDrain: true,
	})
	t.Cleanup(engine.Close)

	srv := httptest.NewServer(NewRouter(Options{
		Queue:    engine,
		Offline:  func() bool { return true },
		Gatherer: reg,
	}))
	t.Cleanup(srv.Close)
	return srv, engine, remote
}

func do(t *testing.T, method, url string, out any) int {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestQueueEndpoints(t *testing.T) {
	srv, engine, remote := newTestAPI(t)
	remote.fail["e2"] = true

	engine.Enqueue("e1", []string{"b1"}, time.Time{})
	engine.Enqueue("e2", []string{"b2"}, time.Time{})

	var items []models.ChangeQueueItem
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, srv.URL+"/api/queue", &items))
	require.Len(t, items, 2)
	assert.Equal(t, "e2", items[0].EntryID, "most recent first")

	items = nil
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, srv.URL+"/api/queue?entryId=e1", &items))
	require.Len(t, items, 1)

	var sum syncqueue.Summary
	require.Equal(t, http.StatusOK, do(t, http.MethodPost, srv.URL+"/api/sync", &sum))
	assert.Equal(t, 1, sum.Synced)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, syncqueue.IndicatorFailed, sum.Indicator)

	var status struct {
		syncqueue.Summary
		Offline bool   `json:"offline"`
		Version string `json:"version"`
	}
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, srv.URL+"/api/status", &status))
	assert.True(t, status.Offline)
	assert.Equal(t, 1, status.Failed)
	assert.NotEmpty(t, status.Version)

	failed := engine.ItemsForEntry("e2")[0]
	remote.fail["e2"] = false
	require.Equal(t, http.StatusOK, do(t, http.MethodPost, srv.URL+"/api/queue/"+failed.ID+"/retry", &sum))
	assert.Equal(t, 2, sum.Synced)

	require.Equal(t, http.StatusConflict, do(t, http.MethodPost, srv.URL+"/api/queue/"+failed.ID+"/retry", nil))
	require.Equal(t, http.StatusConflict, do(t, http.MethodPost, srv.URL+"/api/queue/unknown/retry", nil))

	var removed map[string]int
	require.Equal(t, http.StatusOK, do(t, http.MethodDelete, srv.URL+"/api/queue/synced?entryId=e1", &removed))
	assert.Equal(t, 1, removed["removed"])
	assert.Len(t, engine.Items(), 1)
}

func TestQueueEmptyListIsArray(t *testing.T) {
	srv, _, _ := newTestAPI(t)

	resp, err := http.Get(srv.URL + "/api/queue")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(body))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestMetricsEndpoint(t *testing.T) {
	srv, engine, _ := newTestAPI(t)
	engine.Enqueue("e1", nil, time.Time{})
	engine.SyncNow(context.Background(), syncqueue.SyncOptions{})

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `labkeeper_sync_attempts_total{result="success"} 1`))
}

func TestServer_ShutsDownOnCancel(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := NewServer("", http.NotFoundHandler(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, lis) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + lis.Addr().String() + "/")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusNotFound
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

type ctxRemote struct{}

func (ctxRemote) AttemptSync(ctx context.Context, it models.ChangeQueueItem) error {
	return ctx.Err()
}

func TestSyncIgnoresCallerCancellation(t *testing.T) {
	reg := prometheus.NewRegistry()
	engine := syncqueue.NewEngine(syncqueue.Options{
		Remote:           ctxRemote{},
		Registerer:       reg,
		NewID:            common.SequenceIDs("c"),
		DisableAutoDrain: true,
	})
	t.Cleanup(engine.Close)
	h := NewRouter(Options{Queue: engine, Offline: func() bool { return false }, Gatherer: reg})

	engine.Enqueue("e1", []string{"b1"}, time.Time{})
	engine.Enqueue("e2", []string{"b2"}, time.Time{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sync", nil).WithContext(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
	for _, it := range engine.Items() {
		assert.Equal(t, models.StatusSynced, it.Status, it.ID)
	}

	failed := engine.Enqueue("e3", []string{"b3"}, time.Time{})
	require.True(t, engine.SyncNow(ctx, syncqueue.SyncOptions{}))
	got, _ := engine.Item(failed.ID)
	require.Equal(t, models.StatusFailed, got.Status)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/queue/"+failed.ID+"/retry", nil).WithContext(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
	got, _ = engine.Item(failed.ID)
	assert.Equal(t, models.StatusSynced, got.Status)
}
