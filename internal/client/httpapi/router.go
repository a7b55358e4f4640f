package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dmitrijs2005/labkeeper/internal/buildinfo"
	"github.com/dmitrijs2005/labkeeper/internal/client/models"
	"github.com/dmitrijs2005/labkeeper/internal/client/syncqueue"
	"github.com/dmitrijs2005/labkeeper/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Queue is the part of the sync engine the API serves.
type Queue interface {
	Items() []models.ChangeQueueItem
	ItemsForEntry(entryID string) []models.ChangeQueueItem
	Summary() syncqueue.Summary
	SyncNow(ctx context.Context, opts syncqueue.SyncOptions) bool
	RetryChange(ctx context.Context, changeID string) bool
	ClearSynced(entryID string) int
}

type Options struct {
	Queue    Queue
	Offline  func() bool
	Gatherer prometheus.Gatherer
	Logger   logging.Logger
}

type handler struct {
	queue   Queue
	offline func() bool
	logger  logging.Logger
}

type statusResponse struct {
	syncqueue.Summary
	Offline bool   `json:"offline"`
	Version string `json:"version"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewRouter builds the API routes.
func NewRouter(opts Options) http.Handler {
	h := &handler{queue: opts.Queue, offline: opts.Offline, logger: opts.Logger}
	if h.offline == nil {
		h.offline = func() bool { return false }
	}
	if h.logger == nil {
		h.logger = logging.Discard()
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.requestLogger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", h.status)
		r.Get("/queue", h.listQueue)
		r.Delete("/queue/synced", h.clearSynced)
		r.Post("/queue/{id}/retry", h.retry)
		r.Post("/sync", h.sync)
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return r
}

func (h *handler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Summary: h.queue.Summary(),
		Offline: h.offline(),
		Version: buildinfo.Version,
	})
}

// listQueue returns items most recent first, optionally for one entry.
func (h *handler) listQueue(w http.ResponseWriter, r *http.Request) {
	var items []models.ChangeQueueItem
	if entryID := r.URL.Query().Get("entryId"); entryID != "" {
		items = h.queue.ItemsForEntry(entryID)
	} else {
		items = h.queue.Items()
	}
	if items == nil {
		items = []models.ChangeQueueItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *handler) clearSynced(w http.ResponseWriter, r *http.Request) {
	n := h.queue.ClearSynced(r.URL.Query().Get("entryId"))
	writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}

func (h *handler) retry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.queue.RetryChange(context.WithoutCancel(r.Context()), id) {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "change is unknown, synced or a sync run is in progress"})
		return
	}
	writeJSON(w, http.StatusOK, h.queue.Summary())
}

// sync runs the batch to completion even if the caller goes away; a
// dropped observer must not turn queued changes into failures.
func (h *handler) sync(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := syncqueue.SyncOptions{
		EntryID:       q.Get("entryId"),
		IncludeFailed: q.Get("includeFailed") == "true",
	}
	if !h.queue.SyncNow(context.WithoutCancel(r.Context()), opts) {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "a sync run is in progress"})
		return
	}
	writeJSON(w, http.StatusOK, h.queue.Summary())
}

func (h *handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		args := []any{"method", r.Method, "path", r.URL.Path, "status", ww.Status(), "duration", time.Since(start)}
		if ww.Status() >= http.StatusInternalServerError {
			h.logger.Error(r.Context(), "http request", args...)
			return
		}
		h.logger.Info(r.Context(), "http request", args...)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
