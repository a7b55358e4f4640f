package blobstore

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type RouterOptions struct {
	CacheSize  int
	CacheTTL   time.Duration
	Registerer prometheus.Registerer
}

// Router reads a locator from the backend registered for its scheme.
// Reads go through an LRU cache keyed by locator; locators never change
// content, so entries are only evicted by size or TTL.
// Register backends before the first Read.
type Router struct {
	backends map[string]Reader
	cache    *expirable.LRU[string, []byte]
	hits     prometheus.Counter
	misses   prometheus.Counter
}

func NewRouter(opts RouterOptions) *Router {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 64
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	f := promauto.With(opts.Registerer)
	return &Router{
		backends: make(map[string]Reader),
		cache:    expirable.NewLRU[string, []byte](opts.CacheSize, nil, opts.CacheTTL),
		hits: f.NewCounter(prometheus.CounterOpts{
			Name: "labkeeper_blob_cache_hits_total",
			Help: "Blob reads served from the cache.",
		}),
		misses: f.NewCounter(prometheus.CounterOpts{
			Name: "labkeeper_blob_cache_misses_total",
			Help: "Blob reads that went to a backend.",
		}),
	}
}

func (r *Router) Register(scheme string, backend Reader) *Router {
	r.backends[scheme] = backend
	return r
}

func (r *Router) Read(ctx context.Context, loc string) ([]byte, error) {
	backend, ok := r.backends[Scheme(loc)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, loc)
	}

	if data, ok := r.cache.Get(loc); ok {
		r.hits.Inc()
		return slices.Clone(data), nil
	}
	r.misses.Inc()

	data, err := backend.Read(ctx, loc)
	if err != nil {
		return nil, err
	}
	r.cache.Add(loc, slices.Clone(data))
	return data, nil
}
