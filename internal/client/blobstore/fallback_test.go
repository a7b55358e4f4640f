package blobstore

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/labkeeper/internal/common"
	"github.com/dmitrijs2005/labkeeper/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	prefix string
	err    error
	data   map[string][]byte
	reads  int
}

func (s *stubStore) Write(ctx context.Context, data []byte, filename string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	loc := s.prefix + "://" + filename
	s.data[loc] = data
	return loc, nil
}

func (s *stubStore) Read(ctx context.Context, loc string) ([]byte, error) {
	s.reads++
	if d, ok := s.data[loc]; ok {
		return d, nil
	}
	return nil, ErrNotFound
}

func newStub(prefix string) *stubStore {
	return &stubStore{prefix: prefix, data: map[string][]byte{}}
}

func TestFallback_UsesPrimaryWhenHealthy(t *testing.T) {
	primary, secondary := newStub("idb"), newStub("fs")
	f := &Fallback{Primary: primary, Secondary: secondary, Logger: logging.Discard()}

	loc, err := f.Write(context.Background(), []byte("x"), "a")
	require.NoError(t, err)
	assert.Equal(t, "idb://a", loc)
	assert.Empty(t, secondary.data)
}

func TestFallback_LandsOnSecondaryWhenPrimaryFails(t *testing.T) {
	primary, secondary := newStub("idb"), newStub("fs")
	primary.err = common.ErrStorageUnavailable
	f := &Fallback{Primary: primary, Secondary: secondary}

	loc, err := f.Write(context.Background(), []byte("x"), "a")
	require.NoError(t, err)
	assert.Equal(t, "fs://a", loc)
}

func TestFallback_BothFail(t *testing.T) {
	primary, secondary := newStub("idb"), newStub("fs")
	primary.err = errors.New("p")
	secondary.err = errors.New("s")
	f := &Fallback{Primary: primary, Secondary: secondary, Logger: logging.Discard()}

	_, err := f.Write(context.Background(), []byte("x"), "a")
	require.ErrorIs(t, err, common.ErrStorageUnavailable)
}

func TestRouter_DispatchesByScheme(t *testing.T) {
	idb, fs := newStub("idb"), newStub("fs")
	idb.data["idb://k"] = []byte("from idb")
	fs.data["fs://k"] = []byte("from fs")

	r := NewRouter(RouterOptions{}).Register(SchemeIDB, idb).Register(SchemeFS, fs)
	ctx := context.Background()

	got, err := r.Read(ctx, "idb://k")
	require.NoError(t, err)
	assert.Equal(t, []byte("from idb"), got)

	got, err = r.Read(ctx, "fs://k")
	require.NoError(t, err)
	assert.Equal(t, []byte("from fs"), got)

	_, err = r.Read(ctx, "ftp://k")
	require.ErrorIs(t, err, ErrUnknownScheme)
	_, err = r.Read(ctx, "k")
	require.ErrorIs(t, err, ErrUnknownScheme)

	_, err = r.Read(ctx, "fs://missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRouter_CachesReads(t *testing.T) {
	idb := newStub("idb")
	idb.data["idb://k"] = []byte("v")
	reg := prometheus.NewRegistry()
	r := NewRouter(RouterOptions{CacheSize: 2, Registerer: reg}).Register(SchemeIDB, idb)

	for i := 0; i < 3; i++ {
		_, err := r.Read(context.Background(), "idb://k")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, idb.reads)
	assert.Equal(t, 2.0, testutil.ToFloat64(r.hits))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.misses))
}

func TestRouter_CachedBytesAreNotShared(t *testing.T) {
	idb := newStub("idb")
	idb.data["idb://k"] = []byte("gel")
	r := NewRouter(RouterOptions{CacheSize: 2, Registerer: prometheus.NewRegistry()}).Register(SchemeIDB, idb)
	ctx := context.Background()

	first, err := r.Read(ctx, "idb://k")
	require.NoError(t, err)
	first[0] = 'X'

	hit, err := r.Read(ctx, "idb://k")
	require.NoError(t, err)
	assert.Equal(t, "gel", string(hit))
	hit[1] = 'X'

	again, err := r.Read(ctx, "idb://k")
	require.NoError(t, err)
	assert.Equal(t, "gel", string(again))
	assert.Equal(t, 1, idb.reads)
}

func TestCombine(t *testing.T) {
	w, rd := newStub("fs"), newStub("fs")
	s := Combine(w, rd)

	loc, err := s.Write(context.Background(), []byte("x"), "a")
	require.NoError(t, err)
	_, err = s.Read(context.Background(), loc)
	require.ErrorIs(t, err, ErrNotFound, "reads go to the reader, not the writer")
}
