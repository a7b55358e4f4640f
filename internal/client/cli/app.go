package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dmitrijs2005/labkeeper/internal/client/blobstore"
	"github.com/dmitrijs2005/labkeeper/internal/client/client"
	"github.com/dmitrijs2005/labkeeper/internal/client/config"
	"github.com/dmitrijs2005/labkeeper/internal/client/httpapi"
	"github.com/dmitrijs2005/labkeeper/internal/client/repositories/snapshots"
	"github.com/dmitrijs2005/labkeeper/internal/client/search"
	"github.com/dmitrijs2005/labkeeper/internal/client/services"
	"github.com/dmitrijs2005/labkeeper/internal/client/store"
	"github.com/dmitrijs2005/labkeeper/internal/client/syncqueue"
	"github.com/dmitrijs2005/labkeeper/internal/filex"
	"github.com/dmitrijs2005/labkeeper/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

type Mode string

const (
	ModeOffline  Mode = "offline"
	ModeOnline   Mode = "online"
	ModeDisabled Mode = "disabled"
)

// App is the running notebook: every component wired together.
type App struct {
	config *config.Config
	logger logging.Logger

	db        *sql.DB
	store     *store.Store
	persister *store.Persister
	engine    *syncqueue.Engine
	notebook  services.NotebookService
	conn      *client.Connectivity
	pinger    client.Pinger
	simulator *client.Simulator
	closers   []io.Closer
	registry  *prometheus.Registry

	out     io.Writer
	scanner *bufio.Scanner
	styled  bool

	modeMu sync.Mutex
	Mode   Mode
}

// NewApp opens the local database under the data directory, hydrates the
// store and wires the sync engine, blob storage and search index.
func NewApp(ctx context.Context, c *config.Config, l logging.Logger) (*App, error) {
	if l == nil {
		l = logging.Discard()
	}

	dataDir, err := filex.EnsureDir(filepath.Dir(c.DataDir), filepath.Base(c.DataDir))
	if err != nil {
		return nil, fmt.Errorf("error preparing data dir: %w", err)
	}

	db, err := client.InitDatabase(ctx, filepath.Join(dataDir, "labkeeper.db"))
	if err != nil {
		l.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	a := &App{
		config:   c,
		logger:   l,
		db:       db,
		conn:     &client.Connectivity{},
		registry: prometheus.NewRegistry(),
		out:      os.Stdout,
		scanner:  bufio.NewScanner(os.Stdin),
		styled:   isTerminal(os.Stdout),
		Mode:     ModeOnline,
	}
	a.registry.MustRegister(collectors.NewGoCollector())

	if err := a.wire(ctx, dataDir); err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ctx context.Context, dataDir string) error {
	c := a.config

	repo := snapshots.NewSQLiteRepository(a.db)
	a.store = store.New(store.Options{})
	if err := a.store.Hydrate(ctx, repo, store.DefaultSeeds(time.Now())); err != nil {
		return fmt.Errorf("error loading notebook: %w", err)
	}
	a.persister = store.NewPersister(a.store, repo, c.FlushInterval, a.logger)

	remote, err := a.newRemote()
	if err != nil {
		return err
	}
	a.engine = syncqueue.NewEngine(syncqueue.Options{
		Remote:     remote,
		Logger:     a.logger,
		Registerer: a.registry,
		DrainDelay: c.DrainDelay,
	})

	blobs, err := a.newBlobStores(ctx, dataDir)
	if err != nil {
		return err
	}

	a.notebook = services.NewNotebookService(services.Options{
		Store:    a.store,
		Queue:    a.engine,
		Blobs:    blobs,
		Reader:   blobs,
		Indexer:  search.NewSQLiteIndexer(a.db),
		Logger:   a.logger,
		AuthorID: c.AuthorID,
	})
	if err := a.notebook.Reindex(ctx); err != nil {
		a.logger.Warn(ctx, "search index rebuild failed", "error", err)
	}
	return nil
}

func (a *App) newRemote() (client.Remote, error) {
	switch a.config.RemoteMode {
	case config.RemoteGRPC:
		gc, err := client.NewGRPCClient(a.config.SyncEndpointAddr)
		if err != nil {
			return nil, fmt.Errorf("error creating sync client: %w", err)
		}
		a.closers = append(a.closers, gc)
		a.pinger = gc
		return client.WithOfflineGate(gc, a.conn.Offline), nil
	default:
		a.simulator = client.NewSimulator(client.SimulatorOptions{
			Latency:                 a.config.SimulatorLatency,
			Offline:                 a.conn.Offline,
			DisableScriptedFailures: a.config.DisableScriptedFailures,
		})
		a.pinger = a.simulator
		return a.simulator, nil
	}
}

// newBlobStores writes new attachments to the configured backend, falling
// back to the other local one, and reads every locator scheme this app can
// produce.
func (a *App) newBlobStores(ctx context.Context, dataDir string) (blobstore.Store, error) {
	c := a.config

	fsStore, err := blobstore.NewFileStore(filepath.Join(dataDir, "blobs"), nil)
	if err != nil {
		return nil, err
	}
	dbStore := blobstore.NewDBStore(a.db)

	router := blobstore.NewRouter(blobstore.RouterOptions{
		CacheSize:  c.BlobCacheSize,
		CacheTTL:   c.BlobCacheTTL,
		Registerer: a.registry,
	}).Register(blobstore.SchemeFS, fsStore).Register(blobstore.SchemeIDB, dbStore)

	var primary, secondary blobstore.Writer = dbStore, fsStore
	switch c.BlobBackend {
	case config.BlobFS:
		primary, secondary = fsStore, dbStore
	case config.BlobS3:
		s3Store, err := blobstore.NewS3Store(ctx, blobstore.S3Config{
			Region:       c.S3.Region,
			BaseEndpoint: c.S3.Endpoint,
			AccessKey:    c.S3.AccessKey,
			SecretKey:    c.S3.SecretKey,
			Bucket:       c.S3.Bucket,
			Prefix:       c.S3.Prefix,
		}, nil)
		if err != nil {
			return nil, fmt.Errorf("error creating s3 store: %w", err)
		}
		router.Register(blobstore.SchemeS3, s3Store)
		primary = s3Store
	}

	fallback := &blobstore.Fallback{Primary: primary, Secondary: secondary, Logger: a.logger}
	return blobstore.Combine(fallback, router), nil
}

// Run starts the background services and blocks in the REPL until the user
// quits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			a.logger.Error(ctx, "shutdown failed", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.persister.Run(gctx)
		return nil
	})
	g.Go(func() error {
		a.StartOnlineStatusWatcher(gctx, a.config.OnlineCheckInterval)
		return nil
	})
	states, unsubscribe := a.engine.Subscribe()
	defer unsubscribe()
	g.Go(func() error {
		a.watchQueue(gctx, states)
		return nil
	})
	if a.config.StatusAddr != "" {
		srv := httpapi.NewServer(a.config.StatusAddr, a.StatusHandler(), a.logger)
		g.Go(func() error { return srv.Run(gctx) })
	}

	a.Root(gctx)
	cancel()
	return g.Wait()
}

// watchQueue logs every change of the aggregate sync indicator.
func (a *App) watchQueue(ctx context.Context, states <-chan syncqueue.State) {
	last := a.engine.Summary().Indicator
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-states:
			if !ok {
				return
			}
			if st.Summary.Indicator == last {
				continue
			}
			a.logger.Info(ctx, "sync state changed", "from", last, "to", st.Summary.Indicator,
				"pending", st.Summary.Pending, "failed", st.Summary.Failed)
			last = st.Summary.Indicator
		}
	}
}

// StatusHandler serves the queue API and metrics of this app.
func (a *App) StatusHandler() http.Handler {
	return httpapi.NewRouter(httpapi.Options{Queue: a.engine, Offline: a.conn.Offline, Gatherer: a.registry, Logger: a.logger})
}

// Notebook exposes the editing service for non-interactive commands.
func (a *App) Notebook() services.NotebookService {
	return a.notebook
}

// Close stops the sync engine, flushes pending snapshots and releases the
// database and remote connections.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.engine != nil {
		a.engine.Close()
	}
	if a.persister != nil {
		if err := a.persister.Flush(ctx); err != nil {
			errs = append(errs, err)
		}
		a.persister = nil
	}
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, err)
		}
		a.db = nil
	}
	return errors.Join(errs...)
}

func (a *App) setMode(mode Mode) {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()

	if a.Mode != mode {
		a.Mode = mode
		a.logger.Info(context.Background(), "switched mode", "mode", mode)
	}
}

func (a *App) mode() Mode {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	return a.Mode
}

// StartOnlineStatusWatcher pings the remote every interval and feeds the
// result into the offline signal until ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := a.pinger.Ping(pctx)
	cancel()

	a.conn.Report(err == nil)
	switch {
	case a.conn.Forced():
		a.setMode(ModeDisabled)
	case err != nil:
		a.setMode(ModeOffline)
	default:
		a.setMode(ModeOnline)
	}
}
