// Package server initializes and runs the sync receiver: the gRPC endpoint
// notebook clients push changes to, backed by PostgreSQL, plus an optional
// Prometheus listener.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/dmitrijs2005/labkeeper/internal/logging"
	"github.com/dmitrijs2005/labkeeper/internal/server/config"
	"github.com/dmitrijs2005/labkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/labkeeper/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/labkeeper/internal/server/grpc"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	registry *prometheus.Registry
	grpc     *gs.GRPCServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, slog.LevelInfo)

	rm := repomanager.NewPostgresRepositoryManager()
	db, err := repomanager.Open(ctx, c.DatabaseDSN, rm)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewDBStatsCollector(db, "receipts"))

	rs := services.NewReceiptService(db, rm, nil)
	srv, err := gs.NewGRPCServer(c.EndpointAddrGRPC, logger, rs, registry)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &App{config: c, logger: logger, db: db, registry: registry, grpc: srv}, nil
}

// Run serves until ctx is cancelled or one of the listeners fails.
func (app *App) Run(ctx context.Context) error {
	defer app.db.Close()

	app.logger.Info(ctx, "Starting app...")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.grpc.Run(gctx) })
	if app.config.MetricsAddr != "" {
		g.Go(func() error { return app.runMetrics(gctx) })
	}

	err := g.Wait()
	app.logger.Info(ctx, "App stopped")
	return err
}

func (app *App) runMetrics(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: app.config.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info(ctx, "Starting metrics server", "address", app.config.MetricsAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
