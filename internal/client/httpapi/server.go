package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/labkeeper/internal/logging"
)

const shutdownTimeout = 5 * time.Second

// Server serves the API until its context is cancelled.
type Server struct {
	srv    *http.Server
	logger logging.Logger
}

func NewServer(addr string, h http.Handler, l logging.Logger) *Server {
	if l == nil {
		l = logging.Discard()
	}
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           h,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: l.With("module", "httpapi"),
	}
}

// Run listens on the configured address and shuts down gracefully when
// ctx is done.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.Serve(ctx, lis)
}

func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "status API listening", "addr", lis.Addr().String())
		if err := s.srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	s.logger.Info(ctx, "status API stopped")
	return nil
}
