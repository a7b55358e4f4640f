// Package grpc exposes the sync receiver over gRPC.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/labkeeper/internal/logging"
	pb "github.com/dmitrijs2005/labkeeper/internal/proto"
	"github.com/dmitrijs2005/labkeeper/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
)

type GRPCServer struct {
	pb.UnimplementedSyncServiceServer
	address  string
	receipts services.ReceiptService
	logger   logging.Logger
	requests *prometheus.CounterVec
}

// NewGRPCServer builds the server. Request counters are registered with
// reg when it is not nil.
func NewGRPCServer(a string, l logging.Logger, rs services.ReceiptService, reg prometheus.Registerer) (*GRPCServer, error) {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "labkeeper",
		Subsystem: "syncd",
		Name:      "requests_total",
		Help:      "gRPC requests handled, by method and status code.",
	}, []string{"method", "code"})
	if reg != nil {
		if err := reg.Register(requests); err != nil {
			return nil, err
		}
	}

	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		receipts: rs,
		requests: requests,
	}, nil
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	pb.RegisterSyncServiceServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}
