package grpc

import (
	"context"
	"path"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// loggingInterceptor counts every call and logs the failed ones.
func (s *GRPCServer) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	method := path.Base(info.FullMethod)
	code := status.Code(err)
	s.requests.WithLabelValues(method, code.String()).Inc()

	if err != nil {
		s.logger.Warn(ctx, "request failed", "method", method, "code", code.String(), "duration", time.Since(start), "error", err)
	} else {
		s.logger.Debug(ctx, "request served", "method", method, "duration", time.Since(start))
	}
	return resp, err
}
