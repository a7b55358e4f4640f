package client

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/labkeeper/internal/client/models"
	pb "github.com/dmitrijs2005/labkeeper/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

const pingTimeout = 3 * time.Second

// GRPCClient is the Remote backed by the sync receiver.
type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      pb.SyncServiceClient
}

// NewGRPCClient prepares a lazy connection to endpointURL; nothing is dialed
// until the first call. Extra options are applied after plaintext transport
// credentials, so tests can swap the dialer.
func NewGRPCClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)

	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("sync endpoint %s: %w", endpointURL, err)
	}
	return &GRPCClient{endpointURL: endpointURL, conn: conn, client: pb.NewSyncServiceClient(conn)}, nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) AttemptSync(ctx context.Context, item models.ChangeQueueItem) error {
	req, err := pb.Change{
		ID:        item.ID,
		EntryID:   item.EntryID,
		BlockIDs:  item.Blocks,
		UpdatedAt: item.UpdatedAt,
		Attempts:  item.Attempts,
	}.ToStruct()
	if err != nil {
		return fmt.Errorf("encode change %s: %w", item.ID, err)
	}

	if _, err := s.client.PushChange(ctx, req); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if _, err := s.client.Ping(ctx, &emptypb.Empty{}); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
