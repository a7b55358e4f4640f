package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/labkeeper/internal/common"
	pb "github.com/dmitrijs2005/labkeeper/internal/proto"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

func (s *GRPCServer) PushChange(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	c, err := pb.ChangeFromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	total, err := s.receipts.Record(ctx, c)
	if err != nil {
		if errors.Is(err, common.ErrValidation) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		s.logger.Error(ctx, err.Error())
		return nil, status.Error(codes.Internal, common.ErrorInternal.Error())
	}

	s.logger.Info(ctx, "Change received", "change", c.ID, "entry", c.EntryID, "blocks", len(c.BlockIDs), "attempts", c.Attempts, "entry_changes", total)
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *emptypb.Empty) (*emptypb.Empty, error) {
	return &emptypb.Empty{}, nil
}
