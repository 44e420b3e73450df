package server

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	sdklog "github.com/todoledger/sdk-go/pkg/log"
	"github.com/todoledger/sdk-go/types"
)

// Service is the tracker surface exposed over gRPC. *client.Client implements it.
type Service interface {
	Submit(ctx context.Context, req types.WriteRequest) (types.TransactionHandle, error)
	Await(ctx context.Context, handle types.TransactionHandle, timeout time.Duration) (types.Confirmation, error)
	Records() []types.RecordView
	Refresh(ctx context.Context) ([]types.RecordView, error)
}

// Server exposes a Service over the Tracker gRPC service.
type Server struct {
	UnimplementedTrackerServer
	Service Service
}

func (s *Server) Create(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if s == nil || s.Service == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing tracker service")
	}
	fields := in.GetFields()
	req := types.NewCreateRecordRequest(fields["title"].GetStringValue(), fields["description"].GetStringValue())
	if id := fields["request_id"].GetStringValue(); id != "" {
		req.ID = id
	}
	handle, err := s.Service.Submit(ctx, req)
	if err != nil {
		return nil, mapErr(err)
	}
	return structpb.NewStruct(map[string]interface{}{
		"request_id": handle.RequestID(),
		"tx_hash":    handle.TxHash(),
	})
}

func (s *Server) Await(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if s == nil || s.Service == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing tracker service")
	}
	fields := in.GetFields()
	txHash := fields["tx_hash"].GetStringValue()
	if txHash == "" {
		return nil, status.Error(codes.InvalidArgument, "tx_hash is required")
	}
	timeout := time.Duration(fields["timeout_ms"].GetNumberValue()) * time.Millisecond
	handle := types.NewTransactionHandle(fields["request_id"].GetStringValue(), txHash)

	conf, err := s.Service.Await(ctx, handle, timeout)
	out := map[string]interface{}{
		"tx_hash":      txHash,
		"outcome":      conf.Outcome.String(),
		"block_number": conf.BlockNumber,
		"gas_used":     conf.GasUsed,
	}
	if err != nil {
		if conf.Outcome != types.OutcomeConfirmed {
			return nil, mapErr(err)
		}
		out["refresh_error"] = err.Error()
	}
	return structpb.NewStruct(out)
}

func (s *Server) List(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if s == nil || s.Service == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing tracker service")
	}
	return recordsStruct(s.Service.Records())
}

func (s *Server) Refresh(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if s == nil || s.Service == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing tracker service")
	}
	records, err := s.Service.Refresh(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	return recordsStruct(records)
}

func recordsStruct(records []types.RecordView) (*structpb.Struct, error) {
	list := make([]interface{}, 0, len(records))
	for _, r := range records {
		list = append(list, map[string]interface{}{
			"title":       r.Title,
			"description": r.Description,
			"completed":   r.Completed,
		})
	}
	return structpb.NewStruct(map[string]interface{}{"records": list})
}

// UnaryLogger logs every call with its status code and latency.
func UnaryLogger(logger sdklog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		if err != nil && code != codes.InvalidArgument {
			sdklog.Warnf(logger, "%s %s in %s: %v", info.FullMethod, code, time.Since(start), err)
		} else {
			sdklog.Debugf(logger, "%s %s in %s", info.FullMethod, code, time.Since(start))
		}
		return resp, err
	}
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	case errors.Is(err, types.ErrInvalidRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, types.ErrDuplicateRequest):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, types.ErrUnsupportedNetwork):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, types.ErrSigningUnavailable):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, types.ErrDispatchFailed):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, types.ErrRead):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, types.ErrAwaitFailed):
		return status.Error(codes.Unknown, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
