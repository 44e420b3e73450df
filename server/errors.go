package server

import (
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/todoledger/sdk-go/types"
)

// mapRPC turns a status from the server back into the SDK's typed errors.
func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	var sentinel error
	switch st.Code() {
	case codes.InvalidArgument:
		sentinel = types.ErrInvalidRequest
	case codes.AlreadyExists:
		sentinel = types.ErrDuplicateRequest
	case codes.FailedPrecondition:
		sentinel = types.ErrUnsupportedNetwork
	case codes.Unauthenticated:
		sentinel = types.ErrSigningUnavailable
	case codes.Unavailable:
		sentinel = types.ErrDispatchFailed
	case codes.Aborted:
		sentinel = types.ErrRead
	case codes.Unknown:
		sentinel = types.ErrAwaitFailed
	default:
		return err
	}
	return fmt.Errorf("%w: %s", sentinel, st.Message())
}
