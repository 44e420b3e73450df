package server

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/todoledger/sdk-go/types"
)

// Client talks to a remote Tracker service.
type Client struct {
	cc     *grpc.ClientConn
	client TrackerClient

	// Timeout bounds Create, List and Refresh calls. Await is bounded by its
	// own timeout plus this value.
	Timeout time.Duration
}

// Dial connects to target without transport security.
func Dial(target string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	cc, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}
	return NewClient(cc), nil
}

// NewClient wraps an existing connection.
func NewClient(cc *grpc.ClientConn) *Client {
	return &Client{cc: cc, client: NewTrackerClient(cc), Timeout: 30 * time.Second}
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

// Create submits a new record. requestID may be empty; reusing a request id
// returns the original handle instead of dispatching twice.
func (c *Client) Create(ctx context.Context, requestID, title, description string) (types.TransactionHandle, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	in, err := structpb.NewStruct(map[string]interface{}{
		"request_id":  requestID,
		"title":       title,
		"description": description,
	})
	if err != nil {
		return types.TransactionHandle{}, err
	}
	out, err := c.client.Create(ctx, in)
	if err != nil {
		return types.TransactionHandle{}, mapRPC(err)
	}
	f := out.GetFields()
	return types.NewTransactionHandle(f["request_id"].GetStringValue(), f["tx_hash"].GetStringValue()), nil
}

// Await waits up to timeout for handle to resolve. A refresh failure after a
// confirmation is returned as an error wrapping types.ErrRead alongside the
// Confirmed result.
func (c *Client) Await(ctx context.Context, handle types.TransactionHandle, timeout time.Duration) (types.Confirmation, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout+c.Timeout)
	defer cancel()

	in, err := structpb.NewStruct(map[string]interface{}{
		"request_id": handle.RequestID(),
		"tx_hash":    handle.TxHash(),
		"timeout_ms": timeout.Milliseconds(),
	})
	if err != nil {
		return types.Confirmation{}, err
	}
	out, err := c.client.Await(ctx, in)
	if err != nil {
		return types.Confirmation{Handle: handle}, mapRPC(err)
	}
	f := out.GetFields()
	conf := types.Confirmation{
		Handle:      handle,
		Outcome:     parseOutcome(f["outcome"].GetStringValue()),
		BlockNumber: uint64(f["block_number"].GetNumberValue()),
		GasUsed:     uint64(f["gas_used"].GetNumberValue()),
	}
	if msg := f["refresh_error"].GetStringValue(); msg != "" {
		return conf, fmt.Errorf("%w: %s", types.ErrRead, msg)
	}
	return conf, nil
}

// List returns the server's current record view.
func (c *Client) List(ctx context.Context) ([]types.RecordView, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	out, err := c.client.List(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, mapRPC(err)
	}
	return parseRecords(out), nil
}

// Refresh asks the server to re-read the ledger and returns the new view.
func (c *Client) Refresh(ctx context.Context) ([]types.RecordView, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	out, err := c.client.Refresh(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, mapRPC(err)
	}
	return parseRecords(out), nil
}

func parseRecords(s *structpb.Struct) []types.RecordView {
	values := s.GetFields()["records"].GetListValue().GetValues()
	records := make([]types.RecordView, 0, len(values))
	for _, v := range values {
		f := v.GetStructValue().GetFields()
		records = append(records, types.RecordView{
			Title:       f["title"].GetStringValue(),
			Description: f["description"].GetStringValue(),
			Completed:   f["completed"].GetBoolValue(),
		})
	}
	return records
}

func parseOutcome(s string) types.Outcome {
	for _, o := range []types.Outcome{types.OutcomeConfirmed, types.OutcomeReverted, types.OutcomeTimedOut} {
		if o.String() == s {
			return o
		}
	}
	return types.OutcomeUnknown
}
