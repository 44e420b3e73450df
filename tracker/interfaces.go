package tracker

import (
	"context"
	"time"

	"github.com/todoledger/sdk-go/types"
)

// Dispatcher sends state-changing calls to the ledger and returns the tx hash.
type Dispatcher interface {
	CreateRecord(ctx context.Context, nc types.NetworkContext, payload types.RecordPayload) (string, error)
}

// ReceiptWaiter blocks until a tx is mined. When nothing is observed within
// timeout the error wraps types.ErrTimedOut.
type ReceiptWaiter interface {
	WaitForReceipt(ctx context.Context, txHash string, timeout time.Duration) (*types.Receipt, error)
}

// Reader fetches the full record sequence from the ledger.
type Reader interface {
	GetAllRecords(ctx context.Context) ([]types.RecordView, error)
}

// ConfirmedSubscriber is told once about every handle that resolves Confirmed.
type ConfirmedSubscriber interface {
	OnConfirmed(ctx context.Context, c types.Confirmation) error
}
