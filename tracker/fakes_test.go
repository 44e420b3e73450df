package tracker

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/todoledger/sdk-go/tracker/event"
	"github.com/todoledger/sdk-go/types"
)

type fakeSigner struct{}

func (fakeSigner) Address() common.Address {
	return common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
}

func (fakeSigner) TransactOpts(context.Context, *big.Int) (*bind.TransactOpts, error) {
	return &bind.TransactOpts{}, nil
}

var localNet = types.NetworkContext{ChainID: types.ChainLocalDev, Signer: fakeSigner{}}

// fakeLedger dispatches writes and mines them on demand.
type fakeLedger struct {
	mu       sync.Mutex
	calls    int
	err      error
	gate     chan struct{}
	entered  chan struct{}
	receipts map[string]*types.Receipt
	records  []types.RecordView
	readErr  error
	reads    atomic.Int32
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{receipts: make(map[string]*types.Receipt)}
}

func (l *fakeLedger) CreateRecord(ctx context.Context, _ types.NetworkContext, payload types.RecordPayload) (string, error) {
	l.mu.Lock()
	l.calls++
	n := l.calls
	err := l.err
	gate, entered := l.gate, l.entered
	l.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	l.mu.Lock()
	l.records = append(l.records, types.RecordView{Title: payload.Title, Description: payload.Description})
	l.mu.Unlock()
	return common.BigToHash(big.NewInt(int64(n))).Hex(), nil
}

func (l *fakeLedger) dispatches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func (l *fakeLedger) mine(txHash string, status uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.receipts[txHash] = &types.Receipt{TxHash: txHash, Status: status, BlockNumber: 7, GasUsed: 21000}
}

func (l *fakeLedger) WaitForReceipt(ctx context.Context, txHash string, timeout time.Duration) (*types.Receipt, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(time.Millisecond)
	defer tick.Stop()
	for {
		l.mu.Lock()
		r, ok := l.receipts[txHash]
		l.mu.Unlock()
		if ok {
			cp := *r
			return &cp, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, fmt.Errorf("%w: %w", types.ErrTimedOut, context.DeadlineExceeded)
		case <-tick.C:
		}
	}
}

func (l *fakeLedger) GetAllRecords(context.Context) ([]types.RecordView, error) {
	l.reads.Add(1)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.readErr != nil {
		return nil, l.readErr
	}
	return types.CloneRecords(l.records), nil
}

// recorder captures emitted events in order.
type recorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *recorder) handle(_ context.Context, e event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []event.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]event.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func (r *recorder) count(t event.EventType) int {
	n := 0
	for _, got := range r.types() {
		if got == t {
			n++
		}
	}
	return n
}

type harness struct {
	ledger    *fakeLedger
	bus       *Bus
	events    *recorder
	submitter *Submitter
	tracker   *ConfirmationTracker
	refresher *Refresher
}

func newHarness() *harness {
	ledger := newFakeLedger()
	bus := NewBus()
	rec := &recorder{}
	bus.SubscribeAll(rec.handle)
	chains := types.NewChainSet(types.DefaultChainIDs()...)

	submitter, err := NewSubmitter(ledger, chains, bus, nil)
	if err != nil {
		panic(err)
	}
	tracker, err := NewConfirmationTracker(ledger, bus, nil, time.Second)
	if err != nil {
		panic(err)
	}
	refresher, err := NewRefresher(ledger, NewRecordCache(), chains, localNet, bus, nil)
	if err != nil {
		panic(err)
	}
	tracker.OnConfirmed(refresher)
	return &harness{
		ledger:    ledger,
		bus:       bus,
		events:    rec,
		submitter: submitter,
		tracker:   tracker,
		refresher: refresher,
	}
}
