package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/common/lru"

	sdklog "github.com/todoledger/sdk-go/pkg/log"
	"github.com/todoledger/sdk-go/tracker/event"
	"github.com/todoledger/sdk-go/types"
)

const defaultConfirmTimeout = 2 * time.Minute

// ConfirmationTracker resolves handles to terminal outcomes. Mined outcomes
// are recorded on first observation and never change; a TimedOut result is
// not recorded, so a later Await may still see the transaction mined.
// Recorded outcomes are kept up to the history size.
type ConfirmationTracker struct {
	waiter         ReceiptWaiter
	bus            *Bus
	logger         sdklog.Logger
	defaultTimeout time.Duration

	mu       sync.Mutex
	settled  *lru.Cache[string, types.Confirmation]
	timedOut *lru.Cache[string, struct{}]
	subs     []ConfirmedSubscriber
}

// NewConfirmationTracker creates a tracker. A non-positive defaultTimeout
// falls back to two minutes.
func NewConfirmationTracker(waiter ReceiptWaiter, bus *Bus, logger sdklog.Logger, defaultTimeout time.Duration, opts ...Option) (*ConfirmationTracker, error) {
	if waiter == nil {
		return nil, fmt.Errorf("receipt waiter is required")
	}
	if logger == nil {
		logger = sdklog.NoopLogger{}
	}
	if defaultTimeout <= 0 {
		defaultTimeout = defaultConfirmTimeout
	}
	size := applyOptions(opts).historySize
	return &ConfirmationTracker{
		waiter:         waiter,
		bus:            bus,
		logger:         logger,
		defaultTimeout: defaultTimeout,
		settled:        lru.NewCache[string, types.Confirmation](size),
		timedOut:       lru.NewCache[string, struct{}](size),
	}, nil
}

// OnConfirmed registers sub to run once per handle that resolves Confirmed.
func (t *ConfirmationTracker) OnConfirmed(sub ConfirmedSubscriber) {
	if sub == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subs = append(t.subs, sub)
}

// Await blocks until handle resolves or timeout elapses. A non-positive
// timeout uses the tracker default.
//
// Reverted and TimedOut are reported through Confirmation.Outcome with a nil
// error. Cancelling ctx abandons the wait and returns ctx.Err(). Any other
// waiter failure emits an Error event and wraps types.ErrAwaitFailed. When a
// confirmed subscriber fails, the Confirmed result is returned together with
// the subscriber errors.
func (t *ConfirmationTracker) Await(ctx context.Context, handle types.TransactionHandle, timeout time.Duration) (types.Confirmation, error) {
	if handle.IsZero() {
		return types.Confirmation{}, fmt.Errorf("%w: empty transaction handle", types.ErrInvalidRequest)
	}
	if c, ok := t.lookup(handle.TxHash()); ok {
		return c, nil
	}
	if timeout <= 0 {
		timeout = t.defaultTimeout
	}

	start := time.Now()
	receipt, err := t.waiter.WaitForReceipt(ctx, handle.TxHash(), timeout)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			sdklog.Debugf(t.logger, "await %s abandoned: %v", handle.TxHash(), ctxErr)
			return types.Confirmation{Handle: handle}, ctxErr
		}
		if errors.Is(err, types.ErrTimedOut) {
			return t.timeout(ctx, handle, timeout), nil
		}
		err = fmt.Errorf("%w: %w", types.ErrAwaitFailed, err)
		t.fail(ctx, handle, err)
		return types.Confirmation{Handle: handle}, err
	}

	conf := types.Confirmation{
		Handle:      handle,
		Outcome:     classify(receipt.Status),
		BlockNumber: receipt.BlockNumber,
		GasUsed:     receipt.GasUsed,
	}
	stored, first := t.settle(conf)
	if !first {
		return stored, nil
	}

	sdklog.Infof(t.logger, "tx %s %s in block %s after %s (gas %s)",
		handle.TxHash(), conf.Outcome, humanize.Comma(int64(conf.BlockNumber)),
		time.Since(start).Round(time.Millisecond), humanize.Comma(int64(conf.GasUsed)))

	evType, msg := event.Confirmed, "Todo created successfully!"
	if conf.Outcome == types.OutcomeReverted {
		evType, msg = event.Reverted, userMessage(types.ErrReverted)
	}
	t.bus.Emit(ctx, event.Event{
		Type:      evType,
		RequestID: handle.RequestID(),
		TxHash:    handle.TxHash(),
		Data: event.EventData{
			event.KeyBlockHeight: conf.BlockNumber,
			event.KeyGasUsed:     conf.GasUsed,
			event.KeyMessage:     msg,
		},
	})

	if conf.Outcome != types.OutcomeConfirmed {
		return conf, nil
	}
	return conf, t.notify(ctx, conf)
}

// Outcome returns the recorded mined outcome for txHash, if any.
func (t *ConfirmationTracker) Outcome(txHash string) (types.Confirmation, bool) {
	return t.lookup(txHash)
}

func (t *ConfirmationTracker) timeout(ctx context.Context, handle types.TransactionHandle, timeout time.Duration) types.Confirmation {
	t.mu.Lock()
	// A concurrent Await may have seen the receipt meanwhile.
	if c, ok := t.settled.Get(handle.TxHash()); ok {
		t.mu.Unlock()
		return c
	}
	seen := t.timedOut.Contains(handle.TxHash())
	t.timedOut.Add(handle.TxHash(), struct{}{})
	t.mu.Unlock()

	conf := types.Confirmation{Handle: handle, Outcome: types.OutcomeTimedOut}
	if seen {
		return conf
	}
	sdklog.Warnf(t.logger, "tx %s not mined within %s", handle.TxHash(), timeout)
	t.bus.Emit(ctx, event.Event{
		Type:      event.TimedOut,
		RequestID: handle.RequestID(),
		TxHash:    handle.TxHash(),
		Data: event.EventData{
			event.KeyReason:  fmt.Sprintf("no receipt within %s", timeout),
			event.KeyMessage: userMessage(types.ErrTimedOut),
		},
	})
	return conf
}

func (t *ConfirmationTracker) fail(ctx context.Context, handle types.TransactionHandle, err error) {
	sdklog.Warnf(t.logger, "await %s failed: %v", handle.TxHash(), err)
	t.bus.Emit(ctx, event.Event{
		Type:      event.Error,
		RequestID: handle.RequestID(),
		TxHash:    handle.TxHash(),
		Data: event.EventData{
			event.KeyError:   err,
			event.KeyPhase:   "await",
			event.KeyMessage: userMessage(err),
		},
	})
}

func (t *ConfirmationTracker) lookup(txHash string) (types.Confirmation, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.settled.Get(txHash)
}

// settle records conf unless an outcome already exists. It returns the stored
// value and whether this call stored it.
func (t *ConfirmationTracker) settle(conf types.Confirmation) (types.Confirmation, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok := t.settled.Get(conf.Handle.TxHash()); ok {
		return c, false
	}
	t.settled.Add(conf.Handle.TxHash(), conf)
	t.timedOut.Remove(conf.Handle.TxHash())
	return conf, true
}

func (t *ConfirmationTracker) notify(ctx context.Context, conf types.Confirmation) error {
	t.mu.Lock()
	subs := append([]ConfirmedSubscriber{}, t.subs...)
	t.mu.Unlock()

	var errs []error
	for _, sub := range subs {
		if err := sub.OnConfirmed(ctx, conf); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func classify(status uint64) types.Outcome {
	if status == 1 {
		return types.OutcomeConfirmed
	}
	return types.OutcomeReverted
}
