package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common/lru"

	sdklog "github.com/todoledger/sdk-go/pkg/log"
	"github.com/todoledger/sdk-go/tracker/event"
	"github.com/todoledger/sdk-go/types"
)

// Submitter validates write requests and dispatches them to the ledger. A
// request id is dispatched at most once: resubmitting a request that already
// has a handle returns that handle. Settled requests are remembered up to the
// history size; in-flight requests are always tracked.
type Submitter struct {
	ledger Dispatcher
	chains types.ChainSet
	bus    *Bus
	logger sdklog.Logger

	mu       sync.Mutex
	inFlight map[string]types.WriteRequest
	done     *lru.Cache[string, submission]
}

type submission struct {
	req    types.WriteRequest
	handle types.TransactionHandle
}

// NewSubmitter creates a Submitter serving the given chains.
func NewSubmitter(ledger Dispatcher, chains types.ChainSet, bus *Bus, logger sdklog.Logger, opts ...Option) (*Submitter, error) {
	if ledger == nil {
		return nil, fmt.Errorf("ledger dispatcher is required")
	}
	if chains.Len() == 0 {
		return nil, fmt.Errorf("%w: no supported chains", types.ErrInvalidConfig)
	}
	if logger == nil {
		logger = sdklog.NoopLogger{}
	}
	return &Submitter{
		ledger:   ledger,
		chains:   chains,
		bus:      bus,
		logger:   logger,
		inFlight: make(map[string]types.WriteRequest),
		done:     lru.NewCache[string, submission](applyOptions(opts).historySize),
	}, nil
}

// Submit sends req to the ledger and returns a handle for the pending
// transaction. Nothing is dispatched when the request is invalid, the chain is
// not supported or no signer is present.
func (s *Submitter) Submit(ctx context.Context, req types.WriteRequest, nc types.NetworkContext) (types.TransactionHandle, error) {
	if err := req.Validate(); err != nil {
		return types.TransactionHandle{}, err
	}
	if !s.chains.Supports(nc.ChainID) {
		err := fmt.Errorf("%w: chain %d", types.ErrUnsupportedNetwork, nc.ChainID)
		s.fail(ctx, req, nc, err)
		return types.TransactionHandle{}, err
	}
	if nc.Signer == nil {
		err := fmt.Errorf("%w: no signer connected", types.ErrSigningUnavailable)
		s.fail(ctx, req, nc, err)
		return types.TransactionHandle{}, err
	}

	handle, fresh, err := s.reserve(req)
	if err != nil {
		return types.TransactionHandle{}, err
	}
	if !fresh {
		sdklog.Debugf(s.logger, "request %s already submitted as %s", req.ID, handle.TxHash())
		return handle, nil
	}

	s.bus.Emit(ctx, event.Event{
		Type:      event.Started,
		RequestID: req.ID,
		Data: event.EventData{
			event.KeyChainID: nc.ChainID,
			event.KeyTitle:   req.Payload.Title,
			event.KeyPhase:   "submitting",
			event.KeyMessage: "Processing...",
		},
	})

	txHash, err := s.dispatch(ctx, req, nc)
	if err != nil {
		s.release(req.ID)
		if !errors.Is(err, types.ErrSigningUnavailable) && !errors.Is(err, types.ErrDispatchFailed) {
			err = fmt.Errorf("%w: %w", types.ErrDispatchFailed, err)
		}
		s.fail(ctx, req, nc, err)
		return types.TransactionHandle{}, err
	}

	handle = types.NewTransactionHandle(req.ID, txHash)
	s.commit(req, handle)
	sdklog.Infof(s.logger, "submitted %s request %s on chain %d: tx %s", req.Kind, req.ID, nc.ChainID, txHash)
	return handle, nil
}

// Handle returns the handle issued for a request id, if any.
func (s *Submitter) Handle(requestID string) (types.TransactionHandle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.done.Get(requestID)
	if !ok {
		return types.TransactionHandle{}, false
	}
	return sub.handle, true
}

func (s *Submitter) dispatch(ctx context.Context, req types.WriteRequest, nc types.NetworkContext) (string, error) {
	switch req.Kind {
	case types.OpCreateRecord:
		return s.ledger.CreateRecord(ctx, nc, req.Payload)
	default:
		return "", fmt.Errorf("%w: unknown kind %q", types.ErrInvalidRequest, req.Kind)
	}
}

// reserve marks req as in flight. fresh is false when a handle already
// exists. Reusing an id with a different kind or payload is rejected.
func (s *Submitter) reserve(req types.WriteRequest) (handle types.TransactionHandle, fresh bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.inFlight[req.ID]; ok {
		if !sameWrite(prev, req) {
			return types.TransactionHandle{}, false, fmt.Errorf("%w: request %s reused with a different payload", types.ErrInvalidRequest, req.ID)
		}
		return types.TransactionHandle{}, false, fmt.Errorf("%w: %s", types.ErrDuplicateRequest, req.ID)
	}
	if sub, ok := s.done.Get(req.ID); ok {
		if !sameWrite(sub.req, req) {
			return types.TransactionHandle{}, false, fmt.Errorf("%w: request %s reused with a different payload", types.ErrInvalidRequest, req.ID)
		}
		return sub.handle, false, nil
	}
	s.inFlight[req.ID] = req
	return types.TransactionHandle{}, true, nil
}

func (s *Submitter) commit(req types.WriteRequest, handle types.TransactionHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, req.ID)
	s.done.Add(req.ID, submission{req: req, handle: handle})
}

func (s *Submitter) release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, id)
}

func sameWrite(a, b types.WriteRequest) bool {
	return a.Kind == b.Kind && a.Payload == b.Payload
}

func (s *Submitter) fail(ctx context.Context, req types.WriteRequest, nc types.NetworkContext, err error) {
	sdklog.Warnf(s.logger, "submit %s request %s failed: %v", req.Kind, req.ID, err)
	s.bus.Emit(ctx, event.Event{
		Type:      event.Error,
		RequestID: req.ID,
		Data: event.EventData{
			event.KeyChainID: nc.ChainID,
			event.KeyError:   err,
			event.KeyPhase:   "submit",
			event.KeyMessage: userMessage(err),
		},
	})
}

// userMessage maps typed failures to the short text shown to end users.
func userMessage(err error) string {
	switch {
	case errors.Is(err, types.ErrUnsupportedNetwork):
		return "Wrong network"
	case errors.Is(err, types.ErrSigningUnavailable):
		return "Connect a wallet to continue"
	case errors.Is(err, types.ErrReverted):
		return "Transaction failed!"
	case errors.Is(err, types.ErrTimedOut):
		return "Transaction is taking longer than expected"
	case errors.Is(err, types.ErrRead):
		return "Failed to fetch todos"
	default:
		return "Something went wrong"
	}
}
