package waittx

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	clientconfig "github.com/todoledger/sdk-go/client/config"
)

// Querier fetches transaction receipts over JSON-RPC.
type Querier interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error)
}

// Waiter coordinates a subscriber (WS) and poller (JSON-RPC) to observe a tx.
type Waiter struct {
	subscriber Source
	poller     Source
	setupDelay time.Duration
}

// Option customizes a Waiter.
type Option func(*options)

type options struct {
	dial DialFunc
}

// WithDialer replaces the websocket dialer used by the subscriber.
func WithDialer(dial DialFunc) Option {
	return func(o *options) { o.dial = dial }
}

// New creates a waiter based on the provided config and querier. An empty
// wsEndpoint disables the subscriber and leaves only polling.
func New(cfg clientconfig.WaitTxConfig, wsEndpoint string, querier Querier, opts ...Option) (*Waiter, error) {
	if querier == nil {
		return nil, fmt.Errorf("querier is required")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	normalized := cfg
	clientconfig.ApplyWaitTxDefaults(&normalized)

	var sub Source
	if wsEndpoint != "" {
		sub = newSubscriber(wsEndpoint, o.dial)
	}

	return &Waiter{
		subscriber: sub,
		poller:     newPoller(querier, normalized),
		setupDelay: normalized.SubscriberSetupTimeout,
	}, nil
}

// Wait blocks until the transaction is mined, the timeout elapses or ctx ends.
func (w *Waiter) Wait(ctx context.Context, txHash string, timeout time.Duration) (Result, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if w.subscriber != nil {
		subCtx, cancel := context.WithTimeout(ctx, w.setupDelay)
		defer cancel()
		resCh := make(chan Result, 1)
		errCh := make(chan error, 1)
		go func() {
			res, err := w.subscriber.Wait(ctx, txHash)
			if err != nil {
				errCh <- err
				return
			}
			resCh <- res
		}()

		select {
		case <-subCtx.Done():
		case <-errCh:
		case res := <-resCh:
			return res, nil
		}
		cancel()
	}

	if w.poller == nil {
		return Result{}, fmt.Errorf("poller is required")
	}
	return w.poller.Wait(ctx, txHash)
}
