package waittx

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// HeadClient is the websocket side of the ledger: new-head notifications
// plus receipt lookups on the same connection.
type HeadClient interface {
	Querier
	SubscribeNewHead(ctx context.Context, ch chan<- *ethtypes.Header) (ethereum.Subscription, error)
	Close()
}

// DialFunc opens a HeadClient for one wait.
type DialFunc func(ctx context.Context, endpoint string) (HeadClient, error)

func dialEthclient(ctx context.Context, endpoint string) (HeadClient, error) {
	client, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	return client, nil
}

type subscriber struct {
	endpoint string
	dial     DialFunc
}

func newSubscriber(endpoint string, dial DialFunc) Source {
	if dial == nil {
		dial = dialEthclient
	}
	return &subscriber{endpoint: endpoint, dial: dial}
}

// Wait checks the receipt once, then again on every new head until it shows up.
func (s *subscriber) Wait(ctx context.Context, txHash string) (Result, error) {
	client, err := s.dial(ctx, s.endpoint)
	if err != nil {
		return Result{}, fmt.Errorf("ws client init: %w", err)
	}
	defer client.Close()

	heads := make(chan *ethtypes.Header, 16)
	sub, err := client.SubscribeNewHead(ctx, heads)
	if err != nil {
		return Result{}, fmt.Errorf("subscribe new heads: %w", err)
	}
	defer sub.Unsubscribe()

	hash := common.HexToHash(txHash)
	// The tx may have been mined before the subscription was established.
	if res, ok := lookup(ctx, client, hash); ok {
		return res, nil
	}

	for {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case err := <-sub.Err():
			if err == nil {
				err = errors.New("subscription closed")
			}
			return Result{}, fmt.Errorf("head subscription: %w", err)
		case <-heads:
			if res, ok := lookup(ctx, client, hash); ok {
				return res, nil
			}
		}
	}
}

func lookup(ctx context.Context, q Querier, hash common.Hash) (Result, bool) {
	receipt, err := q.TransactionReceipt(ctx, hash)
	if err != nil || receipt == nil {
		return Result{}, false
	}
	return fromReceipt(receipt), true
}
