package waittx

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	clientconfig "github.com/todoledger/sdk-go/client/config"
)

type poller struct {
	querier  Querier
	backoff  Backoff
	maxTries int
}

func newPoller(q Querier, cfg clientconfig.WaitTxConfig) *poller {
	return &poller{
		querier:  q,
		backoff:  NewBackoff(cfg),
		maxTries: cfg.PollMaxRetries,
	}
}

// Wait queries the receipt until it exists. A missing receipt (ethereum.NotFound)
// and transient RPC errors both count as "not mined yet".
func (p *poller) Wait(ctx context.Context, txHash string) (Result, error) {
	hash := common.HexToHash(txHash)
	attempt := 0
	for {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		default:
		}

		receipt, err := p.querier.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			return fromReceipt(receipt), nil
		}

		attempt++
		if p.maxTries > 0 && attempt >= p.maxTries {
			if err != nil {
				return Result{}, fmt.Errorf("%w after %d attempts: %v", ErrPollExhausted, attempt, err)
			}
			return Result{}, fmt.Errorf("%w after %d attempts", ErrPollExhausted, attempt)
		}

		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-sleepCtx(ctx, p.backoff.Next(attempt)):
		}
	}
}

func fromReceipt(r *ethtypes.Receipt) Result {
	res := Result{
		TxHash:  r.TxHash.Hex(),
		Status:  r.Status,
		GasUsed: r.GasUsed,
	}
	if r.BlockNumber != nil {
		res.BlockNumber = r.BlockNumber.Uint64()
	}
	return res
}

func sleepCtx(ctx context.Context, d time.Duration) <-chan struct{} {
	ch := make(chan struct{})
	if d <= 0 {
		close(ch)
		return ch
	}
	go func() {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
		case <-t.C:
		}
		close(ch)
	}()
	return ch
}
