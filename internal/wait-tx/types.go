package waittx

import (
	"context"
	"errors"
	"time"
)

// ErrPollExhausted is returned when the poller used up its retry budget.
var ErrPollExhausted = errors.New("polling exhausted")

// Result represents the receipt produced by waiting on a tx.
type Result struct {
	TxHash      string
	Status      uint64
	BlockNumber uint64
	GasUsed     uint64
}

// Source abstracts a tx wait mechanism (poller, subscriber, etc).
type Source interface {
	Wait(ctx context.Context, txHash string) (Result, error)
}

// Backoff controls polling cadence.
type Backoff interface {
	Next(attempt int) time.Duration
}
