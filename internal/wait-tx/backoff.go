package waittx

import (
	"math"
	"math/rand"
	"time"

	clientconfig "github.com/todoledger/sdk-go/client/config"
)

const defaultPollInterval = 500 * time.Millisecond

// maxDelay keeps float math below the int64 nanosecond ceiling.
const maxDelay = float64(math.MaxInt64) - 2048

type constantBackoff struct{ every time.Duration }

func (b constantBackoff) Next(int) time.Duration { return b.every }

type exponentialBackoff struct {
	initial    time.Duration
	multiplier float64
	max        time.Duration
	jitter     float64
	randFn     func() float64
}

func (b *exponentialBackoff) Next(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	initial := b.initial
	if initial <= 0 {
		initial = defaultPollInterval
	}

	delay := float64(initial)
	if b.multiplier > 1 {
		delay *= math.Pow(b.multiplier, float64(attempt-1))
	}
	delay = clampDelay(delay, b.max)

	if j := math.Min(math.Max(b.jitter, 0), 1); j > 0 {
		randFn := b.randFn
		if randFn == nil {
			randFn = rand.Float64
		}
		factor := math.Max(1+(randFn()*2-1)*j, 0)
		delay = clampDelay(delay*factor, 0)
	}

	d := time.Duration(delay)
	if d <= 0 {
		d = time.Millisecond
	}
	return d
}

// clampDelay bounds v to [0, cap] when cap > 0, and always to maxDelay.
func clampDelay(v float64, cap time.Duration) float64 {
	upper := maxDelay
	if cap > 0 && float64(cap) < upper {
		upper = float64(cap)
	}
	return math.Max(0, math.Min(v, upper))
}

// NewBackoff constructs a poller backoff from the WaitTx configuration.
func NewBackoff(cfg clientconfig.WaitTxConfig) Backoff {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	var backoff Backoff = constantBackoff{every: interval}
	if cfg.PollBackoffMultiplier > 1 || cfg.PollBackoffJitter > 0 || (cfg.PollBackoffMaxInterval > 0 && cfg.PollBackoffMaxInterval != interval) {
		backoff = &exponentialBackoff{
			initial:    interval,
			multiplier: cfg.PollBackoffMultiplier,
			max:        cfg.PollBackoffMaxInterval,
			jitter:     cfg.PollBackoffJitter,
		}
	}
	return backoff
}
