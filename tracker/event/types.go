package event

import (
	"context"
	"time"
)

// EventType represents a lifecycle step of a write or refresh.
type EventType string

// Lifecycle event types.
const (
	Started          EventType = "tracker:started"
	Confirmed        EventType = "tracker:confirmed"
	Reverted         EventType = "tracker:reverted"
	TimedOut         EventType = "tracker:timed_out"
	Error            EventType = "tracker:error"
	RecordsRefreshed EventType = "tracker:records_refreshed"
)

// Terminal reports whether t ends the lifecycle of a handle. TimedOut is
// provisional: a later Await on the same handle may still report Confirmed or
// Reverted, so it is not terminal.
func (t EventType) Terminal() bool {
	switch t {
	case Confirmed, Reverted:
		return true
	}
	return false
}

// EventDataKey identifies metadata entries.
type EventDataKey string

// EventData stores contextual attributes for an event.
type EventData map[EventDataKey]any

// Standard event data keys.
const (
	KeyError       EventDataKey = "error"
	KeyReason      EventDataKey = "reason"
	KeyMessage     EventDataKey = "message"
	KeyTitle       EventDataKey = "title"
	KeyChainID     EventDataKey = "chain_id"
	KeyBlockHeight EventDataKey = "block_height"
	KeyGasUsed     EventDataKey = "gas_used"
	KeyCount       EventDataKey = "count"
	KeyChanged     EventDataKey = "changed"
	KeyPhase       EventDataKey = "phase"
	KeyStale       EventDataKey = "stale"
)

// Event is one lifecycle notification.
type Event struct {
	Type      EventType
	RequestID string
	TxHash    string
	Timestamp time.Time
	Data      EventData
}

// Handler processes events. Handlers run on the emitting goroutine and must not block.
type Handler func(ctx context.Context, e Event)
