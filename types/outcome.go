package types

// Outcome classifies how a submitted transaction ended.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeConfirmed
	OutcomeReverted
	OutcomeTimedOut
)

func (o Outcome) String() string {
	switch o {
	case OutcomeConfirmed:
		return "confirmed"
	case OutcomeReverted:
		return "reverted"
	case OutcomeTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Mined reports whether the outcome came from a ledger receipt. Mined
// outcomes never change for a given transaction.
func (o Outcome) Mined() bool {
	return o == OutcomeConfirmed || o == OutcomeReverted
}

// Err maps failed outcomes to their sentinel errors.
func (o Outcome) Err() error {
	switch o {
	case OutcomeReverted:
		return ErrReverted
	case OutcomeTimedOut:
		return ErrTimedOut
	default:
		return nil
	}
}

// Receipt is the subset of a ledger receipt the SDK relies on.
type Receipt struct {
	TxHash      string
	Status      uint64
	BlockNumber uint64
	GasUsed     uint64
}

// Confirmation is the terminal result of awaiting a handle.
type Confirmation struct {
	Handle      TransactionHandle
	Outcome     Outcome
	BlockNumber uint64
	GasUsed     uint64
}
