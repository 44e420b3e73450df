package types

// TransactionHandle references a submitted, not-yet-finalized ledger call.
// Only a Submitter creates meaningful handles.
type TransactionHandle struct {
	requestID string
	txHash    string
}

// NewTransactionHandle binds a request id to the hash returned by the ledger.
func NewTransactionHandle(requestID, txHash string) TransactionHandle {
	return TransactionHandle{requestID: requestID, txHash: txHash}
}

// TxHash returns the ledger transaction hash.
func (h TransactionHandle) TxHash() string { return h.txHash }

// RequestID returns the id of the WriteRequest that produced the handle.
func (h TransactionHandle) RequestID() string { return h.requestID }

// IsZero reports whether the handle was never issued.
func (h TransactionHandle) IsZero() bool { return h.txHash == "" }

func (h TransactionHandle) String() string { return h.txHash }
