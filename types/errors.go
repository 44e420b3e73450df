package types

import "errors"

var (
	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidRequest is returned when a write request is malformed
	ErrInvalidRequest = errors.New("invalid write request")

	// ErrDuplicateRequest is returned when a request is submitted while an
	// earlier dispatch of the same request is still in flight
	ErrDuplicateRequest = errors.New("request already being submitted")

	// ErrUnsupportedNetwork is returned when the network context names a chain
	// this SDK does not serve. Never retry on it.
	ErrUnsupportedNetwork = errors.New("unsupported network")

	// ErrSigningUnavailable is returned when no usable signing identity is present
	ErrSigningUnavailable = errors.New("signing identity unavailable")

	// ErrDispatchFailed is returned when the ledger call could not be sent
	ErrDispatchFailed = errors.New("dispatch failed")

	// ErrReverted is returned when the ledger mined the transaction with a failed status
	ErrReverted = errors.New("transaction reverted")

	// ErrTimedOut is returned when no receipt was observed within the wait budget
	ErrTimedOut = errors.New("confirmation timed out")

	// ErrAwaitFailed is returned when waiting for a receipt failed for a reason
	// other than the wait budget running out
	ErrAwaitFailed = errors.New("await failed")

	// ErrRead is returned when the record view could not be fetched
	ErrRead = errors.New("read failed")
)
