package types

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// OperationKind names the state-changing call a WriteRequest performs.
type OperationKind string

const (
	// OpCreateRecord appends a new todo record on the ledger.
	OpCreateRecord OperationKind = "create_record"
)

// RecordPayload is the user supplied content of a record.
type RecordPayload struct {
	Title       string
	Description string
}

// WriteRequest is a structured state-changing call. Treat it as immutable
// once handed to a Submitter.
type WriteRequest struct {
	ID      string
	Kind    OperationKind
	Payload RecordPayload
}

// NewCreateRecordRequest builds a create request with a fresh idempotency key.
func NewCreateRecordRequest(title, description string) WriteRequest {
	return WriteRequest{
		ID:   uuid.NewString(),
		Kind: OpCreateRecord,
		Payload: RecordPayload{
			Title:       title,
			Description: description,
		},
	}
}

// Validate checks the request shape before any network activity.
func (r WriteRequest) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: request id is required", ErrInvalidRequest)
	}
	switch r.Kind {
	case OpCreateRecord:
		if strings.TrimSpace(r.Payload.Title) == "" {
			return fmt.Errorf("%w: title is required", ErrInvalidRequest)
		}
	default:
		return fmt.Errorf("%w: unknown operation kind %q", ErrInvalidRequest, r.Kind)
	}
	return nil
}
