package types

// CreateResult contains the result of a create-record flow
type CreateResult struct {
	Handle       TransactionHandle
	Confirmation Confirmation
	Records      []RecordView
}
