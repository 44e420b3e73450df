package types

// RecordView is the read-only projection of one todo record on the ledger.
type RecordView struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// CloneRecords returns a copy of the slice so callers never share backing arrays.
func CloneRecords(in []RecordView) []RecordView {
	if in == nil {
		return nil
	}
	out := make([]RecordView, len(in))
	copy(out, in)
	return out
}
