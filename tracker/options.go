package tracker

// defaultHistorySize bounds how many settled requests and handles are
// remembered for idempotent resubmission and repeated Await calls.
const defaultHistorySize = 4096

// Option customizes a Submitter or ConfirmationTracker.
type Option func(*settings)

type settings struct {
	historySize int
}

// WithHistorySize caps the number of settled entries kept in memory. Older
// entries are evicted least recently used first. Non-positive values keep the
// default.
func WithHistorySize(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.historySize = n
		}
	}
}

func applyOptions(opts []Option) settings {
	s := settings{historySize: defaultHistorySize}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
