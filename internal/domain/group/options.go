package group

import (
	"time"

	"github.com/okian/streakd/pkg/logger"
)

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithMaxInFlight bounds how many member fetches run at once.
func WithMaxInFlight(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.maxInFlight = n
		}
	}
}

// WithFetchTimeout bounds the whole fan-out of one aggregation. Members
// still unresolved when it fires are treated as failed.
func WithFetchTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.fetchTimeout = d
		}
	}
}

// WithLogger sets a custom logger for the aggregator.
func WithLogger(l logger.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}
