package service

import (
	"time"

	"github.com/okian/streakd/internal/domain/group"
	"github.com/okian/streakd/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of ingestion workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the submission queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many submission IDs are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxEventsPerMember caps the stored history per member. Zero or
// negative keeps everything.
func WithMaxEventsPerMember(n int) Option {
	return func(s *Service) {
		s.maxEventsPerMember = n
	}
}

// WithMaxInFlight bounds concurrent member fetches per aggregation.
func WithMaxInFlight(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxInFlight = n
		}
	}
}

// WithFetchTimeout bounds the member fetches of one request.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// WithDefaultWindowDays sets the window used when a request names none.
func WithDefaultWindowDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.defaultWindowDays = days
		}
	}
}

// WithMaxWindowDays sets the largest window a request may ask for.
func WithMaxWindowDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.maxWindowDays = days
		}
	}
}

// WithFetcher replaces the event source used for streaks and analytics.
// Without it the service reads its own ingested submissions.
func WithFetcher(f group.Fetcher) Option {
	return func(s *Service) {
		if f != nil {
			s.fetcher = f
		}
	}
}

// WithClock sets the source of "now" for requests that do not pass one.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
