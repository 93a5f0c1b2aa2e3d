package repository

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithMaxEventsPerMember caps how many raw events are kept per member. The
// oldest appended events are dropped first. Zero or negative keeps all.
func WithMaxEventsPerMember(n int) Option {
	return func(s *MemoryStore) {
		s.maxPerMember = n
	}
}
