package dedupe

// Option applies a configuration option to the deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize sets how many IDs are remembered. Zero or negative disables
// eviction entirely.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = maxSize
	}
}
