package group

import "errors"

// Sentinel kinds for member fetch failures. They never leave Aggregate;
// they classify failures for logs and metrics.
var (
	ErrFetchTimeout = errors.New("member fetch timed out")
	ErrFetchPanic   = errors.New("member fetch panicked")
)
