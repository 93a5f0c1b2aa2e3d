package activity

import "errors"

// Sentinel kinds for activity errors.
var (
	// ErrInvalidWindow is returned for a non-positive window size. It is the
	// only engine error surfaced to callers.
	ErrInvalidWindow = errors.New("invalid window size")

	// ErrMalformedTimestamp marks a raw event that could not be interpreted.
	// Normalization skips such records; it never fails on them.
	ErrMalformedTimestamp = errors.New("malformed timestamp")
)
