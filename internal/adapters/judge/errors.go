package judge

import "errors"

// Sentinel kinds for judge client errors.
var (
	ErrStatus      = errors.New("judge returned non-success status")
	ErrDecode      = errors.New("judge response could not be decoded")
	ErrMissingBase = errors.New("judge base url is required")
	ErrUnknownUser = errors.New("judge does not know member")
)
