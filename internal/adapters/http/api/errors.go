package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrBackpressure  = errors.New("backpressure")
	ErrInvalidWindow = errors.New("invalid window")
	ErrNotFound      = errors.New("not found")
	ErrFetchFailed   = errors.New("fetch failed")
)

// KindError ties an error to the handler operation and the sentinel kind
// that decides its HTTP status.
type KindError struct {
	Op   string
	Kind error
	Err  error
}

func (e *KindError) Error() string {
	switch {
	case e.Err == nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	case e.Kind == nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	}
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *KindError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind returns an error of the given kind with no further cause.
func NewKind(op string, kind error) error {
	return &KindError{Op: op, Kind: kind}
}

// Wrap attaches an operation name to err. It returns nil for a nil err.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &KindError{Op: op, Err: err}
}

// WrapKind attaches an operation name and kind to err.
func WrapKind(op string, kind, err error) error {
	return &KindError{Op: op, Kind: kind, Err: err}
}
