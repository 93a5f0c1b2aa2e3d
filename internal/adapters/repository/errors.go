package repository

import "errors"

// Sentinel kinds for submission store errors.
var (
	ErrNotFound       = errors.New("member not found")
	ErrInvalidMember  = errors.New("invalid member id")
	ErrInvalidEventID = errors.New("invalid event id")
)
