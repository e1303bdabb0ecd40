package services

import "errors"

// Domain rule violations surfaced to the API boundary. Handlers map these
// to HTTP statuses; everything else is treated as an internal error.
var (
	ErrEmailTaken      = errors.New("email already registered")
	ErrNIDTaken        = errors.New("nid already registered")
	ErrInvalidProfile  = errors.New("phone and present address are required")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrForbidden       = errors.New("forbidden")
	ErrEmptyMessage    = errors.New("message text is required")
	ErrMessageTooLong  = errors.New("message text too long")
)
