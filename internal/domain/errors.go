package domain

import "errors"

var (
	// ErrNotFound is returned when the requested resource does not exist.
	// Keeping this sentinel in domain allows adapters to map it consistently to 404/NOT_FOUND.
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidInput covers malformed or missing request fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict signals a uniqueness violation, e.g. a second attribution row for one sale.
	ErrConflict = errors.New("conflict")
	// ErrFeedbackFinalized rejects feedback on attributions already confirmed or rejected.
	ErrFeedbackFinalized = errors.New("attribution feedback already finalized")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrUnavailable       = errors.New("dependency unavailable")
)
