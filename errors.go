package mediagate

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an object does not exist in the store
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when a request path or key fails validation
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized is returned when an access token is rejected
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNoSecret is returned when no signing secret is configured.
	// It wraps ErrUnauthorized: an unconfigured gateway denies every request.
	ErrNoSecret = fmt.Errorf("signing secret not configured: %w", ErrUnauthorized)
	// ErrRangeNotSatisfiable is returned when a byte range lies outside the object
	ErrRangeNotSatisfiable = errors.New("range not satisfiable")
)

// RangeError reports an unsatisfiable range together with the object size,
// so the responder can emit "Content-Range: bytes */<size>".
// Size is -1 when the store could not tell.
type RangeError struct {
	Size int64
}

func (e *RangeError) Error() string {
	if e.Size < 0 {
		return ErrRangeNotSatisfiable.Error()
	}
	return fmt.Sprintf("%s: object size %d", ErrRangeNotSatisfiable, e.Size)
}

func (e *RangeError) Unwrap() error { return ErrRangeNotSatisfiable }
