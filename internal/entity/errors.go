package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no alert has the requested ID.
	ErrNotFound = errors.New("alert not found")

	// ErrPriceUnavailable is returned by price sources when a ticker has no
	// current price. The monitor skips the ticker and retries next cycle.
	ErrPriceUnavailable = errors.New("price unavailable")

	// ErrStorageWrite is returned when the alert collection could not be
	// persisted.
	ErrStorageWrite = errors.New("alert storage write failed")

	// ErrStorageRead is returned when the alert collection could not be read
	// for reasons other than corrupt content, e.g. a locked database or a
	// permission error. Nothing is written after it.
	ErrStorageRead = errors.New("alert storage read failed")
)

// ValidationError reports invalid alert input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidationError reports whether err is, or wraps, a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
