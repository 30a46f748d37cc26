// Package validate provides the typed validation failure returned by
// input checks before anything touches storage.
package validate

import (
	"fmt"

	"github.com/Laisky/errors/v2"
)

// Error is a rejected-input failure. Its message is safe to show to clients.
type Error struct {
	Reason string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Reason
}

// Errorf builds a validation failure.
func Errorf(format string, args ...any) error {
	return &Error{Reason: fmt.Sprintf(format, args...)}
}

// IsError reports whether err is (or wraps) a validation failure.
func IsError(err error) bool {
	var ve *Error
	return errors.As(err, &ve)
}
