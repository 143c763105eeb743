// gib/database/errors.go
package database

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a referenced board, post, or file does not
// exist. Callers translate it to a terminal not-found response.
var ErrNotFound = errors.New("not found")

// ValidationError rejects a write before any row is inserted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
