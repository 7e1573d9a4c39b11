package workload

import (
	"errors"
	"fmt"
)

// ValidationError reports a request that was rejected before any remote
// effect took place.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// Invalid is a shorthand for building a *ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ErrNotFound is returned by record stores for unknown identities.
var ErrNotFound = errors.New("workload not found")

// ErrIdentityExhausted is returned when no unused identity could be generated
// within the configured number of attempts.
var ErrIdentityExhausted = errors.New("could not generate an unused workload identity")
