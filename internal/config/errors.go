package config

import "fmt"

// ValidationError reports a malformed network definition: duplicate ids,
// dangling dependency references, cycles, or duplicate binding destinations.
// It is fatal to the run and always surfaces before any dispatch occurs.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return "invalid network definition: " + e.Detail
}

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Detail: fmt.Sprintf(format, args...)}
}
