package proxy

import (
	"errors"
	"fmt"
)

// ErrBackendUnavailable indicates that the backend could not be reached.
var ErrBackendUnavailable = errors.New("backend unavailable")

// UnavailableError carries the target service name and the underlying
// transport failure. The cause is logged server-side and never shown to the
// caller.
type UnavailableError struct {
	Service string
	Cause   error
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	return fmt.Sprintf("service %q is unavailable: %v", e.Service, e.Cause)
}

// Unwrap returns the underlying transport error.
func (e *UnavailableError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches ErrBackendUnavailable.
func (e *UnavailableError) Is(target error) bool {
	return target == ErrBackendUnavailable
}
