package intel

import (
	"errors"
	"fmt"
)

// Standard errors returned by the intel client.
var (
	// ErrClientClosed indicates the client has been shut down and can no
	// longer send requests. Callers treat this as transient and log only.
	ErrClientClosed = errors.New("intel client closed")
)

// ConnectError indicates the local service could not be reached.
// It degrades to a visible status message, never an exception to the user.
type ConnectError struct {
	Err error
}

// Error implements the error interface.
func (e *ConnectError) Error() string {
	return fmt.Sprintf("cannot reach code intelligence service: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *ConnectError) Unwrap() error {
	return e.Err
}
