package ruler

import (
	"errors"
	"fmt"
)

var (
	// ErrEncoding is returned when a rule group cannot be encoded for the
	// Ruler. No request is sent in that case.
	ErrEncoding = errors.New("failed to encode rule group")

	// ErrTransport is returned when a request could not be sent or no
	// response was received.
	ErrTransport = errors.New("ruler request failed")
)

// UnexpectedStatusError reports a Ruler response other than 202 Accepted.
type UnexpectedStatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

// Error implements the error interface
func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("unexpected ruler response to %s %s: status %d, body %q", e.Method, e.URL, e.StatusCode, e.Body)
}

// IsUnexpectedStatus reports whether err, or any error it wraps, is an
// *UnexpectedStatusError.
func IsUnexpectedStatus(err error) bool {
	var statusErr *UnexpectedStatusError
	return errors.As(err, &statusErr)
}
