package melcloud

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var ErrInvalidProperty = errors.New("invalid device property")
var ErrNoState = errors.New("device state not loaded. Call Update() first.")

// HTTPError is returned when MELCloud answers with a non-2xx status
type HTTPError struct {
	StatusCode int
	Method     string
	Path       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("melcloud %s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// IsAuthError reports whether the server rejected the credentials or token
func (e *HTTPError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// ConnectionError wraps transport level failures: DNS, TCP, TLS, broken bodies.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("melcloud connection error: %s", e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// IsConnectionError reports whether err is a transport failure or a timeout
func IsConnectionError(err error) bool {
	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
