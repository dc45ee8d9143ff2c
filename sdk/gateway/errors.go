package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// StatusError describes a non-2xx response. The body is carried verbatim so
// the calling view can interpret business failures (insufficient balance,
// invalid captcha answer, banned IP); the gateway itself only special-cases
// the 401 path.
type StatusError struct {
	StatusCode int
	Body       []byte
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e == nil {
		return ""
	}
	body := strings.TrimSpace(string(e.Body))
	if body == "" {
		return fmt.Sprintf("gateway: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("gateway: HTTP %d: %s", e.StatusCode, body)
}

// Unauthorized reports whether the response was an authentication failure.
func (e *StatusError) Unauthorized() bool {
	return e != nil && e.StatusCode == http.StatusUnauthorized
}

// IsUnauthorized reports whether err carries an HTTP 401 status.
func IsUnauthorized(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Unauthorized()
}
