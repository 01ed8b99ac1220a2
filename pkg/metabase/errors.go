package metabase

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError is a non-2xx response from the backend. The body is preserved
// verbatim so callers can surface the backend's structured error.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("metabase returned status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// AuthenticationError means the backend rejected the credential, either on
// initial session acquisition or after a failed retry-on-expiry.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("metabase authentication failed: %s", e.Message)
}

// IsUnauthorized reports whether err is a 401 backend response.
func IsUnauthorized(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Unauthorized()
}

// AsStatusError unwraps err to a backend status error, if it is one.
func AsStatusError(err error) (*StatusError, bool) {
	var statusErr *StatusError
	ok := errors.As(err, &statusErr)
	return statusErr, ok
}

// IsAuthenticationError reports whether err is a rejected credential.
func IsAuthenticationError(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr)
}
