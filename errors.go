package authware

import (
	"errors"
	"fmt"
)

// ErrNoToken is returned by a TokenStore when no credential is persisted.
var ErrNoToken = errors.New("authware: no token stored")

// ErrNotAuthenticated is returned by operations that require a session
// when none is held.
var ErrNotAuthenticated = errors.New("authware: not authenticated")

// APIError is a non-2xx response from the backend. Message carries the
// server's error payload when it provided one.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("authware: server error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("authware: server error (%d)", e.StatusCode)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// ErrorMessage extracts a user-facing message from err: the server's
// payload message when present, otherwise the given fallback.
func ErrorMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
