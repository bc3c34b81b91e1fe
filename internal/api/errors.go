package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a non-2xx answer from the API.
type Error struct {
	StatusCode int
	Message    string // server-provided "message", may be empty
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error %d", e.StatusCode)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Status returns the HTTP status code.
func (e *Error) Status() int {
	return e.StatusCode
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// MessageOf returns the server message carried by err, or fallback when err
// carries none (network failures, empty bodies, non-API errors).
func MessageOf(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
