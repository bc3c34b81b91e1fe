package router

import (
	"errors"
	"fmt"
	"net/http"
)

// RouteError is what the catch-all error screen displays.
type RouteError struct {
	Status  int
	Message string
}

func (e *RouteError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// NotFound is the error for paths outside the route table.
func NotFound() *RouteError {
	return &RouteError{Status: http.StatusNotFound, Message: "Page not found"}
}

// FromError converts err for display on the error screen. Errors that expose
// a Status() keep it; everything else is reported as 404 like an unknown page.
// A blank message falls back to "Page not found".
func FromError(err error) *RouteError {
	if err == nil {
		return NotFound()
	}
	var re *RouteError
	if errors.As(err, &re) {
		return re
	}

	out := NotFound()
	var withStatus interface{ Status() int }
	if errors.As(err, &withStatus) && withStatus.Status() != 0 {
		out.Status = withStatus.Status()
	}
	if msg := err.Error(); msg != "" {
		out.Message = msg
	}
	return out
}

// Failed is a navigation to the error screen for err.
func Failed(err error) Navigation {
	return Navigation{Path: ErrorPath, Failure: FromError(err)}
}
