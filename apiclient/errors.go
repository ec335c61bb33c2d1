package apiclient

import (
	"fmt"
	"net/http"

	consoleerrors "github.com/jrsteele09/star-console/internal/errors"
)

// HTTPError is returned for any response outside the 2xx range.
type HTTPError struct {
	Method  string
	Path    string
	Status  int
	Message string // backend supplied message, if any
	Body    []byte
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

// Is maps authorization statuses onto the shared sentinel errors.
func (e *HTTPError) Is(target error) bool {
	switch target {
	case consoleerrors.ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case consoleerrors.ErrSessionInvalid:
		return e.Status == http.StatusBadRequest
	case consoleerrors.ErrNotFound:
		return e.Status == http.StatusNotFound
	case consoleerrors.ErrRequest:
		return true
	}
	return false
}

// NetworkError is returned when no response was received at all.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() []error {
	return []error{consoleerrors.ErrNetwork, e.Err}
}

// StatusOf returns the HTTP status carried by err, or 0 when err is not an *HTTPError.
func StatusOf(err error) int {
	var httpErr *HTTPError
	if consoleerrors.As(err, &httpErr) {
		return httpErr.Status
	}
	return 0
}
