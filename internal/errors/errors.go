package errors

import (
	"errors"
	"fmt"
)

// Common error types for the console
var (
	// Session errors
	ErrNoToken            = errors.New("no access token")
	ErrSessionInvalid     = errors.New("session invalid")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Transport errors
	ErrNetwork  = errors.New("network error")
	ErrProtocol = errors.New("unexpected response payload")
	ErrRequest  = errors.New("request failed")

	// Storage errors
	ErrStorage = errors.New("token storage error")

	// General errors
	ErrNotFound    = errors.New("not found")
	ErrInternal    = errors.New("internal error")
	ErrUnsupported = errors.New("unsupported operation")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
