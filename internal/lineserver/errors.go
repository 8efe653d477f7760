// SPDX-License-Identifier: MPL-2.0

package lineserver

import (
	"errors"
	"fmt"
)

var (
	// ErrBind is the sentinel error wrapped by BindError.
	ErrBind = errors.New("cannot open listening socket")
	// ErrLineTooLong is returned by the read loop when a line exceeds the configured maximum.
	ErrLineTooLong = errors.New("line exceeds maximum length")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid line server config")
)

type (
	// BindError is returned by Server.Run when the listening socket cannot be
	// opened (port in use, permission denied, bad address).
	BindError struct {
		Addr string
		Err  error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// Error implements the error interface for BindError.
func (e *BindError) Error() string {
	return fmt.Sprintf("failed to listen on %s: %v", e.Addr, e.Err)
}

// Unwrap returns both ErrBind and the underlying cause so that errors.Is
// matches either.
func (e *BindError) Unwrap() []error { return []error{ErrBind, e.Err} }

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid line server config: %v", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }
