// SPDX-License-Identifier: MPL-2.0

package serverbase

import (
	"errors"
	"fmt"
)

const (
	// StateHalted indicates the server is not listening. It is the initial state.
	StateHalted State = iota
	// StateRunning indicates the server is accepting connections.
	StateRunning
)

var (
	// ErrInvalidState is returned when a State value is not one of the defined lifecycle states.
	ErrInvalidState = errors.New("invalid state")
	// ErrAlreadyRunning is returned by TransitionToRunning when the server is already running.
	ErrAlreadyRunning = errors.New("already running")
	// ErrAlreadyHalted is returned by TransitionToHalted when the server is already halted.
	ErrAlreadyHalted = errors.New("already stopped")
)

type (
	// State represents the lifecycle state of a server.
	State int32

	// InvalidStateError is returned when a State value is not recognized.
	// It wraps ErrInvalidState for errors.Is() compatibility.
	InvalidStateError struct {
		Value State
	}
)

// String returns a human-readable representation of the server state.
func (s State) String() string {
	switch s {
	case StateHalted:
		return "halted"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// Error implements the error interface for InvalidStateError.
func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state %d (valid: 0=halted, 1=running)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidStateError) Unwrap() error {
	return ErrInvalidState
}

// Validate returns nil if the State is one of the defined lifecycle states,
// or an error wrapping ErrInvalidState if it is not.
func (s State) Validate() error {
	switch s {
	case StateHalted, StateRunning:
		return nil
	default:
		return &InvalidStateError{Value: s}
	}
}
