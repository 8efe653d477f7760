// SPDX-License-Identifier: MPL-2.0

// Package serverbase provides a reusable state machine and lifecycle infrastructure
// for restartable long-running server components.
//
// A Base alternates between Halted and Running. Transitions are serialized by
// a single mutex, state reads are atomic, and every goroutine started with Go
// is tracked so that halting waits for it. Each run gets a fresh context that
// is cancelled when the run ends.
package serverbase
