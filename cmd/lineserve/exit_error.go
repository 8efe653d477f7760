// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/lineserve/lineserve/pkg/types"
)

// ExitError carries the process exit status out of a command. Execute maps
// it to os.Exit; fail is the usual way to build one.
type ExitError struct {
	Code types.ExitCode
	Err  error
}

// Error reports the cause, or just the status when there is none.
func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *ExitError) Unwrap() error { return e.Err }
