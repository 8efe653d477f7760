// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/lineserve/lineserve/internal/issue"
	"github.com/lineserve/lineserve/internal/lineserver"
	"github.com/lineserve/lineserve/pkg/types"
)

// issueStyle is the glamour style used for catalog guidance.
const issueStyle = "auto"

// fail renders err for the user and wraps it in an *ExitError with code.
// Actionable errors print their suggestions, and their catalog guidance
// when verbose.
func (a *App) fail(err error, code types.ExitCode) error {
	renderError(a.stderr, err, a.verbose)
	return &ExitError{Code: code, Err: err}
}

// renderError prints the detail that the one-line error message leaves out.
func renderError(w io.Writer, err error, verbose bool) {
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		return
	}

	if ae.HasSuggestions() || verbose {
		fmt.Fprintln(w, WarningStyle.Render("Hint: ")+ae.Format(verbose))
	}

	if !verbose || ae.Issue == 0 {
		return
	}
	if entry := issue.Get(ae.Issue); entry != nil {
		rendered, renderErr := entry.Render(issueStyle)
		if renderErr != nil {
			fmt.Fprintln(w, WarningStyle.Render("failed to render guidance: ")+renderErr.Error())
			return
		}
		fmt.Fprint(w, rendered)
	}
}

// formatErrorForDisplay returns the message to show for err in a single line
// of console output, using the actionable form when available.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}

// describeBindFailure turns a *lineserver.BindError into an actionable error
// that names the likely cause. Other errors are returned unchanged.
func describeBindFailure(err error) error {
	var bindErr *lineserver.BindError
	if !errors.As(err, &bindErr) {
		return err
	}

	ctx := issue.NewErrorContext().
		WithOperation("start server").
		WithResource(bindErr.Addr)

	switch {
	case errors.Is(err, syscall.EADDRINUSE):
		ctx = ctx.WithIssue(issue.PortInUseId).
			WithSuggestion("Stop the process that is using the port").
			WithSuggestion("Choose another port with --port, or --port 0 for any free port")
	case errors.Is(err, os.ErrPermission):
		ctx = ctx.WithIssue(issue.PermissionDeniedId).
			WithSuggestion("Use a port above 1023")
	default:
		ctx = ctx.WithIssue(issue.BindFailedId).
			WithSuggestion("Check that --host is an address of this machine")
	}

	return ctx.Wrap(err).BuildError()
}
