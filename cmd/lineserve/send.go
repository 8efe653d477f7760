// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/lineserve/lineserve/internal/issue"
	"github.com/lineserve/lineserve/pkg/types"
)

func newSendCommand(app *App) *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "send [line...]",
		Short: "Send lines to a running server",
		Long: `Connect to a line server and send each argument as one line.

Without arguments, lines are read from standard input and sent as they are
typed. The address defaults to the configured server address.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := addr
			if target == "" {
				cfg, _, err := app.loadConfig(cmd.Context())
				if err != nil {
					return app.fail(err, types.ExitFailure)
				}
				target = cfg.LineServer().Address()
			}
			return app.send(cmd.Context(), target, timeout, args)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "server address as host:port (default from config)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "connect timeout")

	return cmd
}

// send writes lines (or stdin, line by line) to addr.
func (a *App) send(ctx context.Context, addr string, timeout time.Duration, lines []string) error {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return a.fail(issue.NewErrorContext().
			WithOperation("connect").
			WithResource(addr).
			WithSuggestion("Start a server with 'lineserve serve'").
			WithSuggestion("Pass the server address with --addr").
			WithIssue(issue.ConnectFailedId).
			Wrap(err).
			BuildError(), types.ExitFailure)
	}
	defer func() { _ = conn.Close() }()

	w := bufio.NewWriter(conn)
	sent := 0
	writeLine := func(line string) error {
		if _, err := w.WriteString(line + "\n"); err != nil {
			return err
		}
		sent++
		return w.Flush()
	}

	if len(lines) > 0 {
		for _, line := range lines {
			if err := writeLine(line); err != nil {
				return a.fail(issue.WrapWithOperation(err, "send line"), types.ExitFailure)
			}
		}
	} else if err := copyLines(a.stdin, writeLine); err != nil {
		return a.fail(issue.WrapWithOperation(err, "send line"), types.ExitFailure)
	}

	fmt.Fprintf(a.stdout, "%s sent %d line(s) to %s\n", SuccessStyle.Render("✓"), sent, addr)
	return nil
}

func copyLines(in io.Reader, fn func(string) error) error {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if err := fn(sc.Text()); err != nil {
			return err
		}
	}
	return sc.Err()
}
