// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lineserve/lineserve/internal/config"
	"github.com/lineserve/lineserve/internal/lineserver"
	"github.com/lineserve/lineserve/pkg/types"
)

const serveHelp = `commands:
  start    open the listener
  stop     close the listener (connected clients stay connected)
  status   show state, address and connection count
  quit     stop and exit`

// controller executes console commands against a server.
type controller struct {
	srv     *lineserver.Server
	out     io.Writer
	verbose bool
}

func newServeCommand(app *App) *cobra.Command {
	var (
		host         string
		port         string
		maxLineBytes int
		closeOnStop  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a line server",
		Long: `Run a line server and print every connection, line and disconnect.

While it runs, the server reads commands from standard input:

` + serveHelp + `

Flags override the configuration file and LINESERVE_* environment variables.
When standard input is closed the server keeps running until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.fail(err, types.ExitFailure)
			}

			flags := cmd.Flags()
			if flags.Changed("host") {
				cfg.Server.Host = host
			}
			if flags.Changed("port") {
				p, err := types.ParseListenPort(port)
				if err != nil {
					return app.fail(err, types.ExitUsage)
				}
				cfg.Server.Port = p
			}
			if flags.Changed("max-line-bytes") {
				cfg.Server.MaxLineBytes = maxLineBytes
			}
			if flags.Changed("close-on-stop") {
				cfg.Server.CloseConnectionsOnStop = closeOnStop
			}
			if err := cfg.Validate(); err != nil {
				return app.fail(err, types.ExitUsage)
			}

			return app.serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&host, "host", lineserver.DefaultHost, "address to bind")
	cmd.Flags().StringVarP(&port, "port", "p", types.DefaultListenPort.String(), "port to listen on (0 picks a free port)")
	cmd.Flags().IntVar(&maxLineBytes, "max-line-bytes", lineserver.DefaultMaxLineBytes, "longest accepted line (0 disables the limit)")
	cmd.Flags().BoolVar(&closeOnStop, "close-on-stop", false, "disconnect clients when the server stops")

	return cmd
}

// serve runs the server until ctx is cancelled or the user types quit.
func (a *App) serve(ctx context.Context, cfg *config.Config) error {
	out := &syncWriter{w: a.stdout}
	logger := newLogger(a.stderr, cfg.Log, a.verbose)

	dispatcher := lineserver.NewSerialDispatcher(logger)
	dispatcher.Start()
	defer dispatcher.Stop()

	srv := lineserver.New(cfg.LineServer(),
		lineserver.WithLogger(logger),
		lineserver.WithDispatcher(dispatcher),
	)
	srv.Subscribe(newConsole(out, srv.Addr))

	if err := srv.Run(ctx); err != nil {
		code := types.ExitFailure
		if errors.Is(err, lineserver.ErrBind) {
			code = types.ExitBindFailure
		}
		return a.fail(describeBindFailure(err), code)
	}
	defer srv.Stop()

	fmt.Fprintln(out, SubtitleStyle.Render("type help for commands"))

	ctl := &controller{srv: srv, out: out, verbose: a.verbose}
	return ctl.run(ctx, a.stdin)
}

func (c *controller) run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)
	go scanLines(in, lines, done)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.out, SubtitleStyle.Render("interrupted, shutting down"))
			return nil
		case err := <-c.srv.Err():
			fmt.Fprintln(c.out, WarningStyle.Render("! ")+err.Error())
		case line, ok := <-lines:
			if !ok {
				// Without a console keep serving until a signal arrives.
				lines = nil
				continue
			}
			if c.exec(ctx, line) {
				return nil
			}
		}
	}
}

// exec runs one console command and reports whether the loop should end.
func (c *controller) exec(ctx context.Context, line string) bool {
	switch command := strings.ToLower(strings.TrimSpace(line)); command {
	case "":
	case "start", "run":
		if err := c.srv.Run(ctx); err != nil {
			fmt.Fprintln(c.out, ErrorStyle.Render("✗ ")+formatErrorForDisplay(describeBindFailure(err), c.verbose))
		}
	case "stop":
		c.srv.Stop()
	case "status":
		c.status()
	case "help", "?":
		fmt.Fprintln(c.out, serveHelp)
	case "quit", "exit":
		return true
	default:
		fmt.Fprintf(c.out, "%s unknown command %q, type help for commands\n", WarningStyle.Render("!"), command)
	}
	return false
}

func (c *controller) status() {
	if !c.srv.IsRunning() {
		fmt.Fprintf(c.out, "status: %s\n", c.srv.State())
		return
	}
	fmt.Fprintf(c.out, "status: %s on %s, %d connection(s)\n", c.srv.State(), c.srv.Addr(), len(c.srv.Connections()))
}

func scanLines(in io.Reader, lines chan<- string, done <-chan struct{}) {
	defer close(lines)
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		select {
		case lines <- sc.Text():
		case <-done:
			return
		}
	}
}

// Compile-time check that the console satisfies the observer contract.
var _ lineserver.ServerStatusObserver = (*console)(nil)
