// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"sync"

	"github.com/lineserve/lineserve/internal/lineserver"
)

type (
	// console prints server and connection events, one line per event.
	console struct {
		out  io.Writer
		addr func() string
	}

	// syncWriter serializes writes from the control loop and the dispatcher.
	syncWriter struct {
		mu sync.Mutex
		w  io.Writer
	}
)

func newConsole(out io.Writer, addr func() string) *console {
	return &console{out: out, addr: addr}
}

func (c *console) NotifyOnRun() {
	c.printf("%s server running on %s", SuccessStyle.Render("●"), c.addr())
}

func (c *console) NotifyOnShutdown() {
	c.printf("%s server stopped", WarningStyle.Render("○"))
}

// NotifyOnNewConnection announces the client and subscribes to its lines.
func (c *console) NotifyOnNewConnection(conn *lineserver.Connection) {
	id := shortID(conn.ID())
	c.printf("%s %s connected from %s", SuccessStyle.Render("→"), CmdStyle.Render(id), conn.RemoteAddr())

	conn.Subscribe(lineserver.ConnectionObserverFuncs{
		OnMessage: func(text string) {
			c.printf("%s %s", CmdStyle.Render(id+" │"), text)
		},
		OnDisconnect: func() {
			c.printf("%s %s disconnected", WarningStyle.Render("←"), CmdStyle.Render(id))
		},
	})
}

func (c *console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format+"\n", args...)
}

// shortID returns the first block of a UUID, enough to tell clients apart.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
