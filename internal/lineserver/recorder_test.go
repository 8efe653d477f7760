// SPDX-License-Identifier: MPL-2.0

package lineserver

import (
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

const eventTimeout = 2 * time.Second

type (
	eventKind string

	event struct {
		kind eventKind
		text string
		conn *Connection
	}

	// recorder implements both observer interfaces and turns every callback
	// into an event on a buffered channel. With follow set it subscribes
	// itself to every new connection.
	recorder struct {
		events chan event
		follow bool
	}

	// connRecorder forwards one connection's events to a recorder, tagged
	// with the connection.
	connRecorder struct {
		rec  *recorder
		conn *Connection
	}
)

const (
	evRun        eventKind = "run"
	evShutdown   eventKind = "shutdown"
	evNewConn    eventKind = "new-connection"
	evMessage    eventKind = "message"
	evDisconnect eventKind = "disconnect"
)

func newRecorder(follow bool) *recorder {
	return &recorder{events: make(chan event, 1024), follow: follow}
}

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func (r *recorder) NotifyOnRun()      { r.events <- event{kind: evRun} }
func (r *recorder) NotifyOnShutdown() { r.events <- event{kind: evShutdown} }

func (r *recorder) NotifyOnNewConnection(conn *Connection) {
	if r.follow {
		conn.Subscribe(&connRecorder{rec: r, conn: conn})
	}
	r.events <- event{kind: evNewConn, conn: conn}
}

func (r *recorder) NotifyOnMessage(text string) { r.events <- event{kind: evMessage, text: text} }
func (r *recorder) NotifyOnDisconnect()         { r.events <- event{kind: evDisconnect} }

func (c *connRecorder) NotifyOnMessage(text string) {
	c.rec.events <- event{kind: evMessage, text: text, conn: c.conn}
}

func (c *connRecorder) NotifyOnDisconnect() {
	c.rec.events <- event{kind: evDisconnect, conn: c.conn}
}

func (r *recorder) next(t *testing.T) event {
	t.Helper()
	select {
	case ev := <-r.events:
		return ev
	case <-time.After(eventTimeout):
		t.Fatal("timed out waiting for observer event")
		return event{}
	}
}

func (r *recorder) expect(t *testing.T, kind eventKind) event {
	t.Helper()
	ev := r.next(t)
	if ev.kind != kind {
		t.Fatalf("got %s event (%q), want %s", ev.kind, ev.text, kind)
	}
	return ev
}

func (r *recorder) expectMessage(t *testing.T, want string) event {
	t.Helper()
	ev := r.expect(t, evMessage)
	if ev.text != want {
		t.Fatalf("message = %q, want %q", ev.text, want)
	}
	return ev
}

func (r *recorder) expectNone(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case ev := <-r.events:
		t.Fatalf("unexpected %s event (%q)", ev.kind, ev.text)
	case <-time.After(wait):
	}
}
