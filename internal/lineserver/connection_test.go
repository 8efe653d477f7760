// SPDX-License-Identifier: MPL-2.0

package lineserver

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strings"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// pipeConnection returns a Connection wrapping one end of an in-memory pipe
// and the peer end for the test to write to.
func pipeConnection(t *testing.T, maxLine int) (*Connection, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() {
		_ = client.Close()
		_ = server.Close()
	})
	return newConnection(server, InlineDispatcher{}, testLogger(), maxLine), client
}

// writeLines is for goroutines that cannot fail the test; the reading side
// asserts on what arrives.
func writeLines(w io.Writer, lines ...string) {
	for _, line := range lines {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return
		}
	}
}

func TestReadLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		limit int
		want  []string
		err   error
	}{
		{"single line", "hello\n", 0, []string{"hello"}, io.EOF},
		{"crlf terminator", "hello\r\nworld\r\n", 0, []string{"hello", "world"}, io.EOF},
		{"empty line", "\n\n", 0, []string{"", ""}, io.EOF},
		{"unterminated tail dropped", "one\ntwo", 0, []string{"one"}, io.EOF},
		{"nothing", "", 0, nil, io.EOF},
		{"line at limit", "abcd\n", 4, []string{"abcd"}, io.EOF},
		{"line over limit", "abcde\n", 4, nil, ErrLineTooLong},
		{"crlf not counted toward limit", "abcd\r\n", 4, []string{"abcd"}, io.EOF},
		{"long line spanning buffers", strings.Repeat("x", 3*readBufferSize) + "\n", 0, []string{strings.Repeat("x", 3*readBufferSize)}, io.EOF},
		{"long line over limit", strings.Repeat("x", 3*readBufferSize) + "\n", readBufferSize, nil, ErrLineTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := bufio.NewReaderSize(strings.NewReader(tt.input), readBufferSize)
			var got []string
			var err error
			for {
				var line string
				line, err = readLine(r, tt.limit)
				if err != nil {
					break
				}
				got = append(got, line)
			}

			if !errors.Is(err, tt.err) {
				t.Errorf("final error = %v, want %v", err, tt.err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("lines = %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestConnectionDeliversLinesInOrder(t *testing.T) {
	t.Parallel()

	conn, peer := pipeConnection(t, 0)
	rec := newRecorder(false)
	conn.Subscribe(rec)
	conn.markReady()
	go conn.serve()

	lines := []string{"first", "second", "", "fourth"}
	go func() {
		writeLines(peer, lines...)
		_, _ = io.WriteString(peer, "partial")
		_ = peer.Close()
	}()

	for _, want := range lines {
		rec.expectMessage(t, want)
	}
	rec.expect(t, evDisconnect)
	rec.expectNone(t, 20*time.Millisecond)

	select {
	case <-conn.Done():
	case <-time.After(eventTimeout):
		t.Fatal("connection not torn down after peer closed")
	}
}

func TestConnectionWaitsUntilReady(t *testing.T) {
	t.Parallel()

	conn, peer := pipeConnection(t, 0)
	go conn.serve()

	written := make(chan struct{})
	go func() {
		writeLines(peer, "early")
		close(written)
	}()

	select {
	case <-written:
		t.Fatal("read loop consumed data before the connection was ready")
	case <-time.After(20 * time.Millisecond):
	}

	rec := newRecorder(false)
	conn.Subscribe(rec)
	conn.markReady()

	rec.expectMessage(t, "early")
}

func TestConnectionCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	conn, _ := pipeConnection(t, 0)
	first, second := newRecorder(false), newRecorder(false)
	conn.Subscribe(first)
	conn.Subscribe(second)
	conn.markReady()
	go conn.serve()

	var wg sync.WaitGroup
	for range 5 {
		wg.Go(func() { _ = conn.Close() })
	}
	wg.Wait()

	if err := conn.Close(); err != nil {
		t.Errorf("Close after close = %v, want nil", err)
	}

	for _, rec := range []*recorder{first, second} {
		rec.expect(t, evDisconnect)
		rec.expectNone(t, 20*time.Millisecond)
	}

	select {
	case <-conn.Done():
	case <-time.After(eventTimeout):
		t.Error("Done should be closed after Close")
	}
}

func TestConnectionCloseReleasesSocket(t *testing.T) {
	t.Parallel()

	conn, peer := pipeConnection(t, 0)
	conn.markReady()
	go conn.serve()

	if err := conn.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}

	_ = peer.SetReadDeadline(time.Now().Add(eventTimeout))
	if _, err := peer.Read(make([]byte, 1)); !errors.Is(err, io.EOF) {
		t.Errorf("peer read after Close = %v, want io.EOF", err)
	}
}

func TestConnectionLineTooLong(t *testing.T) {
	t.Parallel()

	conn, peer := pipeConnection(t, 4)
	rec := newRecorder(false)
	conn.Subscribe(rec)
	conn.markReady()
	go conn.serve()

	go func() { _, _ = io.WriteString(peer, "ok\nway too long\n") }()

	rec.expectMessage(t, "ok")
	rec.expect(t, evDisconnect)
}

func TestConnectionUnsubscribe(t *testing.T) {
	t.Parallel()

	conn, peer := pipeConnection(t, 0)
	kept, dropped := newRecorder(false), newRecorder(false)
	conn.Subscribe(kept)
	sub := conn.Subscribe(dropped)
	if !conn.Unsubscribe(sub) {
		t.Fatal("Unsubscribe should report true")
	}
	conn.markReady()
	go conn.serve()

	go writeLines(peer, "x")

	kept.expectMessage(t, "x")
	dropped.expectNone(t, 20*time.Millisecond)
}

func TestConnectionObserverPanicIsContained(t *testing.T) {
	t.Parallel()

	conn, peer := pipeConnection(t, 0)
	conn.Subscribe(ConnectionObserverFuncs{OnMessage: func(string) { panic("bad observer") }})
	rec := newRecorder(false)
	conn.Subscribe(rec)
	conn.markReady()
	go conn.serve()

	go writeLines(peer, "one", "two")

	rec.expectMessage(t, "one")
	rec.expectMessage(t, "two")
}

func TestConnectionOnCloseCallback(t *testing.T) {
	t.Parallel()

	conn, _ := pipeConnection(t, 0)
	called := make(chan *Connection, 1)
	conn.onClose = func(c *Connection) { called <- c }
	conn.markReady()
	go conn.serve()

	_ = conn.Close()

	select {
	case c := <-called:
		if c != conn {
			t.Error("onClose received a different connection")
		}
	case <-time.After(eventTimeout):
		t.Error("onClose was not called")
	}
	if conn.ID() == "" {
		t.Error("ID should not be empty")
	}
}

func TestConnectionCloseWhileDeliveringMessage(t *testing.T) {
	t.Parallel()

	conn, peer := pipeConnection(t, 0)

	var (
		mu      sync.Mutex
		events  []string
		active  atomic.Int32
		overlap atomic.Bool
	)
	enter := func(ev string) func() {
		if active.Add(1) > 1 {
			overlap.Store(true)
		}
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
		return func() { active.Add(-1) }
	}

	entered := make(chan struct{})
	release := make(chan struct{})
	disconnected := make(chan struct{})
	conn.Subscribe(ConnectionObserverFuncs{
		OnMessage: func(text string) {
			defer enter("message:" + text)()
			if text == "a" {
				close(entered)
				<-release
			}
		},
		OnDisconnect: func() {
			defer enter("disconnect")()
			close(disconnected)
		},
	})
	conn.markReady()
	go conn.serve()

	// Both lines arrive in one read, so "b" is already buffered when Close runs.
	go func() { _, _ = io.WriteString(peer, "a\nb\n") }()

	select {
	case <-entered:
	case <-time.After(eventTimeout):
		t.Fatal("first message not delivered")
	}

	closed := make(chan error, 1)
	go func() { closed <- conn.Close() }()
	select {
	case <-closed:
	case <-time.After(eventTimeout):
		t.Fatal("Close blocked on a running callback")
	}

	close(release)
	select {
	case <-disconnected:
	case <-time.After(eventTimeout):
		t.Fatal("disconnect not delivered")
	}
	select {
	case <-conn.Done():
	case <-time.After(eventTimeout):
		t.Fatal("connection not torn down")
	}

	if overlap.Load() {
		t.Error("callbacks for one connection ran concurrently")
	}
	mu.Lock()
	defer mu.Unlock()
	want := []string{"message:a", "disconnect"}
	if !slices.Equal(events, want) {
		t.Errorf("events = %q, want %q", events, want)
	}
}
