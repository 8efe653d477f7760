// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"bufio"
	"net"
	"os"
	"sync/atomic"
	"testing"
	"time"
)

type countingStopper struct{ calls atomic.Int32 }

func (s *countingStopper) Stop() { s.calls.Add(1) }

func TestMustSetenvRestores(t *testing.T) {
	const key = "LINESERVE_TESTUTIL_VAR"

	cleanup := MustSetenv(t, key, "first")
	if got := os.Getenv(key); got != "first" {
		t.Fatalf("env = %q, want %q", got, "first")
	}
	cleanup()

	if _, ok := os.LookupEnv(key); ok {
		t.Errorf("%s should be unset after cleanup", key)
	}
}

func TestDeferStop(t *testing.T) {
	t.Parallel()

	s := &countingStopper{}
	stop := DeferStop(s)
	if s.calls.Load() != 0 {
		t.Fatal("DeferStop must not stop immediately")
	}
	stop()
	if s.calls.Load() != 1 {
		t.Errorf("Stop called %d times, want 1", s.calls.Load())
	}
}

func TestMustDialAndWriteLines(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer DeferClose(t, ln)()

	got := make(chan string, 2)
	go func() {
		c, acceptErr := ln.Accept()
		if acceptErr != nil {
			return
		}
		defer c.Close()
		sc := bufio.NewScanner(c)
		for sc.Scan() {
			got <- sc.Text()
		}
	}()

	conn := MustDial(t, ln.Addr().String())
	WriteLines(t, conn, "a", "b")

	for _, want := range []string{"a", "b"} {
		select {
		case line := <-got:
			if line != want {
				t.Errorf("line = %q, want %q", line, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %q", want)
		}
	}
}

func TestAssertRefused(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	MustClose(t, ln)

	AssertRefused(t, addr)
}

func TestEventually(t *testing.T) {
	t.Parallel()

	var n atomic.Int32
	go func() {
		time.Sleep(20 * time.Millisecond)
		n.Store(1)
	}()

	Eventually(t, time.Second, func() bool { return n.Load() == 1 }, "flag never set")
}
