// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"io"
	"net"
	"os"
	"strings"
	"testing"
	"time"
)

// DialTimeout bounds every dial made by MustDial and AssertRefused.
const DialTimeout = 2 * time.Second

// Stopper is an interface for types that have a Stop method.
// This is commonly used for server types.
type Stopper interface {
	Stop()
}

// MustSetenv sets the environment variable key to value.
// It returns a cleanup function that restores the original value (or unsets it).
// The test fails immediately if the operation fails.
func MustSetenv(t testing.TB, key, value string) func() {
	t.Helper()
	originalValue, hadValue := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	return func() {
		if hadValue {
			if err := os.Setenv(key, originalValue); err != nil {
				t.Errorf("failed to restore env %s: %v", key, err)
			}
		} else {
			if err := os.Unsetenv(key); err != nil {
				t.Errorf("failed to unset env %s: %v", key, err)
			}
		}
	}
}

// MustClose closes the given io.Closer.
// The test fails immediately if the close fails.
func MustClose(t testing.TB, c io.Closer) {
	t.Helper()
	if err := c.Close(); err != nil {
		t.Fatalf("failed to close: %v", err)
	}
}

// DeferClose returns a cleanup function that closes the given io.Closer,
// logging any errors. Useful for defer statements in tests.
func DeferClose(t testing.TB, c io.Closer) func() {
	t.Helper()
	return func() {
		t.Helper()
		if err := c.Close(); err != nil {
			t.Logf("warning: close returned error: %v", err)
		}
	}
}

// DeferStop returns a cleanup function that stops the given Stopper.
// Useful for defer statements and t.Cleanup in tests.
func DeferStop(s Stopper) func() {
	return func() { s.Stop() }
}

// MustDial opens a TCP connection to addr and registers it for cleanup.
// The test fails immediately if the dial fails.
func MustDial(t testing.TB, addr string) net.Conn {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, DialTimeout)
	if err != nil {
		t.Fatalf("failed to dial %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// WriteLines writes each line followed by "\n" to w.
// The test fails immediately if a write fails.
func WriteLines(t testing.TB, w io.Writer, lines ...string) {
	t.Helper()
	for _, line := range lines {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			t.Fatalf("failed to write %q: %v", line, err)
		}
	}
}

// AssertRefused fails the test if a TCP connection to addr succeeds.
func AssertRefused(t testing.TB, addr string) {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, DialTimeout)
	if err == nil {
		_ = conn.Close()
		t.Fatalf("dial %s succeeded, want connection refused", addr)
	}
}

// Eventually polls cond every few milliseconds until it returns true or
// timeout elapses, in which case the test fails with msg.
func Eventually(t testing.TB, timeout time.Duration, cond func() bool, msg ...string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within %v: %s", timeout, strings.Join(msg, " "))
		}
		time.Sleep(5 * time.Millisecond)
	}
}
