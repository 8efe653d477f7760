// SPDX-License-Identifier: MPL-2.0

package lineserver

import (
	"fmt"
	"net"
	"strings"

	"github.com/lineserve/lineserve/pkg/types"
)

const (
	// DefaultHost is the address the server binds to by default.
	DefaultHost = "127.0.0.1"
	// DefaultMaxLineBytes bounds a single line, excluding its terminator.
	DefaultMaxLineBytes = 64 * 1024
)

// Config holds immutable configuration for a Server.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (0 = auto-select, default: 3000)
	Port types.ListenPort
	// MaxLineBytes is the longest accepted line; longer lines end the
	// connection. Zero disables the limit.
	MaxLineBytes int
	// CloseConnectionsOnStop closes every live connection when the server
	// stops. By default connections outlive the listener and end only when
	// their peer disconnects.
	CloseConnectionsOnStop bool
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Host:         DefaultHost,
		Port:         types.DefaultListenPort,
		MaxLineBytes: DefaultMaxLineBytes,
	}
}

// Address returns the host:port pair the server listens on.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, c.Port.String())
}

// Validate returns an *InvalidConfigError listing every invalid field, or nil.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Host) == "" {
		errs = append(errs, fmt.Errorf("host: must be non-empty"))
	}
	if err := c.Port.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("port: %w", err))
	}
	if c.MaxLineBytes < 0 {
		errs = append(errs, fmt.Errorf("max_line_bytes: must not be negative, got %d", c.MaxLineBytes))
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// withDefaults fills zero-valued fields that have no meaningful zero.
func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	return c
}
