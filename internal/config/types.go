// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lineserve/lineserve/internal/lineserver"
	"github.com/lineserve/lineserve/pkg/types"
)

const (
	// LogLevelDebug logs every connection event.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo logs lifecycle and connection events.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs recoverable failures only.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs failures only.
	LogLevelError LogLevel = "error"

	// LogFormatText is human-readable colored output.
	LogFormatText LogFormat = "text"
	// LogFormatJSON emits one JSON object per record.
	LogFormatJSON LogFormat = "json"
	// LogFormatLogfmt emits key=value records.
	LogFormatLogfmt LogFormat = "logfmt"
)

var (
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidLogFormat is returned when a LogFormat value is not recognized.
	ErrInvalidLogFormat = errors.New("invalid log format")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// LogLevel is the minimum level of records the logger emits.
	LogLevel string

	// LogFormat selects the log record encoding.
	LogFormat string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// InvalidLogFormatError is returned when a LogFormat value is not recognized.
	InvalidLogFormatError struct {
		Value LogFormat
	}

	// InvalidConfigError collects every field error found by Config.Validate.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config is the application configuration.
	Config struct {
		// Server configures the TCP line server.
		Server ServerConfig `json:"server" mapstructure:"server" toml:"server"`
		// Log configures diagnostic logging.
		Log LogConfig `json:"log" mapstructure:"log" toml:"log"`
	}

	// ServerConfig mirrors lineserver.Config in file form.
	ServerConfig struct {
		Host                   string           `json:"host" mapstructure:"host" toml:"host"`
		Port                   types.ListenPort `json:"port" mapstructure:"port" toml:"port"`
		MaxLineBytes           int              `json:"max_line_bytes" mapstructure:"max_line_bytes" toml:"max_line_bytes"`
		CloseConnectionsOnStop bool             `json:"close_connections_on_stop" mapstructure:"close_connections_on_stop" toml:"close_connections_on_stop"`
	}

	// LogConfig configures the logger built by the CLI.
	LogConfig struct {
		Level  LogLevel  `json:"level" mapstructure:"level" toml:"level"`
		Format LogFormat `json:"format" mapstructure:"format" toml:"format"`
	}
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	server := lineserver.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Host:                   server.Host,
			Port:                   server.Port,
			MaxLineBytes:           server.MaxLineBytes,
			CloseConnectionsOnStop: server.CloseConnectionsOnStop,
		},
		Log: LogConfig{
			Level:  LogLevelInfo,
			Format: LogFormatText,
		},
	}
}

// LineServer converts the server section into a lineserver.Config.
func (c *Config) LineServer() lineserver.Config {
	return lineserver.Config{
		Host:                   c.Server.Host,
		Port:                   c.Server.Port,
		MaxLineBytes:           c.Server.MaxLineBytes,
		CloseConnectionsOnStop: c.Server.CloseConnectionsOnStop,
	}
}

// Validate checks values that may have bypassed the CUE schema (environment
// variables, flags). It returns an *InvalidConfigError or nil.
func (c *Config) Validate() error {
	var errs []error
	if err := c.LineServer().Validate(); err != nil {
		var lsErr *lineserver.InvalidConfigError
		if errors.As(err, &lsErr) {
			for _, fe := range lsErr.FieldErrors {
				errs = append(errs, fmt.Errorf("server.%w", fe))
			}
		} else {
			errs = append(errs, err)
		}
	}
	if err := c.Log.Level.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if err := c.Log.Format.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log.format: %w", err))
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// Validate returns an *InvalidLogLevelError if the level is not recognized.
func (l LogLevel) Validate() error {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return nil
	default:
		return &InvalidLogLevelError{Value: l}
	}
}

// String returns the string representation of the LogFormat.
func (f LogFormat) String() string { return string(f) }

// Validate returns an *InvalidLogFormatError if the format is not recognized.
func (f LogFormat) Validate() error {
	switch f {
	case LogFormatText, LogFormatJSON, LogFormatLogfmt:
		return nil
	default:
		return &InvalidLogFormatError{Value: f}
	}
}

// Error implements the error interface.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// Error implements the error interface.
func (e *InvalidLogFormatError) Error() string {
	return fmt.Sprintf("invalid log format %q (valid: text, json, logfmt)", e.Value)
}

// Unwrap returns ErrInvalidLogFormat for errors.Is() compatibility.
func (e *InvalidLogFormatError) Unwrap() error { return ErrInvalidLogFormat }

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, fe := range e.FieldErrors {
		msgs[i] = fe.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }
