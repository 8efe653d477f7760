// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"
)

func TestLogLevelValidate(t *testing.T) {
	t.Parallel()

	for _, level := range []LogLevel{LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError} {
		if err := level.Validate(); err != nil {
			t.Errorf("%q.Validate() = %v", level, err)
		}
	}

	err := LogLevel("trace").Validate()
	if !errors.Is(err, ErrInvalidLogLevel) {
		t.Fatalf("expected ErrInvalidLogLevel, got %v", err)
	}
	var levelErr *InvalidLogLevelError
	if !errors.As(err, &levelErr) || levelErr.Value != "trace" {
		t.Errorf("expected *InvalidLogLevelError{Value: trace}, got %#v", err)
	}
}

func TestLogFormatValidate(t *testing.T) {
	t.Parallel()

	for _, format := range []LogFormat{LogFormatText, LogFormatJSON, LogFormatLogfmt} {
		if err := format.Validate(); err != nil {
			t.Errorf("%q.Validate() = %v", format, err)
		}
	}

	if err := LogFormat("").Validate(); !errors.Is(err, ErrInvalidLogFormat) {
		t.Errorf("empty format should be invalid, got %v", err)
	}
}

func TestConfigValidateCollectsFields(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Server.Host = ""
	cfg.Server.Port = -1
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	var cfgErr *InvalidConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Validate() = %T, want *InvalidConfigError", err)
	}
	if len(cfgErr.FieldErrors) != 3 {
		t.Errorf("got %d field errors (%v), want 3", len(cfgErr.FieldErrors), cfgErr.FieldErrors)
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Error("error should match ErrInvalidConfig")
	}
}
