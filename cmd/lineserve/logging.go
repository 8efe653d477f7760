// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/lineserve/lineserve/internal/config"
)

// newLogger builds the server logger from the log section of the config.
// Verbose forces the debug level.
func newLogger(w io.Writer, lc config.LogConfig, verbose bool) *log.Logger {
	level, err := log.ParseLevel(lc.Level.String())
	if err != nil {
		level = log.InfoLevel
	}
	if verbose {
		level = log.DebugLevel
	}

	var formatter log.Formatter
	switch lc.Format {
	case config.LogFormatJSON:
		formatter = log.JSONFormatter
	case config.LogFormatLogfmt:
		formatter = log.LogfmtFormatter
	default:
		formatter = log.TextFormatter
	}

	return log.NewWithOptions(w, log.Options{
		Prefix:          config.AppName,
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: true,
	})
}
