// SPDX-License-Identifier: MPL-2.0

// Package config handles lineserve configuration using Viper with CUE as the file format.
//
// Values come from built-in defaults, an optional config.cue file validated
// against the embedded schema (config_schema.cue), and LINESERVE_* environment
// variables, in increasing order of precedence. The file is looked up at the
// --config path if given, else in the user config directory
// ($XDG_CONFIG_HOME/lineserve on Linux), else in the working directory.
package config
