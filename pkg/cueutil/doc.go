// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates CUE documents against an embedded schema.
//
// A document is compiled, unified with a definition from the schema
// (for example "#Config"), validated and decoded in one call:
//
//	//go:embed config_schema.cue
//	var schema []byte
//
//	values, err := cueutil.Decode[map[string]any](schema, data, "#Config",
//	    cueutil.WithFilename(path))
//
// Errors carry the file name and the JSON-style path of the offending field.
package cueutil
