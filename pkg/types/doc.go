// SPDX-License-Identifier: MPL-2.0

// Package types holds small value types shared between the line server
// library and the lineserve CLI.
package types
