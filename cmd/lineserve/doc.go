// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the lineserve CLI.
//
// It implements the Cobra command hierarchy: serve runs a line server with a
// console observer and a small stdin control loop, send is a manual test
// client, and config inspects or initializes the configuration file.
package cmd
