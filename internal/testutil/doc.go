// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Common helpers include environment variable management (MustSetenv),
// resource cleanup (MustClose, DeferClose, DeferStop), loopback networking
// (MustDial, WriteLines, AssertRefused) and polling (Eventually).
package testutil
