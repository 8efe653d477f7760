// SPDX-License-Identifier: MPL-2.0

// Command lineserve runs and talks to TCP line servers.
package main

import cmd "github.com/lineserve/lineserve/cmd/lineserve"

func main() {
	cmd.Execute()
}
