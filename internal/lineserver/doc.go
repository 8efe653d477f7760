// SPDX-License-Identifier: MPL-2.0

// Package lineserver implements a TCP server that accepts connections and
// reads newline-delimited text from each of them.
//
// A Server alternates between halted and running. While running it owns an
// Acceptor, which accepts connections on a single goroutine and wraps each in
// a Connection with its own read goroutine. Lifecycle and connection events
// are delivered to subscribed observers through a Dispatcher, which lets a
// consumer choose the goroutine its callbacks run on.
package lineserver
