// SPDX-License-Identifier: MPL-2.0

package lineserver

import "github.com/charmbracelet/log"

type (
	// ServerStatusObserver receives server lifecycle events.
	//
	// NotifyOnRun and NotifyOnShutdown are called by Run and Stop on the
	// calling goroutine, in transition order. When a status event is already
	// being delivered, the new one is delivered right after it by the same
	// goroutine, so an observer may call Run or Stop from these callbacks.
	//
	// NotifyOnNewConnection is called through the server's Dispatcher from
	// the connection's goroutine, never from the accept loop, so it may call
	// Stop too. An observer that wants the connection's messages should
	// subscribe to it from inside this callback, before the first line is read.
	ServerStatusObserver interface {
		NotifyOnRun()
		NotifyOnShutdown()
		NotifyOnNewConnection(conn *Connection)
	}

	// ConnectionObserver receives the events of a single connection.
	// Calls for one connection are never concurrent and arrive in read order.
	// NotifyOnDisconnect comes exactly once and last, also when the
	// connection is closed locally.
	ConnectionObserver interface {
		NotifyOnMessage(text string)
		NotifyOnDisconnect()
	}

	// StatusObserverFuncs adapts plain functions to ServerStatusObserver.
	// Nil fields are skipped.
	StatusObserverFuncs struct {
		OnRun           func()
		OnShutdown      func()
		OnNewConnection func(conn *Connection)
	}

	// ConnectionObserverFuncs adapts plain functions to ConnectionObserver.
	// Nil fields are skipped.
	ConnectionObserverFuncs struct {
		OnMessage    func(text string)
		OnDisconnect func()
	}
)

// NotifyOnRun implements ServerStatusObserver.
func (f StatusObserverFuncs) NotifyOnRun() {
	if f.OnRun != nil {
		f.OnRun()
	}
}

// NotifyOnShutdown implements ServerStatusObserver.
func (f StatusObserverFuncs) NotifyOnShutdown() {
	if f.OnShutdown != nil {
		f.OnShutdown()
	}
}

// NotifyOnNewConnection implements ServerStatusObserver.
func (f StatusObserverFuncs) NotifyOnNewConnection(conn *Connection) {
	if f.OnNewConnection != nil {
		f.OnNewConnection(conn)
	}
}

// NotifyOnMessage implements ConnectionObserver.
func (f ConnectionObserverFuncs) NotifyOnMessage(text string) {
	if f.OnMessage != nil {
		f.OnMessage(text)
	}
}

// NotifyOnDisconnect implements ConnectionObserver.
func (f ConnectionObserverFuncs) NotifyOnDisconnect() {
	if f.OnDisconnect != nil {
		f.OnDisconnect()
	}
}

// notifyEach calls notify for every observer. A panicking observer is logged
// and skipped so that the remaining observers, and the goroutine delivering
// the event, keep going.
func notifyEach[T any](logger *log.Logger, observers []T, event string, notify func(T)) {
	for _, o := range observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("observer panicked", "event", event, "panic", r)
				}
			}()
			notify(o)
		}()
	}
}
