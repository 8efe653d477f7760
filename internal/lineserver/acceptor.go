// SPDX-License-Identifier: MPL-2.0

package lineserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const (
	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = time.Second
)

// Acceptor owns a listening socket. Its Serve loop turns every accepted
// socket into a Connection and starts a goroutine that announces it to the
// status observers and then runs the connection's read loop.
type Acceptor struct {
	listener   net.Listener
	observers  *Registry[ServerStatusObserver]
	dispatcher Dispatcher
	logger     *log.Logger
	maxLine    int
	reportErr  func(error)

	mu    sync.Mutex
	conns map[uuid.UUID]*Connection
}

func newAcceptor(listener net.Listener, observers *Registry[ServerStatusObserver], dispatcher Dispatcher, logger *log.Logger, maxLine int) *Acceptor {
	return &Acceptor{
		listener:   listener,
		observers:  observers,
		dispatcher: dispatcher,
		logger:     logger,
		maxLine:    maxLine,
		reportErr:  func(error) {},
		conns:      make(map[uuid.UUID]*Connection),
	}
}

// Addr returns the listener's bound address.
func (a *Acceptor) Addr() net.Addr { return a.listener.Addr() }

// Serve accepts connections until the listener is closed or ctx is cancelled.
// Other accept errors are logged and retried with a capped backoff.
func (a *Acceptor) Serve(ctx context.Context) {
	var backoff time.Duration
	for {
		nc, err := a.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				a.logger.Debug("accept loop finished", "addr", a.Addr().String())
				return
			}

			backoff = nextBackoff(backoff)
			a.logger.Warn("accept failed", "error", err, "retry_in", backoff)
			a.reportErr(fmt.Errorf("accept: %w", err))

			timer := time.NewTimer(backoff)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return
			}
			continue
		}

		backoff = 0
		a.handle(nc)
	}
}

func (a *Acceptor) handle(nc net.Conn) {
	conn := newConnection(nc, a.dispatcher, a.logger, a.maxLine)
	conn.onClose = a.remove
	a.add(conn)

	conn.logger.Info("client connected")

	// The announcement runs on the connection's goroutine, not the accept
	// loop, so an observer may call Server.Stop from NotifyOnNewConnection.
	observers := a.observers.Snapshot()
	go func() {
		a.dispatcher.Dispatch(func() {
			notifyEach(a.logger, observers, "new connection", func(o ServerStatusObserver) { o.NotifyOnNewConnection(conn) })
			conn.markReady()
		})
		conn.serve()
	}()
}

// Connections returns the live connections produced by this acceptor.
func (a *Acceptor) Connections() []*Connection {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]*Connection, 0, len(a.conns))
	for _, c := range a.conns {
		out = append(out, c)
	}
	return out
}

// Close closes the listening socket, which makes a blocked Accept return.
func (a *Acceptor) Close() error {
	if err := a.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

// CloseConnections closes every live connection. Each read loop delivers its
// own disconnect afterwards. Close failures are logged.
func (a *Acceptor) CloseConnections() {
	for _, c := range a.Connections() {
		if err := c.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			c.logger.Warn("close failed", "error", err)
		}
	}
}

func (a *Acceptor) add(c *Connection) {
	a.mu.Lock()
	a.conns[c.id] = c
	a.mu.Unlock()
}

func (a *Acceptor) remove(c *Connection) {
	a.mu.Lock()
	delete(a.conns, c.id)
	a.mu.Unlock()
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return minAcceptBackoff
	}
	return min(d*2, maxAcceptBackoff)
}
