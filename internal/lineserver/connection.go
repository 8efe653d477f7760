// SPDX-License-Identifier: MPL-2.0

package lineserver

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const readBufferSize = 4096

// Connection is one accepted client socket. It reads newline-terminated lines
// on its own goroutine and reports them to its subscribed observers.
type Connection struct {
	id         uuid.UUID
	conn       net.Conn
	observers  *Registry[ConnectionObserver]
	dispatcher Dispatcher
	logger     *log.Logger
	maxLine    int

	// ready is closed once the new-connection event has been delivered;
	// the read loop waits for it so early subscribers see the first line.
	ready     chan struct{}
	readyOnce sync.Once

	// closed is set by the first Close; done is closed when serve exits.
	closeMu sync.Mutex
	closed  bool
	done    chan struct{}
	onClose func(*Connection)
}

func newConnection(conn net.Conn, dispatcher Dispatcher, logger *log.Logger, maxLine int) *Connection {
	id := uuid.New()
	return &Connection{
		id:         id,
		conn:       conn,
		observers:  NewRegistry[ConnectionObserver](),
		dispatcher: dispatcher,
		logger:     logger.With("conn", id.String(), "remote", conn.RemoteAddr().String()),
		maxLine:    maxLine,
		ready:      make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// ID returns the connection's unique identifier.
func (c *Connection) ID() string { return c.id.String() }

// RemoteAddr returns the peer address.
func (c *Connection) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

// Subscribe registers an observer for this connection's messages and disconnect.
func (c *Connection) Subscribe(observer ConnectionObserver) Subscription {
	return c.observers.Subscribe(observer)
}

// Unsubscribe removes a registration made with Subscribe.
func (c *Connection) Unsubscribe(sub Subscription) bool {
	return c.observers.Unsubscribe(sub)
}

// Done returns a channel that is closed once the read loop has exited and
// the disconnect has been handed to the dispatcher.
func (c *Connection) Done() <-chan struct{} { return c.done }

// Close releases the socket. The read loop then stops and delivers the one
// disconnect to observers, after any message it has already dispatched.
// Concurrent and repeated calls are safe; only the first has an effect and
// later calls return nil.
func (c *Connection) Close() error {
	c.closeMu.Lock()
	if c.closed {
		c.closeMu.Unlock()
		return nil
	}
	c.closed = true
	c.closeMu.Unlock()

	err := c.conn.Close()
	c.markReady()
	return err
}

func (c *Connection) isClosed() bool {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	return c.closed
}

func (c *Connection) markReady() {
	c.readyOnce.Do(func() { close(c.ready) })
}

// serve is the read loop and the only goroutine that raises this
// connection's events. It runs until the peer disconnects, a read fails, or
// Close is called, and always ends with the disconnect.
func (c *Connection) serve() {
	<-c.ready

	reader := bufio.NewReaderSize(c.conn, readBufferSize)
	for {
		line, err := readLine(reader, c.maxLine)
		if err == nil && c.isClosed() {
			// Lines still buffered after Close are dropped.
			err = net.ErrClosed
		}
		if err != nil {
			c.logReadFailure(err)
			c.finish()
			return
		}

		observers := c.observers.Snapshot()
		c.dispatcher.Dispatch(func() {
			notifyEach(c.logger, observers, "message", func(o ConnectionObserver) { o.NotifyOnMessage(line) })
		})
	}
}

func (c *Connection) finish() {
	if err := c.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		c.logger.Warn("close failed", "error", err)
	}

	observers := c.observers.Snapshot()
	c.dispatcher.Dispatch(func() {
		notifyEach(c.logger, observers, "disconnect", func(o ConnectionObserver) { o.NotifyOnDisconnect() })
	})

	if c.onClose != nil {
		c.onClose(c)
	}
	close(c.done)
}

func (c *Connection) logReadFailure(err error) {
	switch {
	case errors.Is(err, io.EOF):
		c.logger.Debug("peer disconnected")
	case errors.Is(err, net.ErrClosed):
		c.logger.Debug("connection closed locally")
	case errors.Is(err, ErrLineTooLong):
		c.logger.Warn("dropping connection", "error", err, "limit", c.maxLine)
	default:
		c.logger.Warn("read failed", "error", err)
	}
}

// readLine returns the next line without its "\n" or "\r\n" terminator.
// Bytes that are not followed by a terminator before the stream ends are
// discarded together with the error. A limit of zero disables the length check.
func readLine(r *bufio.Reader, limit int) (string, error) {
	var line []byte
	for {
		frag, err := r.ReadSlice('\n')
		switch {
		case err == nil:
			line = append(line, frag...)
			line = bytes.TrimSuffix(line[:len(line)-1], []byte{'\r'})
			if limit > 0 && len(line) > limit {
				return "", ErrLineTooLong
			}
			return string(line), nil
		case errors.Is(err, bufio.ErrBufferFull):
			line = append(line, frag...)
			// +1 leaves room for a trailing '\r' that belongs to the terminator.
			if limit > 0 && len(line) > limit+1 {
				return "", ErrLineTooLong
			}
		default:
			return "", err
		}
	}
}
