// SPDX-License-Identifier: MPL-2.0

package lineserver

import (
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

type (
	// Dispatcher decides which goroutine runs observer callbacks raised by
	// background goroutines (new connections, messages, disconnects).
	// Implementations must run functions in the order Dispatch was called.
	Dispatcher interface {
		Dispatch(fn func())
	}

	// InlineDispatcher runs each function on the goroutine that raised the event.
	InlineDispatcher struct{}

	// SerialDispatcher runs every function on one dedicated goroutine, in
	// FIFO order. Until Stop, Dispatch never blocks: the queue is unbounded.
	//
	// Use it when observers must not run concurrently with each other, the
	// way a UI toolkit requires callbacks on its own thread.
	SerialDispatcher struct {
		logger *log.Logger

		mu      sync.Mutex
		queue   []func()
		started bool
		stopped bool

		wake chan struct{}
		done chan struct{}
	}
)

// Dispatch runs fn immediately.
func (InlineDispatcher) Dispatch(fn func()) { fn() }

// NewSerialDispatcher creates a dispatcher. Call Start to begin draining it.
// A nil logger falls back to a stderr logger.
func NewSerialDispatcher(logger *log.Logger) *SerialDispatcher {
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "dispatcher"})
	}
	return &SerialDispatcher{
		logger: logger,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Start launches the draining goroutine. Functions dispatched before Start
// are kept and run once it begins. Calling Start more than once is a no-op.
func (d *SerialDispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started || d.stopped {
		return
	}
	d.started = true
	go d.loop()
}

// Dispatch queues fn. After Stop, fn runs on the caller's goroutine instead,
// once everything queued before Stop has run.
func (d *SerialDispatcher) Dispatch(fn func()) {
	d.mu.Lock()
	if d.stopped {
		started := d.started
		d.mu.Unlock()
		if started {
			<-d.done
		}
		d.run(fn)
		return
	}
	d.queue = append(d.queue, fn)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Stop runs everything still queued and then ends the draining goroutine.
// It must not be called from a dispatched function.
func (d *SerialDispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	started := d.started
	pending := d.queue
	if !started {
		d.queue = nil
	}
	d.mu.Unlock()

	if !started {
		for _, fn := range pending {
			d.run(fn)
		}
		return
	}

	select {
	case d.wake <- struct{}{}:
	default:
	}
	<-d.done
}

func (d *SerialDispatcher) loop() {
	defer close(d.done)

	for {
		d.mu.Lock()
		batch := d.queue
		d.queue = nil
		stopped := d.stopped
		d.mu.Unlock()

		for _, fn := range batch {
			d.run(fn)
		}

		if len(batch) > 0 {
			continue
		}
		if stopped {
			return
		}
		<-d.wake
	}
}

func (d *SerialDispatcher) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("dispatched function panicked", "panic", r)
		}
	}()
	fn()
}
