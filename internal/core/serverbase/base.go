// SPDX-License-Identifier: MPL-2.0

package serverbase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Base provides common fields and lifecycle infrastructure for servers.
// Concrete server implementations embed this struct.
//
// Unlike a single-use server, a Base may be run and halted any number of times.
type Base struct {
	// State management (atomic for lock-free reads)
	state atomic.Int32

	// transitionMu serializes TransitionToRunning and TransitionToHalted.
	transitionMu sync.Mutex

	// runMu guards the per-run context.
	runMu  sync.RWMutex
	parent context.Context
	ctx    context.Context
	cancel context.CancelFunc

	wg    sync.WaitGroup
	errCh chan error
}

// NewBase creates a new halted Base with the given options.
// Default error channel buffer size is 1.
func NewBase(opts ...Option) *Base {
	b := &Base{
		parent: context.Background(),
		errCh:  make(chan error, 1),
	}
	b.state.Store(int32(StateHalted))

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// State returns the current server state (atomic, lock-free read).
func (b *Base) State() State {
	return State(b.state.Load())
}

// IsRunning returns true if the server is in the Running state.
func (b *Base) IsRunning() bool {
	return b.State() == StateRunning
}

// Err returns a channel for receiving async errors reported with SendError.
func (b *Base) Err() <-chan error {
	return b.errCh
}

// Context returns the context of the current run, or nil while halted.
func (b *Base) Context() context.Context {
	b.runMu.RLock()
	defer b.runMu.RUnlock()
	return b.ctx
}

// --- Lifecycle helpers for concrete implementations ---

// TransitionToRunning moves the Base from Halted to Running.
//
// start is called with the new run context while the transition lock is held;
// it should acquire resources and launch goroutines with Go. If start fails the
// run context is cancelled, any goroutines it launched are awaited, the state
// stays Halted and the error is returned unchanged.
//
// Returns ErrAlreadyRunning without calling start when already Running.
func (b *Base) TransitionToRunning(ctx context.Context, start func(runCtx context.Context) error) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("context cancelled before run: %w", ctx.Err())
	default:
	}

	b.transitionMu.Lock()
	defer b.transitionMu.Unlock()

	if b.State() == StateRunning {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(b.parent)
	b.setRun(runCtx, cancel)

	if err := start(runCtx); err != nil {
		cancel()
		b.wg.Wait()
		b.setRun(nil, nil)
		return err
	}

	b.state.Store(int32(StateRunning))
	return nil
}

// TransitionToHalted moves the Base from Running to Halted.
//
// The run context is cancelled first, then stop is called (still under the
// transition lock) to release resources that unblock the run's goroutines.
// The call returns after every goroutine started with Go has exited.
//
// Returns ErrAlreadyHalted without calling stop when already Halted.
func (b *Base) TransitionToHalted(stop func()) error {
	b.transitionMu.Lock()
	defer b.transitionMu.Unlock()

	if b.State() == StateHalted {
		return ErrAlreadyHalted
	}

	b.runMu.RLock()
	cancel := b.cancel
	b.runMu.RUnlock()
	if cancel != nil {
		cancel()
	}

	if stop != nil {
		stop()
	}
	b.wg.Wait()

	b.setRun(nil, nil)
	b.state.Store(int32(StateHalted))
	return nil
}

// Go runs fn on a tracked goroutine with the current run context.
// It returns false, without starting anything, when no run is in progress.
func (b *Base) Go(fn func(ctx context.Context)) bool {
	ctx := b.Context()
	if ctx == nil {
		return false
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		fn(ctx)
	}()
	return true
}

// SendError sends an error to the error channel (non-blocking).
// If the channel is full, the error is dropped.
func (b *Base) SendError(err error) {
	select {
	case b.errCh <- err:
	default:
	}
}

func (b *Base) setRun(ctx context.Context, cancel context.CancelFunc) {
	b.runMu.Lock()
	b.ctx, b.cancel = ctx, cancel
	b.runMu.Unlock()
}
