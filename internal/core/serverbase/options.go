// SPDX-License-Identifier: MPL-2.0

package serverbase

import "context"

// Option configures a Base instance.
type Option func(*Base)

// WithErrorChannel sets a custom error channel buffer size.
// Default buffer size is 1.
func WithErrorChannel(size int) Option {
	return func(b *Base) {
		b.errCh = make(chan error, size)
	}
}

// WithParentContext derives every run context from parent instead of
// context.Background. Cancelling parent ends the current run's context
// but does not change the lifecycle state.
func WithParentContext(parent context.Context) Option {
	return func(b *Base) {
		b.parent = parent
	}
}
