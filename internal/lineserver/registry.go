// SPDX-License-Identifier: MPL-2.0

package lineserver

import (
	"cmp"
	"slices"
	"sync"

	"github.com/google/uuid"
)

type (
	// Subscription identifies one registration in a Registry.
	// The zero value never matches a registration.
	Subscription struct {
		id uuid.UUID
	}

	// Registry is a concurrency-safe set of observers keyed by Subscription.
	// It holds observers for lookup only and never closes or owns them.
	Registry[T any] struct {
		mu      sync.RWMutex
		seq     uint64
		entries map[uuid.UUID]registryEntry[T]
	}

	registryEntry[T any] struct {
		seq      uint64
		observer T
	}
)

// String returns the subscription token.
func (s Subscription) String() string { return s.id.String() }

// IsZero reports whether s is the zero Subscription.
func (s Subscription) IsZero() bool { return s.id == uuid.Nil }

// NewRegistry creates an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{entries: make(map[uuid.UUID]registryEntry[T])}
}

// Subscribe registers observer and returns its token. Subscribing the same
// observer twice yields two independent registrations.
func (r *Registry[T]) Subscribe(observer T) Subscription {
	id := uuid.New()

	r.mu.Lock()
	r.seq++
	r.entries[id] = registryEntry[T]{seq: r.seq, observer: observer}
	r.mu.Unlock()

	return Subscription{id: id}
}

// Unsubscribe removes the registration. It reports whether sub was registered.
func (r *Registry[T]) Unsubscribe(sub Subscription) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[sub.id]; !ok {
		return false
	}
	delete(r.entries, sub.id)
	return true
}

// Snapshot returns the registered observers in subscription order.
// The slice is a copy, safe to iterate while others subscribe or unsubscribe.
func (r *Registry[T]) Snapshot() []T {
	r.mu.RLock()
	entries := make([]registryEntry[T], 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	slices.SortFunc(entries, func(a, b registryEntry[T]) int { return cmp.Compare(a.seq, b.seq) })

	out := make([]T, len(entries))
	for i, e := range entries {
		out[i] = e.observer
	}
	return out
}

// Len returns the number of registrations.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
