// SPDX-License-Identifier: MPL-2.0

package lineserver

import (
	"sync"
	"testing"
)

func TestRegistrySubscribeUnsubscribe(t *testing.T) {
	t.Parallel()

	r := NewRegistry[string]()

	a := r.Subscribe("a")
	b := r.Subscribe("b")
	r.Subscribe("c")

	if a.IsZero() || a == b {
		t.Fatalf("subscriptions must be distinct and non-zero: %v %v", a, b)
	}
	if got := r.Snapshot(); len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("Snapshot() = %v, want [a b c]", got)
	}

	if !r.Unsubscribe(b) {
		t.Error("Unsubscribe(b) should report true")
	}
	if r.Unsubscribe(b) {
		t.Error("second Unsubscribe(b) should report false")
	}
	if r.Unsubscribe(Subscription{}) {
		t.Error("Unsubscribe of zero subscription should report false")
	}

	if got := r.Snapshot(); len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Errorf("Snapshot() = %v, want [a c]", got)
	}
}

func TestRegistrySameObserverTwice(t *testing.T) {
	t.Parallel()

	r := NewRegistry[string]()
	first := r.Subscribe("x")
	second := r.Subscribe("x")

	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}
	r.Unsubscribe(first)
	if got := r.Snapshot(); len(got) != 1 || got[0] != "x" {
		t.Errorf("Snapshot() = %v, want [x]", got)
	}
	r.Unsubscribe(second)
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
}

func TestRegistrySnapshotIsCopy(t *testing.T) {
	t.Parallel()

	r := NewRegistry[int]()
	r.Subscribe(1)

	snap := r.Snapshot()
	r.Subscribe(2)

	if len(snap) != 1 {
		t.Errorf("snapshot changed after Subscribe: %v", snap)
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	t.Parallel()

	r := NewRegistry[int]()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Go(func() {
			for j := range 50 {
				sub := r.Subscribe(i*100 + j)
				_ = r.Snapshot()
				r.Unsubscribe(sub)
			}
		})
	}
	wg.Wait()

	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
}
