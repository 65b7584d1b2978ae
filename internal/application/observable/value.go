// Package observable holds a replay-latest value with push subscriptions.
package observable

import (
	"slices"
	"sync"
)

// Value holds the latest value of T. A new subscriber receives the current
// value synchronously on Subscribe, then every later Set in order.
//
// Deliveries are serialized: a callback never runs concurrently with another
// callback of the same Value, and callbacks must not call Set on it.
type Value[T any] struct {
	mu      sync.Mutex // guards cur, subs, nextID
	deliver sync.Mutex // serializes callback delivery
	cur     T
	subs    map[uint64]func(T)
	nextID  uint64
}

func New[T any](initial T) *Value[T] {
	return &Value[T]{cur: initial, subs: make(map[uint64]func(T))}
}

// Get returns the latest value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cur
}

// Set stores x and pushes it to every subscriber.
func (v *Value[T]) Set(x T) {
	v.deliver.Lock()
	defer v.deliver.Unlock()

	v.mu.Lock()
	v.cur = x
	fns := v.snapshot()
	v.mu.Unlock()

	for _, fn := range fns {
		fn(x)
	}
}

// Subscribe registers fn and immediately calls it with the current value.
// The returned cancel func is idempotent.
func (v *Value[T]) Subscribe(fn func(T)) (cancel func()) {
	v.deliver.Lock()
	defer v.deliver.Unlock()

	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.subs[id] = fn
	cur := v.cur
	v.mu.Unlock()

	fn(cur)

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			delete(v.subs, id)
			v.mu.Unlock()
		})
	}
}

// snapshot returns the callbacks in subscription order. Caller holds mu.
func (v *Value[T]) snapshot() []func(T) {
	ids := make([]uint64, 0, len(v.subs))
	for id := range v.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]func(T), 0, len(ids))
	for _, id := range ids {
		out = append(out, v.subs[id])
	}
	return out
}
