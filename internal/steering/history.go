// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Edison contributors

package steering

// Ring is a fixed-capacity buffer that evicts the oldest item on overflow.
// It is not safe for concurrent use.
type Ring[T any] struct {
	items []T
	head  int
	size  int
}

// NewRing creates a ring holding at most capacity items
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{items: make([]T, capacity)}
}

// Push appends item, dropping the oldest one when full
func (r *Ring[T]) Push(item T) {
	idx := (r.head + r.size) % len(r.items)
	r.items[idx] = item
	if r.size < len(r.items) {
		r.size++
		return
	}
	r.head = (r.head + 1) % len(r.items)
}

// Len returns the number of stored items
func (r *Ring[T]) Len() int {
	return r.size
}

// Cap returns the ring capacity
func (r *Ring[T]) Cap() int {
	return len(r.items)
}

// Values returns the stored items, oldest first
func (r *Ring[T]) Values() []T {
	out := make([]T, r.size)
	for i := range r.size {
		out[i] = r.items[(r.head+i)%len(r.items)]
	}
	return out
}

// Clear empties the ring
func (r *Ring[T]) Clear() {
	clear(r.items)
	r.head = 0
	r.size = 0
}
