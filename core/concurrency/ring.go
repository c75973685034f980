// File: core/concurrency/ring.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// RingBuffer is a bounded MPMC circular buffer with atomic head/tail,
// padded to prevent false sharing. Producers and consumers work in two
// phases (Reserve/Commit, Claim/Release) so a slot can be won by a selector
// before the value is moved. The tail carries a close mark so closing and
// reserving are ordered by the same atomic word.
// Implements api.Ring for cross-package consistency.

package concurrency

import (
	"sync/atomic"

	"github.com/momentics/hioload-chan/api"
	"golang.org/x/sys/cpu"
)

// Ensure compile-time interface compliance.
var _ api.Ring[any] = (*RingBuffer[any])(nil)

// markBit is set in tail once the ring is closed.
const markBit = uint64(1) << 63

// Slot identifies a reserved or claimed position in the ring.
type Slot struct {
	pos uint64
}

// ringCell stores one value. Its sequence encodes state for position p as
// p<<1 (free for a producer at p) or p<<1|1 (holds the value written at p).
type ringCell[T any] struct {
	sequence atomic.Uint64
	data     T
}

// RingBuffer is a lock-free ring buffer (MPMC API).
type RingBuffer[T any] struct {
	head     uint64
	_        cpu.CacheLinePad
	tail     uint64
	_        cpu.CacheLinePad
	capacity uint64
	cells    []ringCell[T]
}

// NewRingBuffer allocates a ring buffer holding exactly size values.
// Sizes below one are raised to one.
func NewRingBuffer[T any](size uint64) *RingBuffer[T] {
	if size < 1 {
		size = 1
	}
	r := &RingBuffer[T]{
		capacity: size,
		cells:    make([]ringCell[T], size),
	}
	for i := range r.cells {
		r.cells[i].sequence.Store(uint64(i) << 1)
	}
	return r
}

// Reserve claims the next producer slot. It returns ErrRingFull when no slot
// is free and ErrRingClosed after Close.
func (r *RingBuffer[T]) Reserve() (Slot, error) {
	backoff := NewBackoff()
	for {
		tail := atomic.LoadUint64(&r.tail)
		if tail&markBit != 0 {
			return Slot{}, ErrRingClosed
		}
		c := &r.cells[tail%r.capacity]
		seq := c.sequence.Load()
		dif := int64(seq) - int64(tail<<1)

		switch {
		case dif == 0:
			if atomic.CompareAndSwapUint64(&r.tail, tail, tail+1) {
				return Slot{pos: tail}, nil
			}
			backoff.Spin()
		case dif < 0:
			head := atomic.LoadUint64(&r.head)
			if head+r.capacity <= tail {
				return Slot{}, ErrRingFull
			}
			// a consumer claimed this slot but has not released it yet
			backoff.Snooze()
		default:
			// tail moved
			backoff.Spin()
		}
	}
}

// Commit publishes v into a slot obtained from Reserve.
func (r *RingBuffer[T]) Commit(s Slot, v T) {
	c := &r.cells[s.pos%r.capacity]
	c.data = v
	c.sequence.Store(s.pos<<1 | 1)
}

// Claim takes the oldest committed value's slot. It returns ErrRingEmpty when
// nothing is committed and ErrRingClosed when the ring is closed and drained.
func (r *RingBuffer[T]) Claim() (Slot, error) {
	backoff := NewBackoff()
	for {
		head := atomic.LoadUint64(&r.head)
		c := &r.cells[head%r.capacity]
		seq := c.sequence.Load()
		dif := int64(seq) - int64(head<<1|1)

		switch {
		case dif == 0:
			if atomic.CompareAndSwapUint64(&r.head, head, head+1) {
				return Slot{pos: head}, nil
			}
			backoff.Spin()
		case dif < 0:
			tail := atomic.LoadUint64(&r.tail)
			if tail&^markBit == head {
				if tail&markBit != 0 {
					return Slot{}, ErrRingClosed
				}
				return Slot{}, ErrRingEmpty
			}
			// a producer reserved this slot but has not committed yet
			backoff.Snooze()
		default:
			// head moved
			backoff.Spin()
		}
	}
}

// Release reads the value from a slot obtained from Claim and frees the slot
// for the producer one lap ahead.
func (r *RingBuffer[T]) Release(s Slot) T {
	c := &r.cells[s.pos%r.capacity]
	v := c.data
	var zero T
	c.data = zero
	c.sequence.Store((s.pos + r.capacity) << 1)
	return v
}

// Enqueue adds item; returns false if full or closed.
func (r *RingBuffer[T]) Enqueue(item T) bool {
	s, err := r.Reserve()
	if err != nil {
		return false
	}
	r.Commit(s, item)
	return true
}

// Dequeue removes and returns item; ok false if empty.
func (r *RingBuffer[T]) Dequeue() (T, bool) {
	s, err := r.Claim()
	if err != nil {
		var zero T
		return zero, false
	}
	return r.Release(s), true
}

// Close marks the ring closed. It reports whether this call closed it.
func (r *RingBuffer[T]) Close() bool {
	for {
		tail := atomic.LoadUint64(&r.tail)
		if tail&markBit != 0 {
			return false
		}
		if atomic.CompareAndSwapUint64(&r.tail, tail, tail|markBit) {
			return true
		}
	}
}

// IsClosed reports whether Close was called.
func (r *RingBuffer[T]) IsClosed() bool {
	return atomic.LoadUint64(&r.tail)&markBit != 0
}

// Len returns number of items currently in buffer.
func (r *RingBuffer[T]) Len() int {
	for {
		tail := atomic.LoadUint64(&r.tail)
		head := atomic.LoadUint64(&r.head)
		if atomic.LoadUint64(&r.tail) != tail {
			continue
		}
		tail &^= markBit
		if head >= tail {
			return 0
		}
		return int(tail - head)
	}
}

// IsEmpty reports whether no value is reserved or committed.
func (r *RingBuffer[T]) IsEmpty() bool {
	head := atomic.LoadUint64(&r.head)
	return atomic.LoadUint64(&r.tail)&^markBit == head
}

// IsFull reports whether every slot is taken.
func (r *RingBuffer[T]) IsFull() bool {
	tail := atomic.LoadUint64(&r.tail) &^ markBit
	return atomic.LoadUint64(&r.head)+r.capacity <= tail
}

// Cap returns fixed buffer capacity.
func (r *RingBuffer[T]) Cap() int {
	return int(r.capacity)
}
