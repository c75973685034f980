// File: api/ring.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bounded queue contract shared by the ring behind bounded channels.

package api

// Ring is a bounded FIFO that many goroutines may use at once.
type Ring[T any] interface {
	// Enqueue adds an item, returns false if full or closed.
	Enqueue(item T) bool
	// Dequeue removes oldest item, returns false if empty.
	Dequeue() (T, bool)
	// Close stops further Enqueue calls; it reports whether this call closed it.
	Close() bool
	// IsClosed reports whether Close was called.
	IsClosed() bool
	// Len returns current number of items.
	Len() int
	// Cap returns buffer capacity.
	Cap() int
}
