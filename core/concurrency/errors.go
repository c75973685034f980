// File: core/concurrency/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error definitions for concurrency module.

package concurrency

import "errors"

var (
	// ErrRingFull indicates every slot of the ring holds an unread value.
	ErrRingFull = errors.New("ring is full")

	// ErrRingEmpty indicates no committed value is available.
	ErrRingEmpty = errors.New("ring is empty")

	// ErrRingClosed indicates the ring was closed; for consumers it is only
	// reported once every committed value has been drained.
	ErrRingClosed = errors.New("ring is closed")
)
