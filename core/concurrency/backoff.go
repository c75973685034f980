// File: core/concurrency/backoff.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Backoff implements bounded exponential spin-then-yield waiting used by
// lock-free retry loops before they fall back to blocking.

package concurrency

import (
	"runtime"
	"sync/atomic"
)

const (
	// DefaultSpinLimit is the step after which Snooze yields instead of spinning.
	DefaultSpinLimit = 6
	// DefaultYieldLimit is the step after which the backoff reports completion.
	DefaultYieldLimit = 10
)

// spinSink keeps the busy loop from being optimized away.
var spinSink atomic.Uint32

// Backoff tracks the current step of an exponential backoff.
// The zero value is not usable; construct with NewBackoff or NewBackoffLimits.
type Backoff struct {
	step       uint32
	spinLimit  uint32
	yieldLimit uint32
}

// NewBackoff returns a backoff with default limits.
func NewBackoff() Backoff {
	return NewBackoffLimits(DefaultSpinLimit, DefaultYieldLimit)
}

// NewBackoffLimits returns a backoff with explicit limits.
// yieldLimit is raised to spinLimit if lower.
func NewBackoffLimits(spinLimit, yieldLimit uint32) Backoff {
	if yieldLimit < spinLimit {
		yieldLimit = spinLimit
	}
	return Backoff{spinLimit: spinLimit, yieldLimit: yieldLimit}
}

// Reset restarts the backoff from the first step.
func (b *Backoff) Reset() {
	b.step = 0
}

// Spin busy-waits for 2^step iterations. Used while another goroutine is
// expected to finish a short critical update (e.g. a pending slot commit).
func (b *Backoff) Spin() {
	step := b.step
	if step > b.spinLimit {
		step = b.spinLimit
	}
	procYield(1 << step)
	if b.step <= b.spinLimit {
		b.step++
	}
}

// Snooze spins while below the spin limit, then yields the processor.
// Used while waiting for another goroutine to make progress.
func (b *Backoff) Snooze() {
	if b.step <= b.spinLimit {
		procYield(1 << b.step)
	} else {
		runtime.Gosched()
	}
	if b.step <= b.yieldLimit {
		b.step++
	}
}

// IsCompleted reports whether the caller should stop retrying and block instead.
func (b *Backoff) IsCompleted() bool {
	return b.step > b.yieldLimit
}

func procYield(n uint32) {
	for i := uint32(0); i < n; i++ {
		spinSink.Add(1)
	}
}
