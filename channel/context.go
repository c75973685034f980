// File: channel/context.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Context is the per-attempt rendezvous record of a blocked goroutine.
// The owning goroutine parks on it; counterparts on other goroutines claim
// it with a single compare-and-swap, hand over a packet and unpark it.
// Contexts are pooled and reset before every attempt.

package channel

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/cpu"
)

// Context is owned by one goroutine for the duration of one attempt.
type Context struct {
	selected atomic.Uint64
	_        cpu.CacheLinePad
	packet   atomic.Pointer[packetCell]
	wake     chan struct{}
}

type packetCell struct {
	v any
}

var contextPool = sync.Pool{
	New: func() any {
		return &Context{wake: make(chan struct{}, 1)}
	},
}

// acquireContext returns a reset context owned by the caller.
func acquireContext() *Context {
	cx := contextPool.Get().(*Context)
	cx.reset()
	return cx
}

// releaseContext returns cx to the pool. Every registration that references
// cx must be gone by now.
func releaseContext(cx *Context) {
	contextPool.Put(cx)
}

func (cx *Context) reset() {
	cx.selected.Store(uint64(Waiting))
	cx.packet.Store(nil)
	select {
	case <-cx.wake:
	default:
	}
}

// TrySelect moves the context from Waiting to sel. On failure it returns the
// state that won.
func (cx *Context) TrySelect(sel Selected) (Selected, bool) {
	if cx.selected.CompareAndSwap(uint64(Waiting), uint64(sel)) {
		return sel, true
	}
	return Selected(cx.selected.Load()), false
}

// Selected returns the current state.
func (cx *Context) Selected() Selected {
	return Selected(cx.selected.Load())
}

// StorePacket publishes the packet handed over by the claiming goroutine.
func (cx *Context) StorePacket(p any) {
	cx.packet.Store(&packetCell{v: p})
}

// WaitPacket spins until the claiming goroutine has stored its packet.
func (cx *Context) WaitPacket() any {
	backoff := currentConfig().backoff()
	for {
		if c := cx.packet.Load(); c != nil {
			return c.v
		}
		backoff.Snooze()
	}
}

// Unpark wakes the owning goroutine if it is parked.
func (cx *Context) Unpark() {
	select {
	case cx.wake <- struct{}{}:
	default:
	}
}

// WaitUntil blocks until the context is claimed or the deadline passes.
// A zero deadline waits forever. When the deadline passes the context is
// claimed as Aborted unless another goroutine got there first.
func (cx *Context) WaitUntil(deadline time.Time) Selected {
	backoff := currentConfig().backoff()
	for {
		if sel := cx.Selected(); sel != Waiting {
			return sel
		}
		if backoff.IsCompleted() {
			break
		}
		backoff.Snooze()
	}

	stats.parks.Add(1)
	for {
		if sel := cx.Selected(); sel != Waiting {
			return sel
		}
		if deadline.IsZero() {
			<-cx.wake
			continue
		}
		now := time.Now()
		if !now.Before(deadline) {
			sel, _ := cx.TrySelect(Aborted)
			return sel
		}
		timer := time.NewTimer(deadline.Sub(now))
		select {
		case <-cx.wake:
		case <-timer.C:
		}
		timer.Stop()
	}
}
