// File: channel/flavor_time.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Receive-only time sources: a one-shot deadline, a periodic tick and a
// source that is never ready. None of them keeps registrations; readiness
// is derived from the clock and reported to selectors through Deadline.

package channel

import (
	"sync/atomic"
	"time"
)

// afterChan delivers its deadline exactly once.
type afterChan struct {
	at       time.Time
	received atomic.Bool
}

func newAfterChan(at time.Time) *afterChan {
	return &afterChan{at: at}
}

func (c *afterChan) tryRecv() (time.Time, error) {
	if c.received.Load() || time.Now().Before(c.at) {
		return time.Time{}, ErrEmpty
	}
	if !c.received.Swap(true) {
		return c.at, nil
	}
	return time.Time{}, ErrEmpty
}

func (c *afterChan) recv(deadline time.Time) (time.Time, error) {
	if c.received.Load() {
		sleepUntil(deadline)
		return time.Time{}, ErrTimeout
	}
	for {
		now := time.Now()
		if !now.Before(c.at) {
			break
		}
		wake := c.at
		if !deadline.IsZero() {
			if !now.Before(deadline) {
				return time.Time{}, ErrTimeout
			}
			if deadline.Before(wake) {
				wake = deadline
			}
		}
		time.Sleep(wake.Sub(now))
	}
	if !c.received.Swap(true) {
		return c.at, nil
	}
	// Another receiver took the only message.
	sleepUntil(deadline)
	return time.Time{}, ErrTimeout
}

func (c *afterChan) startRecv(token *Token) bool {
	at, err := c.tryRecv()
	if err != nil {
		return false
	}
	token.after = timeToken{at: at, ok: true}
	return true
}

func (c *afterChan) read(token *Token) (time.Time, error) {
	if !token.after.ok {
		return time.Time{}, ErrDisconnected
	}
	return token.after.at, nil
}

func (c *afterChan) isEmpty() bool {
	return c.received.Load() || time.Now().Before(c.at)
}

func (c *afterChan) length() int {
	if c.isEmpty() {
		return 0
	}
	return 1
}

func (c *afterChan) capacity() int            { return 1 }
func (c *afterChan) disconnect() bool         { return false }
func (c *afterChan) recvHandle() SelectHandle { return afterHandle{c} }

type afterHandle struct{ c *afterChan }

func (h afterHandle) TrySelect(token *Token) bool { return h.c.startRecv(token) }

func (h afterHandle) Deadline() (time.Time, bool) {
	if h.c.received.Load() {
		return time.Time{}, false
	}
	return h.c.at, true
}

func (h afterHandle) Register(Operation, *Context) bool    { return h.IsReady() }
func (h afterHandle) Unregister(Operation)                 {}
func (h afterHandle) Accept(token *Token, _ *Context) bool { return h.TrySelect(token) }
func (h afterHandle) IsReady() bool                        { return !h.c.isEmpty() }
func (h afterHandle) Watch(Operation, *Context) bool       { return h.IsReady() }
func (h afterHandle) Unwatch(Operation)                    {}

// tickChan delivers one message per period. The next delivery instant is
// kept as an offset from base so the monotonic clock reading survives.
type tickChan struct {
	base   time.Time
	next   atomic.Int64
	period time.Duration
}

func newTickChan(period time.Duration) *tickChan {
	c := &tickChan{base: time.Now(), period: period}
	c.next.Store(int64(period))
	return c
}

func (c *tickChan) deliveryTime() time.Time {
	return c.base.Add(time.Duration(c.next.Load()))
}

func (c *tickChan) tryRecv() (time.Time, error) {
	for {
		now := time.Now()
		off := c.next.Load()
		at := c.base.Add(time.Duration(off))
		if now.Before(at) {
			return time.Time{}, ErrEmpty
		}
		if c.next.CompareAndSwap(off, int64(now.Sub(c.base)+c.period)) {
			return at, nil
		}
	}
}

func (c *tickChan) recv(deadline time.Time) (time.Time, error) {
	for {
		off := c.next.Load()
		at := c.base.Add(time.Duration(off))
		now := time.Now()

		if !deadline.IsZero() && deadline.Before(at) {
			if now.Before(deadline) {
				time.Sleep(deadline.Sub(now))
			}
			return time.Time{}, ErrTimeout
		}

		from := at
		if now.After(from) {
			from = now
		}
		if c.next.CompareAndSwap(off, int64(from.Sub(c.base)+c.period)) {
			if now.Before(at) {
				time.Sleep(at.Sub(now))
			}
			return at, nil
		}
	}
}

func (c *tickChan) startRecv(token *Token) bool {
	at, err := c.tryRecv()
	if err != nil {
		return false
	}
	token.tick = timeToken{at: at, ok: true}
	return true
}

func (c *tickChan) read(token *Token) (time.Time, error) {
	if !token.tick.ok {
		return time.Time{}, ErrDisconnected
	}
	return token.tick.at, nil
}

func (c *tickChan) isEmpty() bool {
	return time.Now().Before(c.deliveryTime())
}

func (c *tickChan) length() int {
	if c.isEmpty() {
		return 0
	}
	return 1
}

func (c *tickChan) capacity() int            { return 1 }
func (c *tickChan) disconnect() bool         { return false }
func (c *tickChan) recvHandle() SelectHandle { return tickHandle{c} }

type tickHandle struct{ c *tickChan }

func (h tickHandle) TrySelect(token *Token) bool          { return h.c.startRecv(token) }
func (h tickHandle) Deadline() (time.Time, bool)          { return h.c.deliveryTime(), true }
func (h tickHandle) Register(Operation, *Context) bool    { return h.IsReady() }
func (h tickHandle) Unregister(Operation)                 {}
func (h tickHandle) Accept(token *Token, _ *Context) bool { return h.TrySelect(token) }
func (h tickHandle) IsReady() bool                        { return !h.c.isEmpty() }
func (h tickHandle) Watch(Operation, *Context) bool       { return h.IsReady() }
func (h tickHandle) Unwatch(Operation)                    {}

// neverChan is never ready and never disconnected.
type neverChan[T any] struct{}

func (neverChan[T]) tryRecv() (T, error) {
	var zero T
	return zero, ErrEmpty
}

func (neverChan[T]) recv(deadline time.Time) (T, error) {
	sleepUntil(deadline)
	var zero T
	return zero, ErrTimeout
}

func (neverChan[T]) read(*Token) (T, error) {
	var zero T
	return zero, ErrDisconnected
}

func (neverChan[T]) length() int              { return 0 }
func (neverChan[T]) capacity() int            { return 0 }
func (neverChan[T]) disconnect() bool         { return false }
func (neverChan[T]) recvHandle() SelectHandle { return neverHandle{} }

type neverHandle struct{}

func (neverHandle) TrySelect(*Token) bool             { return false }
func (neverHandle) Deadline() (time.Time, bool)       { return time.Time{}, false }
func (neverHandle) Register(Operation, *Context) bool { return false }
func (neverHandle) Unregister(Operation)              {}
func (neverHandle) Accept(*Token, *Context) bool      { return false }
func (neverHandle) IsReady() bool                     { return false }
func (neverHandle) Watch(Operation, *Context) bool    { return false }
func (neverHandle) Unwatch(Operation)                 {}
