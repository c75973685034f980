// File: channel/select.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Selection engine. runSelect completes exactly one ready operation out of
// a set of handles; runReady only reports which one is ready. Both shuffle
// the handles for fairness, try a non-blocking pass first, then register on
// every handle, park on the goroutine's Context and unregister again.

package channel

import (
	"math/rand/v2"
	"time"
)

type timeoutKind uint8

const (
	timeoutNow timeoutKind = iota
	timeoutNever
	timeoutAt
)

// timeout bounds one selection: no blocking, unbounded, or until at.
type timeout struct {
	kind timeoutKind
	at   time.Time
}

func timeoutUntil(at time.Time) timeout {
	return timeout{kind: timeoutAt, at: at}
}

func (t timeout) expired() bool {
	switch t.kind {
	case timeoutNow:
		return true
	case timeoutAt:
		return !time.Now().Before(t.at)
	default:
		return false
	}
}

// entry is one participating operation: its handle, the index issued to
// the user, and the identity of the endpoint it was created from.
type entry struct {
	handle   SelectHandle
	index    int
	endpoint any
}

// registrations pairs every Register/Watch of one attempt with its
// Unregister/Unwatch. release is idempotent and deferred by callers so the
// pairing also holds when a handle panics.
type registrations struct {
	handles []entry
	first   Operation
	count   int
	watch   bool
}

func newRegistrations(handles []entry, watch bool) *registrations {
	return &registrations{
		handles: handles,
		first:   newOperations(len(handles)),
		watch:   watch,
	}
}

func (r *registrations) operation(i int) Operation {
	return r.first + Operation(i)
}

// position maps a claimed operation back to its handle.
func (r *registrations) position(oper Operation) (int, bool) {
	if oper < r.first {
		return 0, false
	}
	i := int(oper - r.first)
	if i >= len(r.handles) {
		return 0, false
	}
	return i, true
}

func (r *registrations) release() {
	for i := 0; i < r.count; i++ {
		if r.watch {
			r.handles[i].handle.Unwatch(r.operation(i))
		} else {
			r.handles[i].handle.Unregister(r.operation(i))
		}
	}
	r.count = 0
}

// effectiveDeadline is the earliest of the caller's deadline and every
// handle's own deadline. The zero time means no deadline.
func effectiveDeadline(handles []entry, to timeout) time.Time {
	var deadline time.Time
	if to.kind == timeoutAt {
		deadline = to.at
	}
	for _, h := range handles {
		if d, ok := h.handle.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
			deadline = d
		}
	}
	return deadline
}

// sleepUntil blocks until deadline; the zero time blocks forever.
func sleepUntil(deadline time.Time) {
	if deadline.IsZero() {
		select {}
	}
	if d := time.Until(deadline); d > 0 {
		time.Sleep(d)
	}
}

// waitEmpty handles a selection over no operations.
func waitEmpty(to timeout) {
	switch to.kind {
	case timeoutNever:
		sleepUntil(time.Time{})
	case timeoutAt:
		sleepUntil(to.at)
	}
}

func shuffle(handles []entry, rng *rand.Rand) {
	rng.Shuffle(len(handles), func(i, j int) {
		handles[i], handles[j] = handles[j], handles[i]
	})
}

// runSelect picks and starts one ready operation. On success the returned
// token holds the flavor state needed to finish the transfer.
func runSelect(handles []entry, to timeout, rng *rand.Rand) (Token, entry, bool) {
	stats.attempts.Add(1)
	if len(handles) == 0 {
		waitEmpty(to)
		return Token{}, entry{}, false
	}

	shuffle(handles, rng)

	cx := acquireContext()
	defer releaseContext(cx)
	token := Token{owner: cx}

	for _, h := range handles {
		if h.handle.TrySelect(&token) {
			stats.fastPath.Add(1)
			token.owner = nil
			return token, h, true
		}
	}

	stats.slowPath.Add(1)
	for {
		if h, ok := selectOnce(handles, to, cx, &token); ok {
			token.owner = nil
			return token, h, true
		}

		// The claimed handle may have failed to accept; give everything one
		// more non-blocking chance.
		for _, h := range handles {
			if h.handle.TrySelect(&token) {
				token.owner = nil
				return token, h, true
			}
		}

		if to.expired() {
			if to.kind == timeoutAt {
				stats.timeouts.Add(1)
			}
			return Token{}, entry{}, false
		}
	}
}

// selectOnce runs one register/park/unregister round.
func selectOnce(handles []entry, to timeout, cx *Context, token *Token) (entry, bool) {
	cx.reset()
	regs := newRegistrations(handles, false)
	defer regs.release()

	if to.kind == timeoutNow {
		cx.TrySelect(Aborted)
	}

	sel := Waiting
	hint := -1
	for i, h := range handles {
		regs.count++
		if h.handle.Register(regs.operation(i), cx) {
			// Already ready: abort the wait and retry this handle alone.
			if s, ok := cx.TrySelect(Aborted); ok {
				hint = i
				sel = Aborted
			} else {
				sel = s
			}
			break
		}
		if sel = cx.Selected(); sel != Waiting {
			break
		}
	}

	if sel == Waiting {
		if to.kind == timeoutNow {
			return entry{}, false
		}
		sel = cx.WaitUntil(effectiveDeadline(handles, to))
	}

	regs.release()

	switch sel {
	case Waiting:
		panic("channel: context left waiting after park")
	case Aborted:
		if hint >= 0 && handles[hint].handle.TrySelect(token) {
			return handles[hint], true
		}
	case Disconnected:
	default:
		oper, _ := sel.Operation()
		if i, ok := regs.position(oper); ok && handles[i].handle.Accept(token, cx) {
			return handles[i], true
		}
	}
	return entry{}, false
}

// runReady waits until one handle reports readiness and returns its index.
// It never moves data.
func runReady(handles []entry, to timeout, rng *rand.Rand) (int, bool) {
	stats.attempts.Add(1)
	if len(handles) == 0 {
		waitEmpty(to)
		return 0, false
	}

	shuffle(handles, rng)

	cx := acquireContext()
	defer releaseContext(cx)

	for {
		backoff := currentConfig().backoff()
		for {
			for _, h := range handles {
				if h.handle.IsReady() {
					stats.fastPath.Add(1)
					return h.index, true
				}
			}
			if backoff.IsCompleted() {
				break
			}
			backoff.Snooze()
		}

		if to.expired() {
			if to.kind == timeoutAt {
				stats.timeouts.Add(1)
			}
			return 0, false
		}

		stats.slowPath.Add(1)
		if i, ok := readyOnce(handles, to, cx); ok {
			return handles[i].index, true
		}
	}
}

// readyOnce runs one watch/park/unwatch round.
func readyOnce(handles []entry, to timeout, cx *Context) (int, bool) {
	cx.reset()
	regs := newRegistrations(handles, true)
	defer regs.release()

	sel := Waiting
	for i, h := range handles {
		regs.count++
		oper := regs.operation(i)
		if h.handle.Watch(oper, cx) {
			if s, ok := cx.TrySelect(SelectedFor(oper)); ok {
				sel = SelectedFor(oper)
			} else {
				sel = s
			}
			break
		}
		if sel = cx.Selected(); sel != Waiting {
			break
		}
	}

	if sel == Waiting {
		sel = cx.WaitUntil(effectiveDeadline(handles, to))
	}

	regs.release()

	if oper, ok := sel.Operation(); ok {
		return regs.position(oper)
	}
	return 0, false
}
