// File: channel/waker.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Waker keeps the goroutines blocked on one side of a channel: selectors
// that registered an operation and observers that only watch readiness.

package channel

import (
	"sync"
	"sync/atomic"
)

// waitEntry is one registration on a waker.
type waitEntry struct {
	oper   Operation
	packet any
	cx     *Context
}

// waker is not synchronized; callers hold the owning channel's lock.
type waker struct {
	selectors []waitEntry
	observers []waitEntry
}

func (w *waker) register(oper Operation, cx *Context) {
	w.registerWithPacket(oper, nil, cx)
}

func (w *waker) registerWithPacket(oper Operation, packet any, cx *Context) {
	w.selectors = append(w.selectors, waitEntry{oper: oper, packet: packet, cx: cx})
}

// unregister removes the selector entry for oper, if still present.
func (w *waker) unregister(oper Operation) (waitEntry, bool) {
	for i, e := range w.selectors {
		if e.oper == oper {
			w.selectors = append(w.selectors[:i], w.selectors[i+1:]...)
			return e, true
		}
	}
	return waitEntry{}, false
}

// trySelect claims the first selector not owned by owner, hands it its
// packet and wakes it. The claimed entry is removed and returned.
func (w *waker) trySelect(owner *Context) (waitEntry, bool) {
	for i, e := range w.selectors {
		if owner != nil && e.cx == owner {
			continue
		}
		if _, ok := e.cx.TrySelect(SelectedFor(e.oper)); ok {
			e.cx.StorePacket(e.packet)
			e.cx.Unpark()
			w.selectors = append(w.selectors[:i], w.selectors[i+1:]...)
			return e, true
		}
	}
	return waitEntry{}, false
}

// canSelect reports whether some selector not owned by owner is still waiting.
func (w *waker) canSelect(owner *Context) bool {
	for _, e := range w.selectors {
		if (owner == nil || e.cx != owner) && e.cx.Selected() == Waiting {
			return true
		}
	}
	return false
}

func (w *waker) watch(oper Operation, cx *Context) {
	w.observers = append(w.observers, waitEntry{oper: oper, cx: cx})
}

func (w *waker) unwatch(oper Operation) {
	kept := w.observers[:0]
	for _, e := range w.observers {
		if e.oper != oper {
			kept = append(kept, e)
		}
	}
	for i := len(kept); i < len(w.observers); i++ {
		w.observers[i] = waitEntry{}
	}
	w.observers = kept
}

// notify wakes every observer and forgets them.
func (w *waker) notify() {
	for i, e := range w.observers {
		if _, ok := e.cx.TrySelect(SelectedFor(e.oper)); ok {
			e.cx.Unpark()
		}
		w.observers[i] = waitEntry{}
	}
	w.observers = w.observers[:0]
}

// disconnect marks every selector Disconnected and notifies observers.
// Selector entries stay until their owners unregister them.
func (w *waker) disconnect() {
	for _, e := range w.selectors {
		if _, ok := e.cx.TrySelect(Disconnected); ok {
			e.cx.Unpark()
		}
	}
	w.notify()
}

func (w *waker) isEmpty() bool {
	return len(w.selectors) == 0 && len(w.observers) == 0
}

// syncWaker is a waker with its own lock and a fast emptiness check.
type syncWaker struct {
	mu    sync.Mutex
	inner waker
	empty atomic.Bool
}

func newSyncWaker() *syncWaker {
	w := &syncWaker{}
	w.empty.Store(true)
	return w
}

func (w *syncWaker) register(oper Operation, cx *Context) {
	w.mu.Lock()
	w.inner.register(oper, cx)
	w.empty.Store(w.inner.isEmpty())
	w.mu.Unlock()
}

func (w *syncWaker) unregister(oper Operation) {
	w.mu.Lock()
	w.inner.unregister(oper)
	w.empty.Store(w.inner.isEmpty())
	w.mu.Unlock()
}

func (w *syncWaker) watch(oper Operation, cx *Context) {
	w.mu.Lock()
	w.inner.watch(oper, cx)
	w.empty.Store(w.inner.isEmpty())
	w.mu.Unlock()
}

func (w *syncWaker) unwatch(oper Operation) {
	w.mu.Lock()
	w.inner.unwatch(oper)
	w.empty.Store(w.inner.isEmpty())
	w.mu.Unlock()
}

// notify wakes one selector and every observer.
func (w *syncWaker) notify() {
	if w.empty.Load() {
		return
	}
	w.mu.Lock()
	if !w.empty.Load() {
		w.inner.trySelect(nil)
		w.inner.notify()
		w.empty.Store(w.inner.isEmpty())
	}
	w.mu.Unlock()
}

func (w *syncWaker) disconnect() {
	w.mu.Lock()
	w.inner.disconnect()
	w.empty.Store(w.inner.isEmpty())
	w.mu.Unlock()
}

// pending reports the number of registered selectors and observers.
func (w *syncWaker) pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.inner.selectors) + len(w.inner.observers)
}
