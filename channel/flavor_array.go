// File: channel/flavor_array.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bounded channel backed by the two-phase ring from core/concurrency.
// A selector reserves (send) or claims (receive) a slot in TrySelect and
// moves the message when the SelectedOperation is completed.

package channel

import (
	"time"

	"github.com/momentics/hioload-chan/core/concurrency"
)

type arrayChan[T any] struct {
	ring      *concurrency.RingBuffer[T]
	senders   *syncWaker
	receivers *syncWaker
}

func newArrayChan[T any](capacity int) *arrayChan[T] {
	return &arrayChan[T]{
		ring:      concurrency.NewRingBuffer[T](uint64(capacity)),
		senders:   newSyncWaker(),
		receivers: newSyncWaker(),
	}
}

func (c *arrayChan[T]) startSend(token *Token) bool {
	slot, err := c.ring.Reserve()
	switch err {
	case nil:
		token.array = arrayToken{slot: slot, ok: true}
		return true
	case concurrency.ErrRingClosed:
		token.array = arrayToken{}
		return true
	default:
		return false
	}
}

func (c *arrayChan[T]) write(token *Token, msg T) error {
	if !token.array.ok {
		return ErrDisconnected
	}
	c.ring.Commit(token.array.slot, msg)
	c.receivers.notify()
	return nil
}

func (c *arrayChan[T]) startRecv(token *Token) bool {
	slot, err := c.ring.Claim()
	switch err {
	case nil:
		token.array = arrayToken{slot: slot, ok: true}
		return true
	case concurrency.ErrRingClosed:
		token.array = arrayToken{}
		return true
	default:
		return false
	}
}

func (c *arrayChan[T]) read(token *Token) (T, error) {
	if !token.array.ok {
		var zero T
		return zero, ErrDisconnected
	}
	msg := c.ring.Release(token.array.slot)
	c.senders.notify()
	return msg, nil
}

func (c *arrayChan[T]) sendReady() bool {
	return !c.ring.IsFull() || c.ring.IsClosed()
}

func (c *arrayChan[T]) recvReady() bool {
	return !c.ring.IsEmpty() || c.ring.IsClosed()
}

func (c *arrayChan[T]) trySend(msg T) error {
	var token Token
	if c.startSend(&token) {
		return c.write(&token, msg)
	}
	return ErrFull
}

func (c *arrayChan[T]) send(msg T, deadline time.Time) error {
	var token Token
	for {
		backoff := currentConfig().backoff()
		for {
			if c.startSend(&token) {
				return c.write(&token, msg)
			}
			if backoff.IsCompleted() {
				break
			}
			backoff.Snooze()
		}
		if pastDeadline(deadline) {
			return ErrTimeout
		}
		parkOn(c.senders, c.sendReady, deadline)
	}
}

func (c *arrayChan[T]) tryRecv() (T, error) {
	var token Token
	if c.startRecv(&token) {
		return c.read(&token)
	}
	var zero T
	return zero, ErrEmpty
}

func (c *arrayChan[T]) recv(deadline time.Time) (T, error) {
	var token Token
	for {
		backoff := currentConfig().backoff()
		for {
			if c.startRecv(&token) {
				return c.read(&token)
			}
			if backoff.IsCompleted() {
				break
			}
			backoff.Snooze()
		}
		if pastDeadline(deadline) {
			var zero T
			return zero, ErrTimeout
		}
		parkOn(c.receivers, c.recvReady, deadline)
	}
}

func (c *arrayChan[T]) length() int   { return c.ring.Len() }
func (c *arrayChan[T]) capacity() int { return c.ring.Cap() }

func (c *arrayChan[T]) disconnect() bool {
	if !c.ring.Close() {
		return false
	}
	c.senders.disconnect()
	c.receivers.disconnect()
	return true
}

func (c *arrayChan[T]) sendHandle() SelectHandle { return arraySendHandle[T]{c} }
func (c *arrayChan[T]) recvHandle() SelectHandle { return arrayRecvHandle[T]{c} }

type arraySendHandle[T any] struct{ c *arrayChan[T] }

func (h arraySendHandle[T]) TrySelect(token *Token) bool { return h.c.startSend(token) }
func (h arraySendHandle[T]) Deadline() (time.Time, bool) { return time.Time{}, false }

func (h arraySendHandle[T]) Register(oper Operation, cx *Context) bool {
	h.c.senders.register(oper, cx)
	return h.c.sendReady()
}

func (h arraySendHandle[T]) Unregister(oper Operation)             { h.c.senders.unregister(oper) }
func (h arraySendHandle[T]) Accept(token *Token, cx *Context) bool { return h.c.startSend(token) }
func (h arraySendHandle[T]) IsReady() bool                         { return h.c.sendReady() }
func (h arraySendHandle[T]) Unwatch(oper Operation)                { h.c.senders.unwatch(oper) }

func (h arraySendHandle[T]) Watch(oper Operation, cx *Context) bool {
	h.c.senders.watch(oper, cx)
	return h.c.sendReady()
}

type arrayRecvHandle[T any] struct{ c *arrayChan[T] }

func (h arrayRecvHandle[T]) TrySelect(token *Token) bool { return h.c.startRecv(token) }
func (h arrayRecvHandle[T]) Deadline() (time.Time, bool) { return time.Time{}, false }

func (h arrayRecvHandle[T]) Register(oper Operation, cx *Context) bool {
	h.c.receivers.register(oper, cx)
	return h.c.recvReady()
}

func (h arrayRecvHandle[T]) Unregister(oper Operation)             { h.c.receivers.unregister(oper) }
func (h arrayRecvHandle[T]) Accept(token *Token, cx *Context) bool { return h.c.startRecv(token) }
func (h arrayRecvHandle[T]) IsReady() bool                         { return h.c.recvReady() }
func (h arrayRecvHandle[T]) Unwatch(oper Operation)                { h.c.receivers.unwatch(oper) }

func (h arrayRecvHandle[T]) Watch(oper Operation, cx *Context) bool {
	h.c.receivers.watch(oper, cx)
	return h.c.recvReady()
}

// parkOn registers a fresh operation on w, aborts at once if ready() already
// holds, and otherwise parks until woken or the deadline passes.
func parkOn(w *syncWaker, ready func() bool, deadline time.Time) Selected {
	cx := acquireContext()
	defer releaseContext(cx)

	oper := newOperations(1)
	w.register(oper, cx)
	defer w.unregister(oper)

	if ready() {
		cx.TrySelect(Aborted)
	}
	return cx.WaitUntil(deadline)
}

func pastDeadline(deadline time.Time) bool {
	return !deadline.IsZero() && !time.Now().Before(deadline)
}
