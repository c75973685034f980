// File: channel/flavor_zero.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Rendezvous channel. A send and a receive complete together: the
// goroutine that arrives second claims a registered counterpart and moves
// the message through the counterpart's packet.

package channel

import (
	"sync"
	"sync/atomic"
	"time"
)

// zeroPacket carries one message between paired goroutines. Packets of
// blocking senders/receivers are "inline": their owner waits on ready.
// Packets registered by selectors are completed later by a SelectedOperation.
type zeroPacket struct {
	inline bool
	ready  atomic.Bool
	msg    any
}

func (p *zeroPacket) waitReady() {
	backoff := currentConfig().backoff()
	for !p.ready.Load() {
		backoff.Snooze()
	}
}

type zeroChan[T any] struct {
	mu        sync.Mutex
	senders   waker
	receivers waker
	closed    bool
}

func newZeroChan[T any]() *zeroChan[T] {
	return &zeroChan[T]{}
}

func (c *zeroChan[T]) startSend(token *Token) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.receivers.trySelect(token.owner); ok {
		token.zero = e.packet.(*zeroPacket)
		return true
	}
	if c.closed {
		token.zero = nil
		return true
	}
	return false
}

func (c *zeroChan[T]) write(token *Token, msg T) error {
	p := token.zero
	if p == nil {
		return ErrDisconnected
	}
	p.msg = msg
	p.ready.Store(true)
	return nil
}

func (c *zeroChan[T]) startRecv(token *Token) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.senders.trySelect(token.owner); ok {
		token.zero = e.packet.(*zeroPacket)
		return true
	}
	if c.closed {
		token.zero = nil
		return true
	}
	return false
}

func (c *zeroChan[T]) read(token *Token) (T, error) {
	p := token.zero
	if p == nil {
		var zero T
		return zero, ErrDisconnected
	}
	if !p.inline {
		// A selector won the send; wait for it to complete.
		p.waitReady()
	}
	msg, _ := p.msg.(T)
	p.msg = nil
	if p.inline {
		// Release the blocked sender.
		p.ready.Store(true)
	}
	return msg, nil
}

func (c *zeroChan[T]) trySend(msg T) error {
	var token Token
	if c.startSend(&token) {
		return c.write(&token, msg)
	}
	return ErrFull
}

func (c *zeroChan[T]) send(msg T, deadline time.Time) error {
	cx := acquireContext()
	defer releaseContext(cx)
	token := Token{owner: cx}

	c.mu.Lock()
	if e, ok := c.receivers.trySelect(cx); ok {
		c.mu.Unlock()
		token.zero = e.packet.(*zeroPacket)
		return c.write(&token, msg)
	}
	if c.closed {
		c.mu.Unlock()
		return ErrDisconnected
	}

	oper := newOperations(1)
	p := &zeroPacket{inline: true, msg: msg}
	c.senders.registerWithPacket(oper, p, cx)
	c.receivers.notify()
	c.mu.Unlock()

	switch sel := cx.WaitUntil(deadline); sel {
	case Aborted, Disconnected:
		c.mu.Lock()
		c.senders.unregister(oper)
		c.mu.Unlock()
		if sel == Aborted {
			return ErrTimeout
		}
		return ErrDisconnected
	default:
		p.waitReady()
		return nil
	}
}

func (c *zeroChan[T]) tryRecv() (T, error) {
	var token Token
	if c.startRecv(&token) {
		return c.read(&token)
	}
	var zero T
	return zero, ErrEmpty
}

func (c *zeroChan[T]) recv(deadline time.Time) (T, error) {
	cx := acquireContext()
	defer releaseContext(cx)
	token := Token{owner: cx}

	c.mu.Lock()
	if e, ok := c.senders.trySelect(cx); ok {
		c.mu.Unlock()
		token.zero = e.packet.(*zeroPacket)
		return c.read(&token)
	}
	var zero T
	if c.closed {
		c.mu.Unlock()
		return zero, ErrDisconnected
	}

	oper := newOperations(1)
	p := &zeroPacket{inline: true}
	c.receivers.registerWithPacket(oper, p, cx)
	c.senders.notify()
	c.mu.Unlock()

	switch sel := cx.WaitUntil(deadline); sel {
	case Aborted, Disconnected:
		c.mu.Lock()
		c.receivers.unregister(oper)
		c.mu.Unlock()
		if sel == Aborted {
			return zero, ErrTimeout
		}
		return zero, ErrDisconnected
	default:
		p.waitReady()
		msg, _ := p.msg.(T)
		return msg, nil
	}
}

func (c *zeroChan[T]) length() int   { return 0 }
func (c *zeroChan[T]) capacity() int { return 0 }

func (c *zeroChan[T]) disconnect() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.closed = true
	c.senders.disconnect()
	c.receivers.disconnect()
	return true
}

// readiness helpers; callers hold c.mu.
func (c *zeroChan[T]) sendReadyLocked(owner *Context) bool {
	return c.receivers.canSelect(owner) || c.closed
}

func (c *zeroChan[T]) recvReadyLocked(owner *Context) bool {
	return c.senders.canSelect(owner) || c.closed
}

func (c *zeroChan[T]) sendHandle() SelectHandle { return zeroSendHandle[T]{c} }
func (c *zeroChan[T]) recvHandle() SelectHandle { return zeroRecvHandle[T]{c} }

type zeroSendHandle[T any] struct{ c *zeroChan[T] }

func (h zeroSendHandle[T]) TrySelect(token *Token) bool { return h.c.startSend(token) }
func (h zeroSendHandle[T]) Deadline() (time.Time, bool) { return time.Time{}, false }

func (h zeroSendHandle[T]) Register(oper Operation, cx *Context) bool {
	h.c.mu.Lock()
	defer h.c.mu.Unlock()
	h.c.senders.registerWithPacket(oper, &zeroPacket{}, cx)
	h.c.receivers.notify()
	return h.c.sendReadyLocked(cx)
}

func (h zeroSendHandle[T]) Unregister(oper Operation) {
	h.c.mu.Lock()
	h.c.senders.unregister(oper)
	h.c.mu.Unlock()
}

func (h zeroSendHandle[T]) Accept(token *Token, cx *Context) bool {
	token.zero, _ = cx.WaitPacket().(*zeroPacket)
	return true
}

func (h zeroSendHandle[T]) IsReady() bool {
	h.c.mu.Lock()
	defer h.c.mu.Unlock()
	return h.c.sendReadyLocked(nil)
}

func (h zeroSendHandle[T]) Watch(oper Operation, cx *Context) bool {
	h.c.mu.Lock()
	defer h.c.mu.Unlock()
	h.c.senders.watch(oper, cx)
	return h.c.sendReadyLocked(cx)
}

func (h zeroSendHandle[T]) Unwatch(oper Operation) {
	h.c.mu.Lock()
	h.c.senders.unwatch(oper)
	h.c.mu.Unlock()
}

type zeroRecvHandle[T any] struct{ c *zeroChan[T] }

func (h zeroRecvHandle[T]) TrySelect(token *Token) bool { return h.c.startRecv(token) }
func (h zeroRecvHandle[T]) Deadline() (time.Time, bool) { return time.Time{}, false }

func (h zeroRecvHandle[T]) Register(oper Operation, cx *Context) bool {
	h.c.mu.Lock()
	defer h.c.mu.Unlock()
	h.c.receivers.registerWithPacket(oper, &zeroPacket{}, cx)
	h.c.senders.notify()
	return h.c.recvReadyLocked(cx)
}

func (h zeroRecvHandle[T]) Unregister(oper Operation) {
	h.c.mu.Lock()
	h.c.receivers.unregister(oper)
	h.c.mu.Unlock()
}

func (h zeroRecvHandle[T]) Accept(token *Token, cx *Context) bool {
	token.zero, _ = cx.WaitPacket().(*zeroPacket)
	return true
}

func (h zeroRecvHandle[T]) IsReady() bool {
	h.c.mu.Lock()
	defer h.c.mu.Unlock()
	return h.c.recvReadyLocked(nil)
}

func (h zeroRecvHandle[T]) Watch(oper Operation, cx *Context) bool {
	h.c.mu.Lock()
	defer h.c.mu.Unlock()
	h.c.receivers.watch(oper, cx)
	return h.c.recvReadyLocked(cx)
}

func (h zeroRecvHandle[T]) Unwatch(oper Operation) {
	h.c.mu.Lock()
	h.c.receivers.unwatch(oper)
	h.c.mu.Unlock()
}
