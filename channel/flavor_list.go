// File: channel/flavor_list.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Unbounded channel. Messages live in an eapache ring-growing queue guarded
// by a mutex; sending never blocks, so only receivers are ever registered.

package channel

import (
	"sync"
	"time"

	"github.com/eapache/queue"
)

type listChan[T any] struct {
	mu        sync.Mutex
	q         *queue.Queue
	closed    bool
	receivers *syncWaker
}

func newListChan[T any]() *listChan[T] {
	return &listChan[T]{
		q:         queue.New(),
		receivers: newSyncWaker(),
	}
}

func (c *listChan[T]) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *listChan[T]) startSend(token *Token) bool {
	token.list = listToken{ok: !c.isClosed()}
	return true
}

func (c *listChan[T]) write(token *Token, msg T) error {
	if !token.list.ok {
		return ErrDisconnected
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrDisconnected
	}
	c.q.Add(msg)
	c.mu.Unlock()
	c.receivers.notify()
	return nil
}

func (c *listChan[T]) startRecv(token *Token) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.q.Length() > 0 {
		token.list = listToken{msg: c.q.Remove(), ok: true}
		return true
	}
	if c.closed {
		token.list = listToken{}
		return true
	}
	return false
}

func (c *listChan[T]) read(token *Token) (T, error) {
	if !token.list.ok {
		var zero T
		return zero, ErrDisconnected
	}
	msg, _ := token.list.msg.(T)
	token.list.msg = nil
	return msg, nil
}

func (c *listChan[T]) recvReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.q.Length() > 0 || c.closed
}

func (c *listChan[T]) trySend(msg T) error {
	return c.send(msg, time.Time{})
}

func (c *listChan[T]) send(msg T, _ time.Time) error {
	var token Token
	c.startSend(&token)
	return c.write(&token, msg)
}

func (c *listChan[T]) tryRecv() (T, error) {
	var token Token
	if c.startRecv(&token) {
		return c.read(&token)
	}
	var zero T
	return zero, ErrEmpty
}

func (c *listChan[T]) recv(deadline time.Time) (T, error) {
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

func (c *listChan[T]) length() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.q.Length()
}

func (c *listChan[T]) capacity() int { return Unlimited }

func (c *listChan[T]) disconnect() bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.closed = true
	c.mu.Unlock()
	c.receivers.disconnect()
	return true
}

func (c *listChan[T]) sendHandle() SelectHandle { return listSendHandle[T]{c} }
func (c *listChan[T]) recvHandle() SelectHandle { return listRecvHandle[T]{c} }

// listSendHandle is always ready: the queue grows as needed.
type listSendHandle[T any] struct{ c *listChan[T] }

func (h listSendHandle[T]) TrySelect(token *Token) bool          { return h.c.startSend(token) }
func (h listSendHandle[T]) Deadline() (time.Time, bool)          { return time.Time{}, false }
func (h listSendHandle[T]) Register(Operation, *Context) bool    { return true }
func (h listSendHandle[T]) Unregister(Operation)                 {}
func (h listSendHandle[T]) Accept(token *Token, _ *Context) bool { return h.c.startSend(token) }
func (h listSendHandle[T]) IsReady() bool                        { return true }
func (h listSendHandle[T]) Watch(Operation, *Context) bool       { return true }
func (h listSendHandle[T]) Unwatch(Operation)                    {}

type listRecvHandle[T any] struct{ c *listChan[T] }

func (h listRecvHandle[T]) TrySelect(token *Token) bool { return h.c.startRecv(token) }
func (h listRecvHandle[T]) Deadline() (time.Time, bool) { return time.Time{}, false }

func (h listRecvHandle[T]) Register(oper Operation, cx *Context) bool {
	h.c.receivers.register(oper, cx)
	return h.c.recvReady()
}

func (h listRecvHandle[T]) Unregister(oper Operation)            { h.c.receivers.unregister(oper) }
func (h listRecvHandle[T]) Accept(token *Token, _ *Context) bool { return h.c.startRecv(token) }
func (h listRecvHandle[T]) IsReady() bool                        { return h.c.recvReady() }
func (h listRecvHandle[T]) Unwatch(oper Operation)               { h.c.receivers.unwatch(oper) }

func (h listRecvHandle[T]) Watch(oper Operation, cx *Context) bool {
	h.c.receivers.watch(oper, cx)
	return h.c.recvReady()
}
