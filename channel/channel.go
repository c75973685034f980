// File: channel/channel.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Typed endpoints and constructors for every channel flavor.

package channel

import (
	"time"
)

// Unlimited is the capacity reported by unbounded channels.
const Unlimited = -1

type senderFlavor[T any] interface {
	write(token *Token, msg T) error
	trySend(msg T) error
	send(msg T, deadline time.Time) error
	sendHandle() SelectHandle
	length() int
	capacity() int
	disconnect() bool
}

type receiverFlavor[T any] interface {
	read(token *Token) (T, error)
	tryRecv() (T, error)
	recv(deadline time.Time) (T, error)
	recvHandle() SelectHandle
	length() int
	capacity() int
	disconnect() bool
}

// Sender is the sending side of a channel. It is safe for concurrent use.
type Sender[T any] struct {
	flavor senderFlavor[T]
	handle SelectHandle
}

// Receiver is the receiving side of a channel. It is safe for concurrent use.
type Receiver[T any] struct {
	flavor receiverFlavor[T]
	handle SelectHandle
}

// Bounded creates a channel holding at most capacity messages. A capacity
// of zero creates a rendezvous channel.
func Bounded[T any](capacity int) (*Sender[T], *Receiver[T]) {
	if capacity < 0 {
		panic("channel: negative capacity")
	}
	if capacity == 0 {
		c := newZeroChan[T]()
		return newSender[T](c), newReceiver[T](c)
	}
	c := newArrayChan[T](capacity)
	return newSender[T](c), newReceiver[T](c)
}

// Unbounded creates a channel that never blocks senders.
func Unbounded[T any]() (*Sender[T], *Receiver[T]) {
	c := newListChan[T]()
	return newSender[T](c), newReceiver[T](c)
}

// After creates a receiver that delivers the instant d from now, once.
func After(d time.Duration) *Receiver[time.Time] {
	return At(time.Now().Add(d))
}

// At creates a receiver that delivers at, once.
func At(at time.Time) *Receiver[time.Time] {
	return newReceiver[time.Time](newAfterChan(at))
}

// Tick creates a receiver that delivers one instant every period.
func Tick(period time.Duration) *Receiver[time.Time] {
	return newReceiver[time.Time](newTickChan(period))
}

// Never creates a receiver that never delivers anything.
func Never[T any]() *Receiver[T] {
	return newReceiver[T](neverChan[T]{})
}

func newSender[T any](f senderFlavor[T]) *Sender[T] {
	return &Sender[T]{flavor: f, handle: f.sendHandle()}
}

func newReceiver[T any](f receiverFlavor[T]) *Receiver[T] {
	return &Receiver[T]{flavor: f, handle: f.recvHandle()}
}

// Send blocks until msg is delivered or the channel is disconnected.
func (s *Sender[T]) Send(msg T) error {
	return sendError(msg, s.flavor.send(msg, time.Time{}))
}

// TrySend delivers msg only if that is possible without blocking.
func (s *Sender[T]) TrySend(msg T) error {
	return sendError(msg, s.flavor.trySend(msg))
}

// SendTimeout blocks for at most d.
func (s *Sender[T]) SendTimeout(msg T, d time.Duration) error {
	return s.SendDeadline(msg, time.Now().Add(d))
}

// SendDeadline blocks until deadline at the latest.
func (s *Sender[T]) SendDeadline(msg T, deadline time.Time) error {
	return sendError(msg, s.flavor.send(msg, deadline))
}

// Close disconnects the channel. It reports whether this call closed it.
func (s *Sender[T]) Close() bool {
	return closeFlavor(s.flavor)
}

// Len returns the number of buffered messages.
func (s *Sender[T]) Len() int { return s.flavor.length() }

// Cap returns the buffer capacity, 0 for rendezvous and Unlimited for
// unbounded channels.
func (s *Sender[T]) Cap() int { return s.flavor.capacity() }

// IsEmpty reports whether no message is buffered.
func (s *Sender[T]) IsEmpty() bool { return s.Len() == 0 }

// IsFull reports whether a send would have to wait.
func (s *Sender[T]) IsFull() bool { return isFull(s.Len(), s.Cap()) }

// SelectHandle exposes the sender to custom selection code.
func (s *Sender[T]) SelectHandle() SelectHandle { return s.handle }

// Recv blocks until a message arrives or the channel is disconnected and drained.
func (r *Receiver[T]) Recv() (T, error) {
	return r.flavor.recv(time.Time{})
}

// TryRecv receives a message only if one is available right now.
func (r *Receiver[T]) TryRecv() (T, error) {
	return r.flavor.tryRecv()
}

// RecvTimeout blocks for at most d.
func (r *Receiver[T]) RecvTimeout(d time.Duration) (T, error) {
	return r.RecvDeadline(time.Now().Add(d))
}

// RecvDeadline blocks until deadline at the latest.
func (r *Receiver[T]) RecvDeadline(deadline time.Time) (T, error) {
	return r.flavor.recv(deadline)
}

// Close disconnects the channel. It reports whether this call closed it.
func (r *Receiver[T]) Close() bool {
	return closeFlavor(r.flavor)
}

// Len returns the number of buffered messages.
func (r *Receiver[T]) Len() int { return r.flavor.length() }

// Cap returns the buffer capacity, 0 for rendezvous and Unlimited for
// unbounded channels.
func (r *Receiver[T]) Cap() int { return r.flavor.capacity() }

// IsEmpty reports whether no message is buffered.
func (r *Receiver[T]) IsEmpty() bool { return r.Len() == 0 }

// IsFull reports whether a send would have to wait.
func (r *Receiver[T]) IsFull() bool { return isFull(r.Len(), r.Cap()) }

// SelectHandle exposes the receiver to custom selection code.
func (r *Receiver[T]) SelectHandle() SelectHandle { return r.handle }

func isFull(n, capacity int) bool {
	return capacity != Unlimited && n >= capacity
}

func closeFlavor(f interface{ disconnect() bool }) bool {
	if !f.disconnect() {
		return false
	}
	stats.disconnects.Add(1)
	cfg := currentConfig()
	if cfg.EnableDebug {
		cfg.log().Debug("[channel] disconnected")
	}
	return true
}
