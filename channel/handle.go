// File: channel/handle.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// SelectHandle is the capability set an endpoint exposes to the selection
// engine, and Token is the per-attempt scratch space flavors fill in when an
// operation is won.

package channel

import (
	"time"

	"github.com/momentics/hioload-chan/core/concurrency"
)

// SelectHandle is implemented by every endpoint that can take part in a
// selection. Register and Watch must each be paired with exactly one
// Unregister or Unwatch for the same operation.
type SelectHandle interface {
	// TrySelect attempts the operation without blocking and, on success,
	// fills the flavor's slot in token.
	TrySelect(token *Token) bool

	// Deadline reports the next instant at which readiness changes, for
	// time-based sources.
	Deadline() (time.Time, bool)

	// Register records that cx wants to be woken for oper. It returns true
	// if the endpoint is already ready.
	Register(oper Operation, cx *Context) bool

	// Unregister removes the registration made for oper.
	Unregister(oper Operation)

	// Accept completes the handshake after cx was claimed for this endpoint.
	Accept(token *Token, cx *Context) bool

	// IsReady reports whether the operation would complete right now.
	IsReady() bool

	// Watch records that cx wants to be woken when readiness may change.
	Watch(oper Operation, cx *Context) bool

	// Unwatch removes the observation made for oper.
	Unwatch(oper Operation)
}

// Token carries flavor state from a successful select to finalization.
// At most one slot is filled per attempt.
type Token struct {
	// owner is the selecting goroutine's context; wakers skip entries it owns
	// so a goroutine never pairs with itself.
	owner *Context

	// Custom is free for handles implemented outside this package.
	Custom any

	array arrayToken
	list  listToken
	zero  zeroToken
	after timeToken
	tick  timeToken
}

type arrayToken struct {
	slot concurrency.Slot
	ok   bool // false: disconnected
}

type listToken struct {
	msg any
	ok  bool // false: disconnected
}

// zeroToken is the counterpart's packet; nil means disconnected.
type zeroToken = *zeroPacket

type timeToken struct {
	at time.Time
	ok bool
}
