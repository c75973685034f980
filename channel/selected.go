// File: channel/selected.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// SelectedOperation is the result of a successful selection. The chosen
// operation has been started but no data has moved yet; the caller must
// finish it with CompleteSend or CompleteRecv on the same endpoint.

package channel

import (
	"runtime"
	"sync/atomic"
)

// SelectedOperation must be completed exactly once. Dropping it without
// completion is reported through Config.LeakHandler when it is collected.
type SelectedOperation struct {
	token    Token
	index    int
	endpoint any
	done     atomic.Bool
	onLeak   func(index int)
}

func newSelectedOperation(token Token, e entry, cfg *Config) *SelectedOperation {
	op := &SelectedOperation{
		token:    token,
		index:    e.index,
		endpoint: e.endpoint,
		onLeak:   cfg.leakHandler(),
	}
	runtime.SetFinalizer(op, (*SelectedOperation).leaked)
	return op
}

// Index returns the index issued by Select.Send or Select.Recv.
func (op *SelectedOperation) Index() int {
	return op.index
}

func (op *SelectedOperation) finish() {
	if op.done.Swap(true) {
		panic("channel: SelectedOperation completed twice")
	}
	runtime.SetFinalizer(op, nil)
}

func (op *SelectedOperation) leaked() {
	if op.done.Load() {
		return
	}
	stats.leaks.Add(1)
	op.onLeak(op.index)
}

// CompleteSend delivers msg through the selected send operation. s must be
// the sender that was registered under op.Index.
func CompleteSend[T any](op *SelectedOperation, s *Sender[T], msg T) error {
	if op.endpoint != any(s) {
		panic("channel: passed a sender that wasn't selected")
	}
	op.finish()
	return sendError(msg, s.flavor.write(&op.token, msg))
}

// CompleteRecv takes the message from the selected receive operation. r
// must be the receiver that was registered under op.Index.
func CompleteRecv[T any](op *SelectedOperation, r *Receiver[T]) (T, error) {
	if op.endpoint != any(r) {
		panic("channel: passed a receiver that wasn't selected")
	}
	op.finish()
	return r.flavor.read(&op.token)
}

func (c *Config) leakHandler() func(index int) {
	if c.LeakHandler != nil {
		return c.LeakHandler
	}
	log := c.log()
	return func(index int) {
		log.WithField("index", index).Error("[channel] SelectedOperation dropped without completion")
		panic("channel: dropped SelectedOperation without completing the operation")
	}
}
