// File: channel/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error definitions for selection and endpoint operations. These are
// expected outcomes; protocol violations panic instead.

package channel

import (
	"fmt"

	"github.com/momentics/hioload-chan/api"
)

var (
	// ErrTrySelect indicates a non-blocking selection found nothing ready.
	ErrTrySelect = api.NewError(api.ErrCodeNotReady, "all operations in the selection would block")

	// ErrSelectTimeout indicates a bounded selection ran out of time.
	ErrSelectTimeout = api.NewError(api.ErrCodeTimeout, "timed out waiting on select")

	// ErrTryReady indicates a non-blocking readiness check found nothing ready.
	ErrTryReady = api.NewError(api.ErrCodeNotReady, "all operations in the selection would block")

	// ErrReadyTimeout indicates a bounded readiness wait ran out of time.
	ErrReadyTimeout = api.NewError(api.ErrCodeTimeout, "timed out waiting on ready")

	// ErrDisconnected indicates the channel was closed. Receivers only see it
	// once buffered messages are drained.
	ErrDisconnected = api.NewError(api.ErrCodeDisconnected, "channel is disconnected")

	// ErrFull indicates a non-blocking send found no room.
	ErrFull = api.NewError(api.ErrCodeFull, "channel is full")

	// ErrEmpty indicates a non-blocking receive found no message.
	ErrEmpty = api.NewError(api.ErrCodeEmpty, "channel is empty")

	// ErrTimeout indicates a bounded send or receive ran out of time.
	ErrTimeout = api.NewError(api.ErrCodeTimeout, "timed out waiting on channel operation")
)

// SendError returns an undelivered message to the caller together with the
// reason (ErrDisconnected, ErrFull or ErrTimeout).
type SendError[T any] struct {
	Msg T
	Err error
}

func (e *SendError[T]) Error() string {
	return fmt.Sprintf("send failed: %v", e.Err)
}

func (e *SendError[T]) Unwrap() error {
	return e.Err
}

func sendError[T any](msg T, err error) error {
	if err == nil {
		return nil
	}
	return &SendError[T]{Msg: msg, Err: err}
}
