// File: channel/operation.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Operation identifiers and the Selected state stored in a Context.

package channel

import (
	"fmt"
	"sync/atomic"
)

// Operation identifies one registration of a selecting goroutine on one
// endpoint. Ids are issued from a process-wide generation counter and are
// never equal to the reserved Selected sentinels.
type Operation uint64

const firstOperation = 3

var operationSeq atomic.Uint64

// newOperations reserves n consecutive ids and returns the first one.
func newOperations(n int) Operation {
	if n < 1 {
		n = 1
	}
	end := operationSeq.Add(uint64(n))
	first := end - uint64(n) + firstOperation
	if first < firstOperation {
		panic("channel: operation id space exhausted")
	}
	return Operation(first)
}

// Selected is the state of a Context during one attempt.
type Selected uint64

const (
	// Waiting is the initial state: nothing has claimed the context yet.
	Waiting Selected = 0
	// Aborted means the attempt gave up (timeout or non-blocking attempt).
	Aborted Selected = 1
	// Disconnected means an endpoint the goroutine waits on was closed.
	Disconnected Selected = 2
)

// SelectedFor returns the state claiming oper.
func SelectedFor(oper Operation) Selected {
	return Selected(oper)
}

// Operation returns the claimed operation and true when s names one.
func (s Selected) Operation() (Operation, bool) {
	if s < firstOperation {
		return 0, false
	}
	return Operation(s), true
}

// String implements fmt.Stringer.
func (s Selected) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Aborted:
		return "aborted"
	case Disconnected:
		return "disconnected"
	default:
		return fmt.Sprintf("operation(%d)", uint64(s))
	}
}
