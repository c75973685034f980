// File: channel/registry.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Select is the user-facing registry of send and receive operations.
// Operations are added with Send/Recv, which return an index, and the
// registry then blocks until exactly one of them can proceed.

package channel

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/sirupsen/logrus"
)

// SendEndpoint is implemented by *Sender[T].
type SendEndpoint interface {
	sendSelectHandle() SelectHandle
}

// RecvEndpoint is implemented by *Receiver[T].
type RecvEndpoint interface {
	recvSelectHandle() SelectHandle
}

func (s *Sender[T]) sendSelectHandle() SelectHandle   { return s.handle }
func (r *Receiver[T]) recvSelectHandle() SelectHandle { return r.handle }

// Select registers operations and waits until one of them can proceed.
// A Select is not safe for concurrent use; Clone it instead.
type Select struct {
	handles   []entry
	nextIndex int
	rng       *rand.Rand
	cfg       *Config
}

// Option configures a Select.
type Option func(*Select)

// WithRand sets the random source used to shuffle operations.
func WithRand(rng *rand.Rand) Option {
	return func(s *Select) { s.rng = rng }
}

// WithConfig overrides the seed, logging and leak handling for this Select.
// Backoff limits always come from the package configuration.
func WithConfig(cfg *Config) Option {
	return func(s *Select) { s.cfg = cfg }
}

// NewSelect returns an empty registry.
func NewSelect(opts ...Option) *Select {
	s := &Select{}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg == nil {
		s.cfg = currentConfig()
	}
	if s.rng == nil {
		s.rng = s.cfg.newRand()
	}
	return s
}

// Send adds a send operation on e and returns its index.
func (s *Select) Send(e SendEndpoint) int {
	return s.add(e.sendSelectHandle(), e)
}

// Recv adds a receive operation on e and returns its index.
func (s *Select) Recv(e RecvEndpoint) int {
	return s.add(e.recvSelectHandle(), e)
}

func (s *Select) add(h SelectHandle, endpoint any) int {
	i := s.nextIndex
	s.nextIndex++
	s.handles = append(s.handles, entry{handle: h, index: i, endpoint: endpoint})
	return i
}

// Remove drops the operation with the given index. Removing an index that
// was never issued, or one that is already removed, panics.
func (s *Select) Remove(index int) {
	if index < 0 || index >= s.nextIndex {
		panic("channel: index out of bounds")
	}
	for i, e := range s.handles {
		if e.index == index {
			last := len(s.handles) - 1
			s.handles[i] = s.handles[last]
			s.handles[last] = entry{}
			s.handles = s.handles[:last]
			return
		}
	}
	panic(fmt.Sprintf("channel: operation %d already removed", index))
}

// Len returns the number of registered operations.
func (s *Select) Len() int { return len(s.handles) }

// Clone returns an independent copy with the same operations and indices.
func (s *Select) Clone() *Select {
	c := &Select{
		handles:   append([]entry(nil), s.handles...),
		nextIndex: s.nextIndex,
		cfg:       s.cfg,
	}
	c.rng = c.cfg.newRand()
	return c
}

// TrySelect completes an operation only if one is ready right now.
func (s *Select) TrySelect() (*SelectedOperation, error) {
	op := s.run(timeout{kind: timeoutNow})
	if op == nil {
		return nil, ErrTrySelect
	}
	return op, nil
}

// Select blocks until an operation is selected. Selecting over an empty
// registry panics, since it could never return.
func (s *Select) Select() *SelectedOperation {
	if len(s.handles) == 0 {
		panic("channel: no operations have been added to Select")
	}
	return s.run(timeout{kind: timeoutNever})
}

// SelectTimeout blocks for at most d.
func (s *Select) SelectTimeout(d time.Duration) (*SelectedOperation, error) {
	return s.SelectDeadline(time.Now().Add(d))
}

// SelectDeadline blocks until deadline at the latest.
func (s *Select) SelectDeadline(deadline time.Time) (*SelectedOperation, error) {
	op := s.run(timeoutUntil(deadline))
	if op == nil {
		return nil, ErrSelectTimeout
	}
	return op, nil
}

// run shuffles s.handles in place; indices travel with the entries.
func (s *Select) run(to timeout) *SelectedOperation {
	token, e, ok := runSelect(s.handles, to, s.rng)
	if !ok {
		s.debug("select", -1)
		return nil
	}
	s.debug("select", e.index)
	return newSelectedOperation(token, e, s.cfg)
}

// TryReady returns the index of an operation that is ready right now.
func (s *Select) TryReady() (int, error) {
	i, ok := runReady(s.handles, timeout{kind: timeoutNow}, s.rng)
	if !ok {
		return 0, ErrTryReady
	}
	return i, nil
}

// Ready blocks until some operation is ready and returns its index. The
// operation is not performed and may no longer be ready when the caller
// attempts it. Calling Ready on an empty registry panics.
func (s *Select) Ready() int {
	if len(s.handles) == 0 {
		panic("channel: no operations have been added to Select")
	}
	i, _ := runReady(s.handles, timeout{kind: timeoutNever}, s.rng)
	s.debug("ready", i)
	return i
}

// ReadyTimeout waits for at most d.
func (s *Select) ReadyTimeout(d time.Duration) (int, error) {
	return s.ReadyDeadline(time.Now().Add(d))
}

// ReadyDeadline waits until deadline at the latest.
func (s *Select) ReadyDeadline(deadline time.Time) (int, error) {
	i, ok := runReady(s.handles, timeoutUntil(deadline), s.rng)
	if !ok {
		s.debug("ready", -1)
		return 0, ErrReadyTimeout
	}
	s.debug("ready", i)
	return i, nil
}

func (s *Select) debug(kind string, index int) {
	if !s.cfg.EnableDebug {
		return
	}
	s.cfg.log().WithFields(logrus.Fields{
		"kind":       kind,
		"operations": len(s.handles),
		"index":      index,
	}).Debug("[channel] selection finished")
}

// Case is one operation of a package-level selection over raw handles.
type Case struct {
	Handle SelectHandle
	Index  int
	// Endpoint identifies the case for finalization; it may be nil.
	Endpoint any
}

func casesToEntries(cases []Case) []entry {
	out := make([]entry, len(cases))
	for i, c := range cases {
		out[i] = entry{handle: c.Handle, index: c.Index, endpoint: c.Endpoint}
	}
	return out
}

func entryToCase(e entry) Case {
	return Case{Handle: e.handle, Index: e.index, Endpoint: e.endpoint}
}

// TrySelectHandles starts one ready case without blocking. The returned
// Token holds whatever state the winning handle stored.
func TrySelectHandles(cases []Case) (Token, Case, bool) {
	token, e, ok := runSelect(casesToEntries(cases), timeout{kind: timeoutNow}, currentConfig().newRand())
	return token, entryToCase(e), ok
}

// SelectHandles blocks until one case is started.
func SelectHandles(cases []Case) (Token, Case) {
	if len(cases) == 0 {
		panic("channel: no operations have been added to Select")
	}
	token, e, _ := runSelect(casesToEntries(cases), timeout{kind: timeoutNever}, currentConfig().newRand())
	return token, entryToCase(e)
}

// SelectHandlesTimeout blocks for at most d.
func SelectHandlesTimeout(cases []Case, d time.Duration) (Token, Case, bool) {
	to := timeoutUntil(time.Now().Add(d))
	token, e, ok := runSelect(casesToEntries(cases), to, currentConfig().newRand())
	return token, entryToCase(e), ok
}
