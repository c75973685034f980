// File: channel/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package channel provides typed multi-producer multi-consumer channels and
// a selection registry that waits on many send and receive operations at
// once and completes exactly one of them.
//
// Channels come in several flavors: Bounded (a fixed ring, or a rendezvous
// channel when the capacity is zero), Unbounded, and the receive-only time
// sources After, At, Tick and Never.
//
// A selection is a two-step affair:
//
//	sel := channel.NewSelect()
//	i1 := sel.Recv(r1)
//	i2 := sel.Send(s2)
//	op := sel.Select()
//	switch op.Index() {
//	case i1:
//		v, err := channel.CompleteRecv(op, r1)
//		...
//	case i2:
//		err := channel.CompleteSend(op, s2, msg)
//		...
//	}
//
// The SelectedOperation returned by Select must be completed exactly once
// with the endpoint that was registered under its index. Operations are
// shuffled before every attempt, so when several are ready each is chosen
// with roughly equal probability.
//
// Ready and its variants only report which operation could proceed; they
// never move data.
package channel
