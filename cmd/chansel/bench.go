// File: cmd/chansel/bench.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"time"

	"github.com/momentics/hioload-chan/channel"
	"github.com/momentics/hioload-chan/internal/affinity"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type benchOptions struct {
	flavor    string
	capacity  int
	channels  int
	producers int
	consumers int
	messages  int
	stall     time.Duration
	pin       bool
}

var (
	benchOpts benchOptions

	benchCmd = &cobra.Command{
		Use:   "bench [options]",
		Args:  cobra.NoArgs,
		Short: "Measure throughput of producers and consumers selecting over many channels",
		Long: `Producers select over the send side of every channel and consumers over
the receive side. Every completed operation moves one message.`,
		RunE: bench,
	}
)

func init() {
	flags := benchCmd.Flags()
	flags.StringVar(&benchOpts.flavor, "flavor", "bounded", "Channel flavor: bounded, unbounded or zero")
	flags.IntVar(&benchOpts.capacity, "capacity", 64, "Capacity of bounded channels")
	flags.IntVar(&benchOpts.channels, "channels", 4, "Number of channels in every selection")
	flags.IntVarP(&benchOpts.producers, "producers", "p", 4, "Producer goroutines")
	flags.IntVarP(&benchOpts.consumers, "consumers", "c", 4, "Consumer goroutines")
	flags.IntVarP(&benchOpts.messages, "messages", "n", 100000, "Messages per producer")
	flags.BoolVar(&benchOpts.pin, "pin", false, "Pin every worker goroutine to a CPU")
	flags.DurationVar(&benchOpts.stall, "stall", 10*time.Second, "Fail when no operation completes for this long")
}

func makeChannels(opts benchOptions) ([]*channel.Sender[int], []*channel.Receiver[int], error) {
	if opts.channels < 1 {
		return nil, nil, errors.Errorf("--channels must be positive, got %d", opts.channels)
	}
	senders := make([]*channel.Sender[int], opts.channels)
	receivers := make([]*channel.Receiver[int], opts.channels)
	for i := range senders {
		switch opts.flavor {
		case "bounded":
			if opts.capacity < 1 {
				return nil, nil, errors.Errorf("--capacity must be positive, got %d", opts.capacity)
			}
			senders[i], receivers[i] = channel.Bounded[int](opts.capacity)
		case "unbounded":
			senders[i], receivers[i] = channel.Unbounded[int]()
		case "zero":
			senders[i], receivers[i] = channel.Bounded[int](0)
		default:
			return nil, nil, errors.Errorf("unknown flavor %q", opts.flavor)
		}
	}
	return senders, receivers, nil
}

func bench(cmd *cobra.Command, args []string) error {
	opts := benchOpts
	senders, receivers, err := makeChannels(opts)
	if err != nil {
		return err
	}
	log := logrus.WithFields(logrus.Fields{
		"flavor":   opts.flavor,
		"channels": opts.channels,
	})
	metrics.Set("flavor", opts.flavor)
	sent := metrics.Counter("sent")
	received := metrics.Counter("received")
	sent.Store(0)
	received.Store(0)

	start := time.Now()
	var consumers errgroup.Group
	for c := 0; c < opts.consumers; c++ {
		consumers.Go(pinned(opts.pin, opts.producers+c, func() error {
			return consume(receivers, opts.stall, received.Add)
		}))
	}

	var producers errgroup.Group
	for p := 0; p < opts.producers; p++ {
		producers.Go(pinned(opts.pin, p, func() error {
			return produce(senders, opts.messages, opts.stall, sent.Add)
		}))
	}

	perr := producers.Wait()
	for _, s := range senders {
		s.Close()
	}
	if cerr := consumers.Wait(); perr == nil {
		perr = cerr
	}
	if perr != nil {
		return perr
	}

	elapsed := time.Since(start)
	if sent.Load() != received.Load() {
		return errors.Errorf("sent %d messages but received %d", sent.Load(), received.Load())
	}
	metrics.Set("elapsed", elapsed.String())
	log.WithFields(logrus.Fields{
		"messages":  received.Load(),
		"elapsed":   elapsed,
		"msg_per_s": int64(float64(received.Load()) / elapsed.Seconds()),
	}).Info("bench finished")
	log.WithFields(toFields(channel.Stats())).Debug("selection counters")
	return nil
}

// pinned wraps fn so it runs on a thread bound to the worker's CPU.
func pinned(enabled bool, worker int, fn func() error) func() error {
	if !enabled {
		return fn
	}
	return func() error {
		unpin, err := affinity.Pin(affinity.CPUFor(worker))
		if err != nil {
			return errors.Wrapf(err, "pin worker %d", worker)
		}
		defer unpin()
		return fn()
	}
}

func produce(senders []*channel.Sender[int], n int, stall time.Duration, done func(int64) int64) error {
	sel := channel.NewSelect()
	byIndex := make(map[int]*channel.Sender[int], len(senders))
	for _, s := range senders {
		byIndex[sel.Send(s)] = s
	}
	for i := 0; i < n; i++ {
		op, err := sel.SelectTimeout(stall)
		if err != nil {
			return errors.Wrapf(err, "producer stalled after %d messages", i)
		}
		if err := channel.CompleteSend(op, byIndex[op.Index()], i); err != nil {
			return errors.Wrap(err, "send")
		}
		done(1)
	}
	return nil
}

func consume(receivers []*channel.Receiver[int], stall time.Duration, done func(int64) int64) error {
	sel := channel.NewSelect()
	byIndex := make(map[int]*channel.Receiver[int], len(receivers))
	for _, r := range receivers {
		byIndex[sel.Recv(r)] = r
	}
	for sel.Len() > 0 {
		op, err := sel.SelectTimeout(stall)
		if err != nil {
			return errors.Wrap(err, "consumer stalled")
		}
		_, err = channel.CompleteRecv(op, byIndex[op.Index()])
		switch {
		case errors.Is(err, channel.ErrDisconnected):
			sel.Remove(op.Index())
		case err != nil:
			return errors.Wrap(err, "receive")
		default:
			done(1)
		}
	}
	return nil
}

func toFields(m map[string]uint64) logrus.Fields {
	f := make(logrus.Fields, len(m))
	for k, v := range m {
		f[k] = v
	}
	return f
}
