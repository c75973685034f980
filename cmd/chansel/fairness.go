// File: cmd/chansel/fairness.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"fmt"
	"math"

	"github.com/momentics/hioload-chan/channel"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	fairWidth  int
	fairRounds int

	fairnessCmd = &cobra.Command{
		Use:   "fairness [options]",
		Args:  cobra.NoArgs,
		Short: "Sample how often each of several always-ready operations is chosen",
		RunE:  fairness,
	}
)

func init() {
	flags := fairnessCmd.Flags()
	flags.IntVarP(&fairWidth, "width", "w", 4, "Number of always-ready receive operations")
	flags.IntVarP(&fairRounds, "rounds", "n", 10000, "Number of selections")
}

// sampleFairness selects rounds times over width receivers that always hold
// a message and returns how often each index won.
func sampleFairness(width, rounds int) ([]int, error) {
	if width < 1 || rounds < 1 {
		return nil, errors.Errorf("width and rounds must be positive, got %d and %d", width, rounds)
	}
	sel := channel.NewSelect()
	senders := make(map[int]*channel.Sender[int], width)
	receivers := make(map[int]*channel.Receiver[int], width)
	for i := 0; i < width; i++ {
		s, r := channel.Bounded[int](1)
		if err := s.Send(i); err != nil {
			return nil, err
		}
		idx := sel.Recv(r)
		senders[idx], receivers[idx] = s, r
	}

	counts := make([]int, width)
	for i := 0; i < rounds; i++ {
		op, err := sel.TrySelect()
		if err != nil {
			return nil, errors.Wrap(err, "an always-ready operation was not selected")
		}
		idx := op.Index()
		v, err := channel.CompleteRecv(op, receivers[idx])
		if err != nil {
			return nil, err
		}
		counts[idx]++
		if err := senders[idx].Send(v); err != nil {
			return nil, err
		}
	}
	return counts, nil
}

func fairness(cmd *cobra.Command, args []string) error {
	counts, err := sampleFairness(fairWidth, fairRounds)
	if err != nil {
		return err
	}
	expected := float64(fairRounds) / float64(fairWidth)
	var chi2 float64
	for i, c := range counts {
		d := float64(c) - expected
		chi2 += d * d / expected
		metrics.Set(fmt.Sprintf("fairness.%d", i), c)
	}
	logrus.WithFields(logrus.Fields{
		"width":     fairWidth,
		"rounds":    fairRounds,
		"chi2":      math.Round(chi2*100) / 100,
		"histogram": counts,
	}).Info("fairness sample")
	return nil
}
