// File: cmd/chansel/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// chansel drives the channel package from the command line: throughput
// runs over selections, fairness sampling and a probe dump.

package main

import (
	"os"

	"github.com/google/uuid"
	"github.com/momentics/hioload-chan/control"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	logLevel   string
	spinLimit  uint32
	yieldLimit uint32
	seed       uint64
	debugSel   bool

	store   = control.NewConfigStore()
	metrics = control.NewMetricsRegistry()
	probes  = control.NewDebugProbes()

	rootCmd = &cobra.Command{
		Use:               "chansel",
		Short:             "Exercise multi-channel selection",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: persistentPreRunE,
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&logLevel, "log-level", "info", "Log messages above specified level (trace, debug, info, warn, error)")
	addTuningFlags(flags)
	rootCmd.AddCommand(benchCmd, fairnessCmd, probesCmd)
}

func addTuningFlags(flags *pflag.FlagSet) {
	flags.Uint32Var(&spinLimit, "spin-limit", 6, "Backoff steps that busy-spin before yielding")
	flags.Uint32Var(&yieldLimit, "yield-limit", 10, "Backoff steps before parking")
	flags.Uint64Var(&seed, "seed", 0, "Fairness shuffle seed (0 for random)")
	flags.BoolVar(&debugSel, "debug-select", false, "Log every selection")
}

func persistentPreRunE(cmd *cobra.Command, args []string) error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return errors.Wrapf(err, "invalid --log-level %q", logLevel)
	}
	logrus.SetLevel(level)

	runID := uuid.NewString()
	logrus.Debugf("Called %s.PersistentPreRunE(run %s)", cmd.Name(), runID)
	metrics.Set("run_id", runID)

	control.BindChannel(store, logrus.StandardLogger())
	store.SetConfig(map[string]any{
		control.KeySpinLimit:  spinLimit,
		control.KeyYieldLimit: yieldLimit,
		control.KeySeed:       seed,
		control.KeyDebug:      debugSel,
	})
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
