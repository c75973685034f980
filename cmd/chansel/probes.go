// File: cmd/chansel/probes.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"fmt"

	"github.com/momentics/hioload-chan/channel"
	"github.com/momentics/hioload-chan/control"
	"github.com/spf13/cobra"
)

var probesCmd = &cobra.Command{
	Use:   "probes",
	Args:  cobra.NoArgs,
	Short: "Print platform probes, selection counters and run metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		control.RegisterPlatformProbes(probes)
		channel.RegisterProbes(probes)
		state := probes.DumpState()
		out := cmd.OutOrStdout()
		for _, name := range probes.Names() {
			fmt.Fprintf(out, "%-28s %v\n", name, state[name])
		}
		for k, v := range metrics.GetSnapshot() {
			fmt.Fprintf(out, "%-28s %v\n", "metrics."+k, v)
		}
		return nil
	},
}
