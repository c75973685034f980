// File: channel/debug.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Process-wide selection counters exported through debug probes.

package channel

import (
	"sync/atomic"

	"github.com/momentics/hioload-chan/api"
)

var stats struct {
	attempts    atomic.Uint64
	fastPath    atomic.Uint64
	slowPath    atomic.Uint64
	parks       atomic.Uint64
	timeouts    atomic.Uint64
	disconnects atomic.Uint64
	leaks       atomic.Uint64
}

// Stats returns a snapshot of the selection counters.
func Stats() map[string]uint64 {
	return map[string]uint64{
		"attempts":    stats.attempts.Load(),
		"fast_path":   stats.fastPath.Load(),
		"slow_path":   stats.slowPath.Load(),
		"parks":       stats.parks.Load(),
		"timeouts":    stats.timeouts.Load(),
		"disconnects": stats.disconnects.Load(),
		"leaks":       stats.leaks.Load(),
	}
}

// RegisterProbes exposes every counter as a "channel.<name>" probe.
func RegisterProbes(dbg api.Debug) {
	for name := range Stats() {
		key := name
		dbg.RegisterProbe("channel."+key, func() any {
			return Stats()[key]
		})
	}
}
