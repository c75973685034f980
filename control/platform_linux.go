//go:build linux
// +build linux

// control/platform_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux-specific platform probes read through sysinfo(2).

package control

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// RegisterPlatformProbes sets Linux-specific debug metrics.
func RegisterPlatformProbes(dp *DebugProbes) {
	registerRuntimeProbes(dp)
	dp.RegisterProbe("platform.os", func() any { return runtime.GOOS })
	dp.RegisterProbe("platform.load1", func() any {
		var info unix.Sysinfo_t
		if err := unix.Sysinfo(&info); err != nil {
			return err.Error()
		}
		// Loads are fixed-point with 16 fractional bits.
		return float64(info.Loads[0]) / 65536
	})
	dp.RegisterProbe("platform.uptime_seconds", func() any {
		var info unix.Sysinfo_t
		if err := unix.Sysinfo(&info); err != nil {
			return err.Error()
		}
		return int64(info.Uptime)
	})
}
