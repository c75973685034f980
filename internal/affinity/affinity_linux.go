//go:build linux
// +build linux

// File: internal/affinity/affinity_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux pinning through sched_setaffinity(2) on the calling thread.

package affinity

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// Pin binds the calling goroutine's thread to cpu.
func Pin(cpu int) (func(), error) {
	runtime.LockOSThread()

	var prev unix.CPUSet
	if err := unix.SchedGetaffinity(0, &prev); err != nil {
		runtime.UnlockOSThread()
		return nil, err
	}

	var set unix.CPUSet
	set.Zero()
	set.Set(allowedCPU(&prev, cpu))
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		runtime.UnlockOSThread()
		return nil, err
	}

	return func() {
		_ = unix.SchedSetaffinity(0, &prev)
		runtime.UnlockOSThread()
	}, nil
}

// allowedCPU maps cpu onto the thread's current mask, which may be narrowed
// by a cgroup cpuset.
func allowedCPU(allowed *unix.CPUSet, cpu int) int {
	if allowed.IsSet(cpu) {
		return cpu
	}
	n := allowed.Count()
	if n == 0 {
		return cpu
	}
	want := cpu % n
	for i := 0; i < 1024; i++ {
		if !allowed.IsSet(i) {
			continue
		}
		if want == 0 {
			return i
		}
		want--
	}
	return cpu
}
