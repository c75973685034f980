// File: internal/affinity/affinity.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// CPU pinning for benchmark workers. Pin locks the calling goroutine to its
// OS thread and, where the platform allows it, binds that thread to one CPU.
// The returned function undoes both.

package affinity

import "runtime"

// CPUFor spreads worker ids over the available CPUs.
func CPUFor(worker int) int {
	n := runtime.NumCPU()
	if worker < 0 {
		worker = -worker
	}
	return worker % n
}
