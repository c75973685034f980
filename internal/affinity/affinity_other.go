//go:build !linux
// +build !linux

// File: internal/affinity/affinity_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fallback: the goroutine is locked to its thread but not bound to a CPU.

package affinity

import "runtime"

// Pin locks the calling goroutine to its thread; cpu is ignored.
func Pin(cpu int) (func(), error) {
	runtime.LockOSThread()
	return runtime.UnlockOSThread, nil
}
