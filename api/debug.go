// Package api
// Author: momentics
//
// Live debug support: probe registration and state snapshots.

package api

// Debug exposes runtime introspection. Channel counters and platform facts
// are published through it.
type Debug interface {
	// DumpState evaluates every probe and returns the results by name.
	DumpState() map[string]any

	// RegisterProbe registers or replaces a named probe.
	RegisterProbe(name string, fn func() any)
}
