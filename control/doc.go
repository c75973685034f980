// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime tuning, run metrics and debug introspection around the channel
// package.
//
// Provides concurrent-safe state handling primitives including:
//   - Snapshot config reads with reload listeners bound to channel.Config
//   - Counters and gauges for benchmark drivers
//   - Probe registration and state export through api.Debug
//
// Platform probes are build-tag-partitioned.
package control
