// File: control/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Thread-safe tuning store with reload listeners. BindChannel keeps the
// channel package configuration in step with the store.

package control

import (
	"slices"
	"sync"

	"github.com/momentics/hioload-chan/channel"
	"github.com/sirupsen/logrus"
)

// Keys understood by BindChannel.
const (
	KeySpinLimit  = "channel.spin_limit"
	KeyYieldLimit = "channel.yield_limit"
	KeySeed       = "channel.seed"
	KeyDebug      = "channel.debug"
)

// ConfigStore is a dynamic key/value map with atomic snapshot and listener support.
type ConfigStore struct {
	mu        sync.RWMutex
	notifyMu  sync.Mutex
	config    map[string]any
	listeners []func(map[string]any)
}

// NewConfigStore initializes a new config store with empty data.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{
		config: make(map[string]any),
	}
}

// GetSnapshot returns a copy of all config values.
func (cs *ConfigStore) GetSnapshot() map[string]any {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	out := make(map[string]any, len(cs.config))
	for k, v := range cs.config {
		out[k] = v
	}
	return out
}

// SetConfig merges new values and notifies listeners with the merged snapshot.
// Listeners run synchronously on the caller's goroutine, outside the data lock.
// Concurrent calls are serialized so the last merge is also the last one a
// listener observes. A listener must not call SetConfig.
func (cs *ConfigStore) SetConfig(newCfg map[string]any) {
	cs.notifyMu.Lock()
	defer cs.notifyMu.Unlock()

	cs.mu.Lock()
	for k, v := range newCfg {
		cs.config[k] = v
	}
	snap := make(map[string]any, len(cs.config))
	for k, v := range cs.config {
		snap[k] = v
	}
	listeners := slices.Clone(cs.listeners)
	cs.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

// OnReload registers a listener hook called on config changes.
func (cs *ConfigStore) OnReload(fn func(map[string]any)) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listeners = append(cs.listeners, fn)
}

// Uint32 returns key as uint32, or def when it is missing or of another type.
func (cs *ConfigStore) Uint32(key string, def uint32) uint32 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return asUint32(cs.config[key], def)
}

// Bool returns key as bool, or def when it is missing or of another type.
func (cs *ConfigStore) Bool(key string, def bool) bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	if v, ok := cs.config[key].(bool); ok {
		return v
	}
	return def
}

func asUint32(v any, def uint32) uint32 {
	switch n := v.(type) {
	case uint32:
		return n
	case int:
		if n >= 0 {
			return uint32(n)
		}
	case uint64:
		return uint32(n)
	}
	return def
}

func asUint64(v any, def uint64) uint64 {
	switch n := v.(type) {
	case uint64:
		return n
	case int:
		if n >= 0 {
			return uint64(n)
		}
	case uint32:
		return uint64(n)
	}
	return def
}

// ChannelConfig builds a channel.Config from snap, falling back to defaults.
func ChannelConfig(snap map[string]any, logger *logrus.Logger) *channel.Config {
	cfg := channel.DefaultConfig()
	cfg.SpinLimit = asUint32(snap[KeySpinLimit], cfg.SpinLimit)
	cfg.YieldLimit = asUint32(snap[KeyYieldLimit], cfg.YieldLimit)
	cfg.Seed = asUint64(snap[KeySeed], cfg.Seed)
	if v, ok := snap[KeyDebug].(bool); ok {
		cfg.EnableDebug = v
	}
	if logger != nil {
		cfg.Logger = logger
	}
	return cfg
}

// BindChannel installs the store's current values as the channel package
// configuration and reinstalls them on every change.
func BindChannel(cs *ConfigStore, logger *logrus.Logger) {
	apply := func(snap map[string]any) {
		cfg := ChannelConfig(snap, logger)
		channel.SetDefaultConfig(cfg)
		cfg.Logger.WithFields(logrus.Fields{
			"component":   "control",
			"spin_limit":  cfg.SpinLimit,
			"yield_limit": cfg.YieldLimit,
			"seed":        cfg.Seed,
			"debug":       cfg.EnableDebug,
		}).Debug("channel configuration applied")
	}
	cs.OnReload(apply)
	apply(cs.GetSnapshot())
}
