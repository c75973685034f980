// File: channel/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package-wide tuning for backoff, fairness randomness and logging.

package channel

import (
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/momentics/hioload-chan/core/concurrency"
	"github.com/sirupsen/logrus"
)

// Config holds parameters read by every selection and blocking operation.
// Replace it atomically with SetDefaultConfig; a Config must not be mutated
// after it has been installed.
type Config struct {
	SpinLimit   uint32         // Backoff steps that busy-spin before yielding
	YieldLimit  uint32         // Backoff steps before falling back to parking
	Seed        uint64         // Fairness shuffle seed; 0 picks a random seed per Select
	Logger      *logrus.Logger // Destination for debug and error records
	EnableDebug bool           // Whether to emit per-attempt debug records

	// LeakHandler runs on the finalizer goroutine when a SelectedOperation is
	// garbage collected without being completed. Nil logs the index at error
	// level and panics there, terminating the process.
	LeakHandler func(index int)
}

// DefaultConfig returns default configuration values.
func DefaultConfig() *Config {
	return &Config{
		SpinLimit:   concurrency.DefaultSpinLimit,  // 2^6 spins at most
		YieldLimit:  concurrency.DefaultYieldLimit, // four Gosched rounds
		Seed:        0,                             // random fairness
		Logger:      logrus.StandardLogger(),       // process logger
		EnableDebug: false,                         // quiet hot path
	}
}

var activeConfig atomic.Pointer[Config]

func init() {
	activeConfig.Store(DefaultConfig())
}

// SetDefaultConfig installs cfg for all subsequent operations. Nil restores
// the defaults.
func SetDefaultConfig(cfg *Config) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Logger == nil {
		c := *cfg
		c.Logger = logrus.StandardLogger()
		cfg = &c
	}
	activeConfig.Store(cfg)
}

func currentConfig() *Config {
	return activeConfig.Load()
}

func (c *Config) backoff() concurrency.Backoff {
	return concurrency.NewBackoffLimits(c.SpinLimit, c.YieldLimit)
}

func (c *Config) log() *logrus.Entry {
	return c.Logger.WithField("component", "channel")
}

func (c *Config) newRand() *rand.Rand {
	if c.Seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), uint64(time.Now().UnixNano())))
	}
	return rand.New(rand.NewPCG(c.Seed, c.Seed^0x9e3779b97f4a7c15))
}
