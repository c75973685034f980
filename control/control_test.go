package control

import (
	"sync"
	"testing"

	"github.com/momentics/hioload-chan/channel"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_ReloadListeners(t *testing.T) {
	cs := NewConfigStore()
	var got []map[string]any
	cs.OnReload(func(snap map[string]any) { got = append(got, snap) })

	cs.SetConfig(map[string]any{KeySpinLimit: 3})
	cs.SetConfig(map[string]any{KeyDebug: true})

	require.Len(t, got, 2)
	assert.Equal(t, 3, got[1][KeySpinLimit], "snapshots are merged")
	assert.Equal(t, uint32(3), cs.Uint32(KeySpinLimit, 0))
	assert.True(t, cs.Bool(KeyDebug, false))
	assert.Equal(t, uint32(7), cs.Uint32("missing", 7))
}

func TestConfigStore_ConcurrentSetConfigLastSnapshotWins(t *testing.T) {
	cs := NewConfigStore()
	var mu sync.Mutex
	var last any
	cs.OnReload(func(snap map[string]any) {
		mu.Lock()
		last = snap[KeySpinLimit]
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				cs.SetConfig(map[string]any{KeySpinLimit: g*1000 + i})
			}
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, cs.GetSnapshot()[KeySpinLimit], last, "listeners observe the final merge last")
}

func TestChannelConfig_Defaults(t *testing.T) {
	def := channel.DefaultConfig()
	cfg := ChannelConfig(map[string]any{KeySeed: uint64(42), KeyYieldLimit: -1}, nil)

	assert.Equal(t, uint64(42), cfg.Seed)
	assert.Equal(t, def.SpinLimit, cfg.SpinLimit)
	assert.Equal(t, def.YieldLimit, cfg.YieldLimit, "negative values fall back")
	assert.NotNil(t, cfg.Logger)
}

func TestBindChannel_AppliesOnReload(t *testing.T) {
	t.Cleanup(func() { channel.SetDefaultConfig(nil) })

	logger := logrus.New()
	cs := NewConfigStore()
	BindChannel(cs, logger)
	cs.SetConfig(map[string]any{KeySeed: uint64(9), KeyDebug: false})

	// The bound configuration must keep the package usable.
	s, r := channel.Bounded[int](1)
	require.NoError(t, s.Send(1))
	v, err := r.Recv()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestDebugProbes(t *testing.T) {
	dp := NewDebugProbes()
	RegisterPlatformProbes(dp)
	channel.RegisterProbes(dp)

	state := dp.DumpState()
	assert.Contains(t, state, "platform.cpus")
	assert.Contains(t, state, "platform.os")
	assert.Contains(t, state, "channel.attempts")
	assert.IsIncreasing(t, dp.Names())
}

func TestMetricsRegistry_Counters(t *testing.T) {
	mr := NewMetricsRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				mr.Counter("messages").Add(1)
			}
		}()
	}
	wg.Wait()
	mr.Set("flavor", "bounded")

	snap := mr.GetSnapshot()
	assert.Equal(t, int64(800), snap["messages"])
	assert.Equal(t, "bounded", snap["flavor"])
	assert.False(t, mr.Updated().IsZero())
}
