package channel

import (
	"context"
	"math/rand/v2"
	"os"
	"os/exec"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestSelect_OneReadyAmongMany(t *testing.T) {
	sel := NewSelect()
	for i := 0; i < 5; i++ {
		_, r := Bounded[int](1)
		sel.Recv(r)
	}
	s, r := Bounded[int](1)
	want := sel.Recv(r)
	require.NoError(t, s.Send(7))

	op, err := sel.TrySelect()
	require.NoError(t, err)
	require.Equal(t, want, op.Index())

	v, err := CompleteRecv(op, r)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestSelect_TrySelectNothingReady(t *testing.T) {
	_, r1 := Bounded[int](1)
	_, r2 := Unbounded[int]()

	sel := NewSelect()
	sel.Recv(r1)
	sel.Recv(r2)

	op, err := sel.TrySelect()
	assert.Nil(t, op)
	assert.ErrorIs(t, err, ErrTrySelect)
}

func TestSelect_Fairness(t *testing.T) {
	const rounds = 2000
	s1, r1 := Unbounded[int]()
	s2, r2 := Unbounded[int]()
	for i := 0; i < rounds; i++ {
		require.NoError(t, s1.Send(i))
		require.NoError(t, s2.Send(i))
	}

	sel := NewSelect(WithRand(rand.New(rand.NewPCG(1, 2))))
	i1 := sel.Recv(r1)
	i2 := sel.Recv(r2)

	counts := map[int]int{}
	for i := 0; i < rounds; i++ {
		op, err := sel.TrySelect()
		require.NoError(t, err)
		counts[op.Index()]++
		switch op.Index() {
		case i1:
			_, err = CompleteRecv(op, r1)
		case i2:
			_, err = CompleteRecv(op, r2)
		}
		require.NoError(t, err)
	}

	assert.Greater(t, counts[i1], rounds*2/5)
	assert.Greater(t, counts[i2], rounds*2/5)
}

func TestSelect_BlocksUntilSend(t *testing.T) {
	s, r := Bounded[string](1)
	sel := NewSelect()
	idx := sel.Recv(r)
	sel.Recv(Never[string]())

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = s.Send("late")
	}()

	start := time.Now()
	op := sel.Select()
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
	require.Equal(t, idx, op.Index())

	v, err := CompleteRecv(op, r)
	require.NoError(t, err)
	assert.Equal(t, "late", v)
}

func TestSelect_Timeout(t *testing.T) {
	_, r := Bounded[int](1)
	sel := NewSelect()
	sel.Recv(r)

	start := time.Now()
	op, err := sel.SelectTimeout(50 * time.Millisecond)
	elapsed := time.Since(start)

	assert.Nil(t, op)
	assert.ErrorIs(t, err, ErrSelectTimeout)
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.Less(t, elapsed, time.Second)

	op, err = sel.SelectDeadline(time.Now().Add(-time.Second))
	assert.Nil(t, op)
	assert.ErrorIs(t, err, ErrSelectTimeout, "past deadline behaves like a non-blocking attempt")
}

func TestSelect_EmptyRegistry(t *testing.T) {
	sel := NewSelect()
	assert.PanicsWithValue(t, "channel: no operations have been added to Select", func() { sel.Select() })
	assert.Panics(t, func() { sel.Ready() })

	_, err := sel.TrySelect()
	assert.ErrorIs(t, err, ErrTrySelect)

	start := time.Now()
	_, err = sel.SelectTimeout(20 * time.Millisecond)
	assert.ErrorIs(t, err, ErrSelectTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestSelect_SendOperation(t *testing.T) {
	s, r := Bounded[int](1)
	full, _ := Bounded[int](1)
	require.NoError(t, full.Send(1))

	sel := NewSelect()
	sel.Send(full)
	idx := sel.Send(s)

	op, err := sel.TrySelect()
	require.NoError(t, err)
	require.Equal(t, idx, op.Index())
	require.NoError(t, CompleteSend(op, s, 42))

	v, err := r.TryRecv()
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestSelect_WrongEndpointPanics(t *testing.T) {
	s1, r1 := Bounded[int](1)
	_, r2 := Bounded[int](1)
	require.NoError(t, s1.Send(1))

	sel := NewSelect()
	sel.Recv(r1)
	sel.Recv(r2)

	op, err := sel.TrySelect()
	require.NoError(t, err)

	assert.PanicsWithValue(t, "channel: passed a receiver that wasn't selected", func() {
		_, _ = CompleteRecv(op, r2)
	})
	assert.PanicsWithValue(t, "channel: passed a sender that wasn't selected", func() {
		_ = CompleteSend(op, s1, 2)
	})

	v, err := CompleteRecv(op, r1)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestSelect_CompleteTwicePanics(t *testing.T) {
	s, r := Unbounded[int]()
	require.NoError(t, s.Send(1))
	require.NoError(t, s.Send(2))

	sel := NewSelect()
	sel.Recv(r)
	op, err := sel.TrySelect()
	require.NoError(t, err)

	_, err = CompleteRecv(op, r)
	require.NoError(t, err)
	assert.Panics(t, func() { _, _ = CompleteRecv(op, r) })
	assert.Equal(t, 1, r.Len(), "second completion must not consume")
}

func TestSelect_LeakHandler(t *testing.T) {
	leaked := make(chan int, 1)
	cfg := DefaultConfig()
	cfg.LeakHandler = func(index int) {
		select {
		case leaked <- index:
		default:
		}
	}

	want := dropSelection(t, cfg)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		runtime.GC()
		select {
		case got := <-leaked:
			assert.Equal(t, want, got)
			return
		case <-time.After(10 * time.Millisecond):
		}
	}
	t.Fatal("leak handler was not called")
}

func TestSelect_DefaultLeakHandlerCrashes(t *testing.T) {
	if os.Getenv("CHANNEL_LEAK_CHILD") == "1" {
		dropSelection(t, DefaultConfig())
		for i := 0; i < 500; i++ {
			runtime.GC()
			time.Sleep(10 * time.Millisecond)
		}
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestSelect_DefaultLeakHandlerCrashes$", "-test.count=1")
	cmd.Env = append(os.Environ(), "CHANNEL_LEAK_CHILD=1")
	out, err := cmd.CombinedOutput()

	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr, "process survived a dropped selection:\n%s", out)
	assert.Contains(t, string(out), "dropped SelectedOperation without completing the operation")
	assert.Contains(t, string(out), "SelectedOperation dropped without completion", "error record precedes the panic")
}

// dropSelection selects an operation and discards it without completing it.
func dropSelection(t *testing.T, cfg *Config) int {
	t.Helper()
	s, r := Unbounded[int]()
	require.NoError(t, s.Send(1))

	sel := NewSelect(WithConfig(cfg))
	idx := sel.Recv(r)
	_, err := sel.TrySelect()
	require.NoError(t, err)
	return idx
}

func TestSelect_Remove(t *testing.T) {
	s1, r1 := Unbounded[int]()
	s2, r2 := Unbounded[int]()
	require.NoError(t, s1.Send(1))
	require.NoError(t, s2.Send(2))

	sel := NewSelect()
	i1 := sel.Recv(r1)
	i2 := sel.Recv(r2)
	sel.Remove(i1)
	assert.Equal(t, 1, sel.Len())

	for i := 0; i < 20; i++ {
		idx, err := sel.TryReady()
		require.NoError(t, err)
		require.Equal(t, i2, idx, "removed operation must never be reported")
	}

	assert.Panics(t, func() { sel.Remove(i1) }, "double remove")
	assert.Panics(t, func() { sel.Remove(99) }, "never issued")

	i3 := sel.Recv(r1)
	assert.NotEqual(t, i1, i3, "indices are not reused")
}

func TestSelect_Clone(t *testing.T) {
	s, r := Bounded[int](2)
	require.NoError(t, s.Send(5))

	sel := NewSelect()
	idx := sel.Recv(r)
	clone := sel.Clone()
	next := clone.Recv(Never[int]())
	assert.Equal(t, 1, sel.Len(), "clone is independent")
	assert.Equal(t, idx+1, next)

	op, err := clone.TrySelect()
	require.NoError(t, err)
	assert.Equal(t, idx, op.Index())
	_, err = CompleteRecv(op, r)
	require.NoError(t, err)
}

func TestSelect_Disconnected(t *testing.T) {
	s, r := Bounded[int](1)
	sel := NewSelect()
	idx := sel.Recv(r)

	go func() {
		time.Sleep(20 * time.Millisecond)
		s.Close()
	}()

	op := sel.Select()
	require.Equal(t, idx, op.Index())
	_, err := CompleteRecv(op, r)
	assert.ErrorIs(t, err, ErrDisconnected)
}

func TestSelect_RendezvousWithBlockedSender(t *testing.T) {
	_, rA := Bounded[int](0)
	sB, rB := Bounded[int](0)

	g, _ := errgroup.WithContext(context.Background())
	g.Go(func() error { return sB.Send(20) })

	sel := NewSelect()
	sel.Recv(rA)
	idxB := sel.Recv(rB)

	var op *SelectedOperation
	require.Eventually(t, func() bool {
		var err error
		op, err = sel.TrySelect()
		return err == nil
	}, time.Second, time.Millisecond)

	require.Equal(t, idxB, op.Index())
	v, err := CompleteRecv(op, rB)
	require.NoError(t, err)
	assert.Equal(t, 20, v)
	require.NoError(t, g.Wait())
}

func TestSelect_RendezvousBetweenSelectors(t *testing.T) {
	s, r := Bounded[int](0)

	g, _ := errgroup.WithContext(context.Background())
	g.Go(func() error {
		sel := NewSelect()
		sel.Send(s)
		sel.Recv(Never[int]())
		op, err := sel.SelectTimeout(2 * time.Second)
		if err != nil {
			return err
		}
		return CompleteSend(op, s, 99)
	})

	var got int
	g.Go(func() error {
		sel := NewSelect()
		sel.Recv(r)
		op, err := sel.SelectTimeout(2 * time.Second)
		if err != nil {
			return err
		}
		got, err = CompleteRecv(op, r)
		return err
	})

	require.NoError(t, g.Wait())
	assert.Equal(t, 99, got)
}

func TestSelect_AfterWins(t *testing.T) {
	sel := NewSelect()
	sel.Recv(Never[int]())
	tm := After(30 * time.Millisecond)
	idx := sel.Recv(tm)

	start := time.Now()
	op, err := sel.SelectTimeout(time.Second)
	require.NoError(t, err)
	require.Equal(t, idx, op.Index())
	at, err := CompleteRecv(op, tm)
	require.NoError(t, err)
	assert.False(t, at.Before(start.Add(25*time.Millisecond)))
}

func TestReady(t *testing.T) {
	s, r := Bounded[int](1)
	sel := NewSelect()
	idx := sel.Recv(r)

	_, err := sel.TryReady()
	assert.ErrorIs(t, err, ErrTryReady)

	_, err = sel.ReadyTimeout(20 * time.Millisecond)
	assert.ErrorIs(t, err, ErrReadyTimeout)

	go func() {
		time.Sleep(30 * time.Millisecond)
		_ = s.Send(1)
	}()
	assert.Equal(t, idx, sel.Ready())
	assert.Equal(t, 1, r.Len(), "Ready never moves data")
}

func TestReady_SendSideOfFullChannel(t *testing.T) {
	s, r := Bounded[int](1)
	require.NoError(t, s.Send(1))

	sel := NewSelect()
	idx := sel.Send(s)

	go func() {
		time.Sleep(20 * time.Millisecond)
		_, _ = r.Recv()
	}()

	i, err := sel.ReadyTimeout(time.Second)
	require.NoError(t, err)
	assert.Equal(t, idx, i)
}

func TestSelect_LeavesNoRegistrations(t *testing.T) {
	_, r := Bounded[int](1)
	s2, _ := Bounded[int](1)
	require.NoError(t, s2.Send(0))

	sel := NewSelect()
	sel.Recv(r)
	sel.Send(s2)

	_, err := sel.SelectTimeout(20 * time.Millisecond)
	require.ErrorIs(t, err, ErrSelectTimeout)
	_, err = sel.ReadyTimeout(20 * time.Millisecond)
	require.ErrorIs(t, err, ErrReadyTimeout)

	assert.Zero(t, r.flavor.(*arrayChan[int]).receivers.pending())
	assert.Zero(t, s2.flavor.(*arrayChan[int]).senders.pending())
}
