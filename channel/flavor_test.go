package channel

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/momentics/hioload-chan/api"
)

func TestBounded_FIFOAndCapacity(t *testing.T) {
	s, r := Bounded[int](3)
	assert.Equal(t, 3, s.Cap())
	assert.True(t, r.IsEmpty())

	for i := 0; i < 3; i++ {
		require.NoError(t, s.TrySend(i))
	}
	assert.True(t, s.IsFull())
	assert.Equal(t, 3, r.Len())

	err := s.TrySend(9)
	require.ErrorIs(t, err, ErrFull)
	var se *SendError[int]
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 9, se.Msg, "undelivered message is handed back")
	assert.Equal(t, api.ErrCodeFull, api.CodeOf(err))

	for i := 0; i < 3; i++ {
		v, err := r.TryRecv()
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
	_, err = r.TryRecv()
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestBounded_NegativeCapacityPanics(t *testing.T) {
	assert.Panics(t, func() { Bounded[int](-1) })
}

func TestBounded_Timeouts(t *testing.T) {
	s, r := Bounded[int](1)

	start := time.Now()
	_, err := r.RecvTimeout(30 * time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)

	require.NoError(t, s.Send(1))
	err = s.SendTimeout(2, 30*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestBounded_BlockingHandoff(t *testing.T) {
	s, r := Bounded[int](1)
	require.NoError(t, s.Send(1))

	g, _ := errgroup.WithContext(context.Background())
	g.Go(func() error { return s.Send(2) })

	time.Sleep(20 * time.Millisecond)
	v, err := r.Recv()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	require.NoError(t, g.Wait())

	v, err = r.Recv()
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestBounded_CloseDrainsFirst(t *testing.T) {
	s, r := Bounded[int](2)
	require.NoError(t, s.Send(1))
	assert.True(t, s.Close())
	assert.False(t, r.Close())

	err := s.Send(2)
	assert.ErrorIs(t, err, ErrDisconnected)

	v, err := r.Recv()
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = r.Recv()
	assert.ErrorIs(t, err, ErrDisconnected)
}

func TestBounded_CloseWakesBlockedReceiver(t *testing.T) {
	s, r := Bounded[int](1)

	g, _ := errgroup.WithContext(context.Background())
	g.Go(func() error {
		_, err := r.Recv()
		return err
	})

	time.Sleep(20 * time.Millisecond)
	s.Close()
	assert.ErrorIs(t, g.Wait(), ErrDisconnected)
}

func TestBounded_MPMC(t *testing.T) {
	const producers, consumers, perProducer = 4, 4, 2000
	s, r := Bounded[int](16)

	var sent, received atomic.Int64
	pg, _ := errgroup.WithContext(context.Background())
	for p := 0; p < producers; p++ {
		base := p * perProducer
		pg.Go(func() error {
			for i := 1; i <= perProducer; i++ {
				if err := s.Send(base + i); err != nil {
					return err
				}
				sent.Add(int64(base + i))
			}
			return nil
		})
	}

	cg, _ := errgroup.WithContext(context.Background())
	for c := 0; c < consumers; c++ {
		cg.Go(func() error {
			for {
				v, err := r.Recv()
				if errors.Is(err, ErrDisconnected) {
					return nil
				}
				if err != nil {
					return err
				}
				received.Add(int64(v))
			}
		})
	}

	require.NoError(t, pg.Wait())
	s.Close()
	require.NoError(t, cg.Wait())
	assert.Equal(t, sent.Load(), received.Load())
}

func TestUnbounded(t *testing.T) {
	s, r := Unbounded[string]()
	assert.Equal(t, Unlimited, r.Cap())

	for _, m := range []string{"a", "b", "c"} {
		require.NoError(t, s.TrySend(m))
	}
	assert.False(t, s.IsFull())
	assert.Equal(t, 3, s.Len())

	g, _ := errgroup.WithContext(context.Background())
	g.Go(func() error {
		time.Sleep(20 * time.Millisecond)
		return s.Send("d")
	})

	for _, want := range []string{"a", "b", "c", "d"} {
		v, err := r.RecvTimeout(time.Second)
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
	require.NoError(t, g.Wait())

	s.Close()
	err := s.Send("e")
	var se *SendError[string]
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "e", se.Msg)
	_, err = r.TryRecv()
	assert.ErrorIs(t, err, ErrDisconnected)
}

func TestZero_Handoff(t *testing.T) {
	s, r := Bounded[int](0)
	assert.Equal(t, 0, s.Cap())

	assert.ErrorIs(t, s.TrySend(1), ErrFull, "no receiver waiting")
	_, err := r.TryRecv()
	assert.ErrorIs(t, err, ErrEmpty)

	g, _ := errgroup.WithContext(context.Background())
	g.Go(func() error { return s.Send(5) })

	v, err := r.RecvTimeout(time.Second)
	require.NoError(t, err)
	assert.Equal(t, 5, v)
	require.NoError(t, g.Wait())

	g.Go(func() error {
		v, err := r.Recv()
		if err == nil && v != 6 {
			return errors.New("unexpected value")
		}
		return err
	})
	require.Eventually(t, func() bool { return s.TrySend(6) == nil }, time.Second, time.Millisecond)
	require.NoError(t, g.Wait())
}

func TestZero_TimeoutAndClose(t *testing.T) {
	s, r := Bounded[int](0)

	assert.ErrorIs(t, s.SendTimeout(1, 20*time.Millisecond), ErrTimeout)
	_, err := r.RecvTimeout(20 * time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)

	g, _ := errgroup.WithContext(context.Background())
	g.Go(func() error { return s.Send(1) })
	time.Sleep(20 * time.Millisecond)
	r.Close()
	assert.ErrorIs(t, g.Wait(), ErrDisconnected)

	_, err = r.Recv()
	assert.ErrorIs(t, err, ErrDisconnected)
}

func TestAfter_DeliversOnce(t *testing.T) {
	r := After(20 * time.Millisecond)
	_, err := r.TryRecv()
	assert.ErrorIs(t, err, ErrEmpty)

	start := time.Now()
	at, err := r.Recv()
	require.NoError(t, err)
	assert.False(t, time.Now().Before(at))
	assert.Less(t, time.Since(start), time.Second)

	_, err = r.RecvTimeout(20 * time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.True(t, r.IsEmpty())
}

func TestTick_Periodic(t *testing.T) {
	r := Tick(10 * time.Millisecond)
	var last time.Time
	for i := 0; i < 3; i++ {
		at, err := r.RecvTimeout(time.Second)
		require.NoError(t, err)
		assert.True(t, at.After(last))
		last = at
	}
}

func TestNever(t *testing.T) {
	r := Never[int]()
	_, err := r.TryRecv()
	assert.ErrorIs(t, err, ErrEmpty)

	start := time.Now()
	_, err = r.RecvTimeout(20 * time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.False(t, r.Close())
}

func TestStats_CountDisconnects(t *testing.T) {
	before := Stats()["disconnects"]
	s, _ := Unbounded[int]()
	s.Close()
	s.Close()
	assert.Equal(t, before+1, Stats()["disconnects"])
}
