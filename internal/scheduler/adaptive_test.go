package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock 的 wait 不真正休眠，只推进时间并记录时长。
type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	waits []time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Wait(ctx context.Context, d time.Duration) bool {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.waits = append(c.waits, d)
	c.mu.Unlock()
	return ctx.Err() == nil
}

func newTestScheduler(t *testing.T, clock *fakeClock) *AdaptiveScheduler {
	s := NewAdaptiveScheduler("test", defaultPolicy(t), 2*time.Second, 6*time.Second)
	s.SetClock(clock.Now)
	s.SetWait(clock.Wait)
	s.SetRand(func(n int64) int64 { return 0 })
	return s
}

func TestAdaptiveScheduler_RunsImmediatelyThenByInterval(t *testing.T) {
	clock := &fakeClock{now: at("09:00:00")}
	s := newTestScheduler(t, clock)
	var nexts []time.Time
	s.OnNext = func(next time.Time) { nexts = append(nexts, next) }

	ctx, cancel := context.WithCancel(context.Background())
	runs := 0
	err := s.Run(ctx, func(context.Context) error {
		runs++
		if runs == 3 {
			cancel()
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, runs)
	// jitter, slow interval, jitter, slow interval, jitter
	assert.Equal(t, []time.Duration{
		2 * time.Second, 3 * time.Minute, 2 * time.Second, 3 * time.Minute, 2 * time.Second,
	}, clock.waits)
	require.Len(t, nexts, 2)
	assert.Equal(t, at("09:03:02"), nexts[0])
}

func TestAdaptiveScheduler_FastWindowInterval(t *testing.T) {
	clock := &fakeClock{now: at("11:00:00")}
	s := newTestScheduler(t, clock)
	ctx, cancel := context.WithCancel(context.Background())
	runs := 0
	require.NoError(t, s.Run(ctx, func(context.Context) error {
		runs++
		if runs == 2 {
			cancel()
		}
		return nil
	}))
	assert.Equal(t, time.Minute, clock.waits[1])
}

func TestAdaptiveScheduler_CycleErrorIsNotFatal(t *testing.T) {
	clock := &fakeClock{now: at("09:00:00")}
	s := newTestScheduler(t, clock)
	var reported []error
	s.OnCycleError = func(err error) { reported = append(reported, err) }

	ctx, cancel := context.WithCancel(context.Background())
	runs := 0
	err := s.Run(ctx, func(context.Context) error {
		runs++
		switch runs {
		case 1:
			return errors.New("api code=1")
		case 2:
			panic("boom")
		default:
			cancel()
			return nil
		}
	})
	require.NoError(t, err)
	assert.Equal(t, 3, runs)
	require.Len(t, reported, 2)
	assert.Contains(t, reported[1].Error(), "boom")
}

func TestAdaptiveScheduler_SchedulingPanicFaults(t *testing.T) {
	clock := &fakeClock{now: at("09:00:00")}
	s := newTestScheduler(t, clock)
	s.Policy.Slow = 0

	err := s.Run(context.Background(), func(context.Context) error { return nil })
	var fault *FaultError
	require.ErrorAs(t, err, &fault)
}

func TestAdaptiveScheduler_CancelledDuringWaitSkipsCycle(t *testing.T) {
	s := NewAdaptiveScheduler("cancel", defaultPolicy(t), 0, 0)
	s.Policy.Slow = time.Hour
	s.Policy.Fast = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	runs := make(chan struct{}, 4)
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, func(context.Context) error {
			runs <- struct{}{}
			return nil
		})
	}()

	<-runs
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not exit after cancel")
	}
	assert.Len(t, runs, 0)
}

func TestAdaptiveScheduler_JitterRange(t *testing.T) {
	s := NewAdaptiveScheduler("jitter", IntervalPolicy{}, 2*time.Second, 6*time.Second)
	for i := 0; i < 200; i++ {
		j := s.Jitter()
		assert.GreaterOrEqual(t, j, 2*time.Second)
		assert.LessOrEqual(t, j, 6*time.Second)
	}
	s.SetRand(func(n int64) int64 { return n - 1 })
	assert.Equal(t, 6*time.Second, s.Jitter())

	fixed := NewAdaptiveScheduler("fixed", IntervalPolicy{}, 3*time.Second, 3*time.Second)
	assert.Equal(t, 3*time.Second, fixed.Jitter())
}
