package scheduler

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime/debug"
	"time"

	"kryreport/internal/logger"
)

// Task 是一次轮询；返回的错误只影响本轮，循环继续。
type Task func(ctx context.Context) error

// FaultError 表示调度逻辑自身失败，循环已退出，需要 stop 再 start 才能恢复。
type FaultError struct {
	Cause any
	Stack []byte
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("scheduler faulted: %v", e.Cause)
}

// AdaptiveScheduler 先立即执行一轮，之后按时段选择间隔重复执行；
// 每轮请求前追加一次随机抖动。ctx 取消后在下一个检查点退出。
type AdaptiveScheduler struct {
	Name      string
	Policy    IntervalPolicy
	JitterMin time.Duration
	JitterMax time.Duration

	// OnNext 在每次进入间隔等待前收到下一轮的预计开始时间。
	OnNext func(next time.Time)
	// OnCycleError 收到单轮失败（含被恢复的 panic）。
	OnCycleError func(err error)

	nowFn  func() time.Time
	randFn func(n int64) int64
	waitFn func(ctx context.Context, d time.Duration) bool
}

func NewAdaptiveScheduler(name string, policy IntervalPolicy, jitterMin, jitterMax time.Duration) *AdaptiveScheduler {
	return &AdaptiveScheduler{
		Name:      name,
		Policy:    policy,
		JitterMin: jitterMin,
		JitterMax: jitterMax,
		nowFn:     time.Now,
		randFn:    rand.Int64N,
		waitFn:    sleepCtx,
	}
}

// SetClock 替换时间源（测试用）。
func (s *AdaptiveScheduler) SetClock(fn func() time.Time) { s.nowFn = fn }

// SetRand 替换抖动随机源，fn(n) 需返回 [0,n) 内的值（测试用）。
func (s *AdaptiveScheduler) SetRand(fn func(n int64) int64) { s.randFn = fn }

// SetWait 替换等待实现，返回 false 表示 ctx 已取消（测试用）。
func (s *AdaptiveScheduler) SetWait(fn func(ctx context.Context, d time.Duration) bool) {
	s.waitFn = fn
}

// Run 阻塞运行，直到 ctx 取消（返回 nil）或调度逻辑出错（返回 *FaultError）。
func (s *AdaptiveScheduler) Run(ctx context.Context, task Task) (err error) {
	if task == nil {
		return fmt.Errorf("%s: task is nil", s.prefix())
	}
	s.ensureDefaults()
	defer func() {
		if r := recover(); r != nil {
			err = &FaultError{Cause: r, Stack: debug.Stack()}
			logger.Errorf("%s: 调度异常退出: %v", s.prefix(), r)
		}
	}()

	startAt := s.nowFn()
	logger.Infof("%s: started fast=%s slow=%s windows=%v jitter=[%s,%s] at=%s",
		s.prefix(), s.Policy.Fast, s.Policy.Slow, s.Policy.Windows, s.JitterMin, s.JitterMax,
		startAt.Format(time.RFC3339))

	if !s.cycle(ctx, task) {
		return nil
	}
	for {
		if ctx.Err() != nil {
			return nil
		}
		now := s.nowFn()
		interval := s.Policy.IntervalAt(now)
		if interval <= 0 {
			panic(fmt.Sprintf("non-positive interval %s at %s", interval, now.Format(clockLayout)))
		}
		next := now.Add(interval)
		if s.OnNext != nil {
			s.OnNext(next)
		}
		logger.Debugf("%s: 下次刷新=%s (in %s) | uptime=%s",
			s.prefix(), next.Format(time.DateTime), interval, now.Sub(startAt).Truncate(time.Second))
		if !s.waitFn(ctx, interval) {
			logger.Infof("%s: ctx done, exit", s.prefix())
			return nil
		}
		if !s.cycle(ctx, task) {
			return nil
		}
	}
}

// cycle 先等待抖动再执行任务；ctx 已取消时返回 false 且不执行任务。
func (s *AdaptiveScheduler) cycle(ctx context.Context, task Task) bool {
	if ctx.Err() != nil {
		return false
	}
	if !s.waitFn(ctx, s.Jitter()) {
		logger.Infof("%s: ctx done, exit", s.prefix())
		return false
	}
	if err := s.runTask(ctx, task); err != nil && s.OnCycleError != nil {
		s.OnCycleError(err)
	}
	return true
}

func (s *AdaptiveScheduler) runTask(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("%s: task panic: %v\n%s", s.prefix(), r, debug.Stack())
			err = fmt.Errorf("task panic: %v", r)
		}
	}()
	return task(ctx)
}

// Jitter 返回 [JitterMin, JitterMax] 内均匀分布的抖动时长。
func (s *AdaptiveScheduler) Jitter() time.Duration {
	s.ensureDefaults()
	lo, hi := s.JitterMin, s.JitterMax
	if lo < 0 {
		lo = 0
	}
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(s.randFn(int64(hi-lo)+1))
}

func (s *AdaptiveScheduler) ensureDefaults() {
	if s.nowFn == nil {
		s.nowFn = time.Now
	}
	if s.randFn == nil {
		s.randFn = rand.Int64N
	}
	if s.waitFn == nil {
		s.waitFn = sleepCtx
	}
}

func (s *AdaptiveScheduler) prefix() string {
	if s.Name == "" {
		return "AdaptiveScheduler"
	}
	return "AdaptiveScheduler[" + s.Name + "]"
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
