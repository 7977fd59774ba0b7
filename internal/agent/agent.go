// Package agent 把拉取、汇总、变化检测与推送串成一个可启停的后台轮询任务。
package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"kryreport/internal/gateway/keruyun"
	"kryreport/internal/gateway/notifier"
	"kryreport/internal/logger"
	"kryreport/internal/report"
	"kryreport/internal/scheduler"
	"kryreport/internal/store"
)

type State int32

const (
	StateIdle State = iota
	StateRunning
	StateFaulted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}

type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// StatusEvent 是状态回调收到的一条记录。
type StatusEvent struct {
	Time     time.Time `json:"time"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
	CycleID  string    `json:"cycle_id,omitempty"`
}

// Fetcher 拉取当天全部订单，*keruyun.Client 即为实现。
type Fetcher interface {
	FetchTodayOrders(ctx context.Context) (keruyun.OrderPage, error)
}

type Options struct {
	ShopID   string
	ShopName string
	Location *time.Location

	Fetcher  Fetcher
	Notifier notifier.TextNotifier
	// Snapshots 可选；为空时不做跨进程恢复。
	Snapshots store.SnapshotRepository

	Policy    scheduler.IntervalPolicy
	JitterMin time.Duration
	JitterMax time.Duration

	// OnStatus 在启停、每次轮询、成功与失败时调用，可能来自后台 goroutine。
	OnStatus func(StatusEvent)
	// OnReport 仅在快照发生变化时调用，可能来自后台 goroutine。
	OnReport func(report.Report)

	// 以下用于测试注入；为空时使用真实实现。
	Now  func() time.Time
	Rand func(n int64) int64
	Wait func(ctx context.Context, d time.Duration) bool
}

type Agent struct {
	opts  Options
	state atomic.Int32

	mu           sync.Mutex
	gen          uint64
	cancel       context.CancelFunc
	done         chan struct{}
	lastSnapshot *report.Snapshot
	latest       *report.Report
	lastPollAt   time.Time
	nextPollAt   time.Time
	lastErr      string
	cycles       int64
}

func New(opts Options) (*Agent, error) {
	if opts.Fetcher == nil {
		return nil, errors.New("agent: fetcher is required")
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Policy.Location == nil {
		opts.Policy.Location = opts.Location
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	done := make(chan struct{})
	close(done)
	return &Agent{opts: opts, done: done}, nil
}

func (a *Agent) State() State { return State(a.state.Load()) }

func (a *Agent) IsRunning() bool { return a.State() == StateRunning }

// Start 仅在 Idle 时启动后台循环并返回 true；Running 或 Faulted 时为空操作。
func (a *Agent) Start() bool {
	a.mu.Lock()
	if a.State() != StateIdle {
		a.mu.Unlock()
		return false
	}
	a.gen++
	gen := a.gen
	ctx, cancel := context.WithCancel(context.Background())
	prev := a.done
	done := make(chan struct{})
	a.cancel = cancel
	a.done = done
	a.lastErr = ""
	a.nextPollAt = time.Time{}
	a.state.Store(int32(StateRunning))
	a.mu.Unlock()

	a.emit(SeverityInfo, fmt.Sprintf("监控已启动，门店：%s", a.opts.ShopName), "")
	go a.loop(ctx, gen, prev, done)
	return true
}

// Stop 将 Running 或 Faulted 置回 Idle 并返回 true。后台循环在下一个检查点退出；
// 进行中的 HTTP 请求不会被打断，最多等待其超时，其结果被丢弃。
func (a *Agent) Stop() bool {
	a.mu.Lock()
	if a.State() == StateIdle {
		a.mu.Unlock()
		return false
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.nextPollAt = time.Time{}
	a.state.Store(int32(StateIdle))
	a.mu.Unlock()

	a.emit(SeverityInfo, "监控已停止", "")
	return true
}

// Done 返回当前（或最近一次）后台循环的退出信号；从未启动时已关闭。
func (a *Agent) Done() <-chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.done
}

// Shutdown 停止并等待后台循环退出，或 ctx 到期。
func (a *Agent) Shutdown(ctx context.Context) error {
	a.Stop()
	select {
	case <-a.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Latest 返回最近一次发生变化的报告。
func (a *Agent) Latest() (report.Report, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.latest == nil {
		return report.Report{}, false
	}
	return *a.latest, true
}

type Status struct {
	State      string     `json:"state"`
	Running    bool       `json:"running"`
	ShopID     string     `json:"shop_id"`
	ShopName   string     `json:"shop_name"`
	LastPollAt *time.Time `json:"last_poll_at,omitempty"`
	NextPollAt *time.Time `json:"next_poll_at,omitempty"`
	LastError  string     `json:"last_error,omitempty"`
	Cycles     int64      `json:"cycles"`
}

func (a *Agent) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	st := a.State()
	out := Status{
		State:     st.String(),
		Running:   st == StateRunning,
		ShopID:    a.opts.ShopID,
		ShopName:  a.opts.ShopName,
		LastError: a.lastErr,
		Cycles:    a.cycles,
	}
	if !a.lastPollAt.IsZero() {
		t := a.lastPollAt
		out.LastPollAt = &t
	}
	if !a.nextPollAt.IsZero() {
		t := a.nextPollAt
		out.NextPollAt = &t
	}
	return out
}

// loop 先等上一代循环退出：其进行中的请求不会被取消，两代之间不能并发拉取。
func (a *Agent) loop(ctx context.Context, gen uint64, prev <-chan struct{}, done chan struct{}) {
	defer close(done)
	<-prev
	if ctx.Err() != nil {
		return
	}
	a.restoreSnapshot(ctx, gen)

	sched := a.newScheduler(gen)
	err := sched.Run(ctx, func(cctx context.Context) error {
		return a.runCycle(cctx, gen)
	})
	if err == nil {
		logger.Debugf("agent: 后台循环退出 gen=%d", gen)
		return
	}

	a.mu.Lock()
	current := a.gen == gen && a.State() == StateRunning
	if current {
		a.state.Store(int32(StateFaulted))
		a.lastErr = err.Error()
		a.nextPollAt = time.Time{}
	}
	a.mu.Unlock()
	if !current {
		return
	}
	var fault *scheduler.FaultError
	if errors.As(err, &fault) {
		a.emit(SeverityError, fmt.Sprintf("调度异常，监控已中止（请先停止再启动）：%v", fault.Cause), "")
		return
	}
	a.emit(SeverityError, fmt.Sprintf("监控已中止（请先停止再启动）：%v", err), "")
}

func (a *Agent) newScheduler(gen uint64) *scheduler.AdaptiveScheduler {
	s := scheduler.NewAdaptiveScheduler(a.opts.ShopID, a.opts.Policy, a.opts.JitterMin, a.opts.JitterMax)
	s.SetClock(a.opts.Now)
	if a.opts.Rand != nil {
		s.SetRand(a.opts.Rand)
	}
	if a.opts.Wait != nil {
		s.SetWait(a.opts.Wait)
	}
	s.OnNext = func(next time.Time) {
		a.mu.Lock()
		if a.gen == gen && a.State() == StateRunning {
			a.nextPollAt = next
		}
		a.mu.Unlock()
		logger.Infof("下次刷新：%s", next.In(a.opts.Location).Format(time.DateTime))
	}
	s.OnCycleError = func(err error) {
		a.setLastError(gen, err)
		a.emit(SeverityError, fmt.Sprintf("本轮执行异常：%v", err), "")
	}
	return s
}

func (a *Agent) emit(sev Severity, msg, cycleID string) {
	ev := StatusEvent{Time: a.opts.Now(), Severity: sev, Message: msg, CycleID: cycleID}
	switch sev {
	case SeverityError:
		logger.Errorf("%s", msg)
	case SeverityWarn:
		logger.Warnf("%s", msg)
	default:
		logger.Infof("%s", msg)
	}
	if a.opts.OnStatus != nil {
		a.opts.OnStatus(ev)
	}
}

func (a *Agent) setLastError(gen uint64, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.gen != gen {
		return
	}
	if err == nil {
		a.lastErr = ""
		return
	}
	a.lastErr = err.Error()
}
