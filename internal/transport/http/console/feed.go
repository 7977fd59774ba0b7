package consolehttp

import (
	"log/slog"
	"sync"
	"time"

	"kryreport/internal/agent"
	"kryreport/internal/report"
)

// LogLine 是日志钩子镜像的一行。
type LogLine struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

// Feed 接收 agent 从后台 goroutine 投递的状态事件与报告，供 HTTP 读取。
type Feed struct {
	events *Ring[agent.StatusEvent]
	logs   *Ring[LogLine]

	mu       sync.RWMutex
	report   *report.Report
	versions int64
	nowFn    func() time.Time
}

func NewFeed(capacity int) *Feed {
	return &Feed{
		events: NewRing[agent.StatusEvent](capacity),
		logs:   NewRing[LogLine](capacity),
		nowFn:  time.Now,
	}
}

// PostStatus 满足 agent.Options.OnStatus。
func (f *Feed) PostStatus(ev agent.StatusEvent) { f.events.Add(ev) }

// PostReport 满足 agent.Options.OnReport。
func (f *Feed) PostReport(rep report.Report) {
	f.mu.Lock()
	f.report = &rep
	f.versions++
	f.mu.Unlock()
}

// MirrorLog 满足 logger.Hook。
func (f *Feed) MirrorLog(level slog.Level, msg string) {
	f.logs.Add(LogLine{Time: f.nowFn(), Level: level.String(), Message: msg})
}

func (f *Feed) Events(limit int) []agent.StatusEvent { return f.events.Recent(limit) }

func (f *Feed) Logs(limit int) []LogLine { return f.logs.Recent(limit) }

// Report 返回最近一次推送的报告与累计变化次数。
func (f *Feed) Report() (report.Report, int64, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.report == nil {
		return report.Report{}, f.versions, false
	}
	return *f.report, f.versions, true
}
