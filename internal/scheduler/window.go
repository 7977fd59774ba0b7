package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const clockLayout = "15:04"

// Window 是一天中的一个时段，按 "HH:MM" 字符串比较，两端均包含。
// Start 晚于 End 时表示跨零点，例如 22:00-02:00。
type Window struct {
	Start string
	End   string
}

func (w Window) String() string { return w.Start + "-" + w.End }

// Contains 判断 "HH:MM" 是否落在时段内。
func (w Window) Contains(clock string) bool {
	if w.Start <= w.End {
		return w.Start <= clock && clock <= w.End
	}
	return clock >= w.Start || clock <= w.End
}

// ParseClock 校验并规范化 "H:MM" / "HH:MM"。
func ParseClock(s string) (string, error) {
	s = strings.TrimSpace(s)
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return "", fmt.Errorf("invalid clock %q, want HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return "", fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 || len(mm) != 2 {
		return "", fmt.Errorf("invalid minute in %q", s)
	}
	return fmt.Sprintf("%02d:%02d", h, m), nil
}

// ParseWindow 解析 "HH:MM-HH:MM"。
func ParseWindow(s string) (Window, error) {
	start, end, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return Window{}, fmt.Errorf("invalid window %q, want HH:MM-HH:MM", s)
	}
	var (
		w   Window
		err error
	)
	if w.Start, err = ParseClock(start); err != nil {
		return Window{}, err
	}
	if w.End, err = ParseClock(end); err != nil {
		return Window{}, err
	}
	return w, nil
}

func ParseWindows(items []string) ([]Window, error) {
	out := make([]Window, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item) == "" {
			continue
		}
		w, err := ParseWindow(item)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

// IntervalPolicy 根据时刻选择轮询间隔：落在任一高峰时段用 Fast，否则用 Slow。
type IntervalPolicy struct {
	Windows  []Window
	Fast     time.Duration
	Slow     time.Duration
	Location *time.Location
}

// InFastWindow 判断 t 是否处于高峰时段。
func (p IntervalPolicy) InFastWindow(t time.Time) bool {
	if p.Location != nil {
		t = t.In(p.Location)
	}
	clock := t.Format(clockLayout)
	for _, w := range p.Windows {
		if w.Contains(clock) {
			return true
		}
	}
	return false
}

func (p IntervalPolicy) IntervalAt(t time.Time) time.Duration {
	if p.InFastWindow(t) {
		return p.Fast
	}
	return p.Slow
}
