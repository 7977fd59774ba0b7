package app

import (
	"fmt"
	"strings"
	"time"

	brcfg "kryreport/internal/config"
)

type StartupSummary struct {
	ShopID       string
	ShopName     string
	Timezone     string
	BaseURL      string
	PageSize     int
	FastWindows  []string
	FastInterval time.Duration
	SlowInterval time.Duration
	JitterMin    time.Duration
	JitterMax    time.Duration
	Sinks        []string
	Breaker      string
	Store        string
	HTTPAddr     string
	Autostart    bool
}

func newStartupSummary(cfg *brcfg.Config, loc *time.Location, sinks []string) *StartupSummary {
	jmin, jmax := cfg.Schedule.JitterRange()
	s := &StartupSummary{
		ShopID:       cfg.Shop.ID,
		ShopName:     cfg.Shop.Name,
		Timezone:     loc.String(),
		BaseURL:      cfg.Keruyun.BaseURL,
		PageSize:     cfg.Keruyun.PageSize,
		FastWindows:  append([]string(nil), cfg.Schedule.FastWindows...),
		FastInterval: cfg.Schedule.FastInterval(),
		SlowInterval: cfg.Schedule.SlowInterval(),
		JitterMin:    jmin,
		JitterMax:    jmax,
		Sinks:        append([]string(nil), sinks...),
		Breaker:      "关闭",
		Store:        "关闭",
		HTTPAddr:     cfg.App.HTTPAddr,
		Autostart:    cfg.App.Autostart,
	}
	if cfg.Notify.Breaker.Threshold > 0 {
		s.Breaker = fmt.Sprintf("连续失败 %d 次后暂停 %s", cfg.Notify.Breaker.Threshold, cfg.Notify.Breaker.Cooldown())
	}
	if cfg.Store.Enabled {
		s.Store = cfg.Store.Path
	}
	return s
}

func (s *StartupSummary) String() string {
	var b strings.Builder
	b.WriteString(strings.Repeat("=", 60) + "\n")
	b.WriteString("启动配置摘要 (STARTUP SUMMARY)\n")
	b.WriteString(strings.Repeat("=", 60) + "\n")

	b.WriteString("[门店 (SHOP)]\n")
	fmt.Fprintf(&b, "  名称: %s (%s)\n", s.ShopName, s.ShopID)
	fmt.Fprintf(&b, "  时区: %s\n", s.Timezone)
	fmt.Fprintf(&b, "  接口: %s (page_size=%d)\n", s.BaseURL, s.PageSize)
	b.WriteString("\n")

	b.WriteString("[轮询 (SCHEDULE)]\n")
	fmt.Fprintf(&b, "  高峰时段: %s\n", formatList(s.FastWindows))
	fmt.Fprintf(&b, "  间隔: 高峰 %s / 其他 %s\n", s.FastInterval, s.SlowInterval)
	fmt.Fprintf(&b, "  抖动: %s ~ %s\n", s.JitterMin, s.JitterMax)
	b.WriteString("\n")

	b.WriteString("[推送 (NOTIFY)]\n")
	fmt.Fprintf(&b, "  渠道: %s\n", formatList(s.Sinks))
	fmt.Fprintf(&b, "  熔断: %s\n", s.Breaker)
	fmt.Fprintf(&b, "  快照库: %s\n", s.Store)
	b.WriteString("\n")

	b.WriteString("[控制台 (CONSOLE)]\n")
	addr := s.HTTPAddr
	if addr == "" {
		addr = "(未启用)"
	}
	fmt.Fprintf(&b, "  地址: %s\n", addr)
	fmt.Fprintf(&b, "  自动开始: %t\n", s.Autostart)
	b.WriteString(strings.Repeat("=", 60) + "\n")
	return b.String()
}

func (s *StartupSummary) Print() {
	fmt.Print(s.String())
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "(无)"
	}
	return strings.Join(items, ", ")
}
