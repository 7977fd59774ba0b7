package config

import (
	"fmt"
	"strings"
	"time"
)

// Config 是 kryreport 的主配置载体，启动时加载一次。
type Config struct {
	App      AppConfig      `toml:"app"`
	Shop     ShopConfig     `toml:"shop"`
	Keruyun  KeruyunConfig  `toml:"keruyun"`
	Schedule ScheduleConfig `toml:"schedule"`
	Notify   NotifyConfig   `toml:"notify"`
	Store    StoreConfig    `toml:"store"`
	Trace    TraceConfig    `toml:"trace"`
}

type AppConfig struct {
	Env         string `toml:"env"`
	LogLevel    string `toml:"log_level"`
	HTTPAddr    string `toml:"http_addr"`
	LogPath     string `toml:"log_path"`
	Autostart   bool   `toml:"autostart"`
	EventBuffer int    `toml:"event_buffer"`
}

// ShopConfig 描述门店标识与营业时区。
type ShopConfig struct {
	ID       string `toml:"id"`
	Name     string `toml:"name"`
	Timezone string `toml:"timezone"` // 空或 "Local" 表示本机时区
}

// Location 返回营业时区。客如云的日期参数按该时区解释（未经官方确认，默认与本机一致）。
func (s ShopConfig) Location() (*time.Location, error) {
	tz := strings.TrimSpace(s.Timezone)
	if tz == "" || strings.EqualFold(tz, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("shop.timezone 无效 (%s): %w", tz, err)
	}
	return loc, nil
}

// KeruyunConfig 描述客如云开放平台的访问方式。
type KeruyunConfig struct {
	BaseURL        string `toml:"base_url"`
	AppKey         string `toml:"app_key"`
	Token          string `toml:"token"`
	Version        string `toml:"version"`
	PageSize       int    `toml:"page_size"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// ScheduleConfig 控制轮询节奏：高峰时段快轮询，其余时间慢轮询，每轮请求前随机抖动。
type ScheduleConfig struct {
	FastWindows         []string `toml:"fast_windows"` // "HH:MM-HH:MM"，闭区间
	FastIntervalSeconds int      `toml:"fast_interval_seconds"`
	SlowIntervalSeconds int      `toml:"slow_interval_seconds"`
	JitterMinSeconds    int      `toml:"jitter_min_seconds"`
	JitterMaxSeconds    int      `toml:"jitter_max_seconds"`
}

func (s ScheduleConfig) FastInterval() time.Duration {
	return time.Duration(s.FastIntervalSeconds) * time.Second
}

func (s ScheduleConfig) SlowInterval() time.Duration {
	return time.Duration(s.SlowIntervalSeconds) * time.Second
}

func (s ScheduleConfig) JitterRange() (time.Duration, time.Duration) {
	return time.Duration(s.JitterMinSeconds) * time.Second, time.Duration(s.JitterMaxSeconds) * time.Second
}

type NotifyConfig struct {
	Feishu   FeishuConfig   `toml:"feishu"`
	Telegram TelegramConfig `toml:"telegram"`
	Breaker  BreakerConfig  `toml:"breaker"`
}

type FeishuConfig struct {
	Enabled        bool   `toml:"enabled"`
	WebhookURL     string `toml:"webhook_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type TelegramConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
}

// BreakerConfig 控制推送熔断；Threshold<=0 表示关闭。
type BreakerConfig struct {
	Threshold       int `toml:"threshold"`
	CooldownSeconds int `toml:"cooldown_seconds"`
}

func (b BreakerConfig) Cooldown() time.Duration {
	return time.Duration(b.CooldownSeconds) * time.Second
}

// StoreConfig 控制“最近一次已推送快照”的持久化，用于重启后避免重复推送。
type StoreConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type TraceConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"` // 为空时输出到 stdout
}

type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault 描述单个字段的默认值设置规则。
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
