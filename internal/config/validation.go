package config

import (
	"fmt"
	"net/url"
	"strings"

	"kryreport/internal/scheduler"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.Shop.validate(); err != nil {
		return err
	}
	if err := c.Keruyun.validate(); err != nil {
		return err
	}
	if err := c.Schedule.validate(); err != nil {
		return err
	}
	if err := c.Notify.validate(); err != nil {
		return err
	}
	if c.Store.Enabled && strings.TrimSpace(c.Store.Path) == "" {
		return fmt.Errorf("store.path cannot be empty when store is enabled")
	}
	if c.App.EventBuffer <= 0 {
		return fmt.Errorf("app.event_buffer must be > 0")
	}
	return nil
}

func (s *ShopConfig) validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("shop.id cannot be empty")
	}
	if _, err := s.Location(); err != nil {
		return err
	}
	return nil
}

func (k *KeruyunConfig) validate() error {
	if strings.TrimSpace(k.AppKey) == "" {
		return fmt.Errorf("keruyun.app_key cannot be empty")
	}
	if strings.TrimSpace(k.Token) == "" {
		return fmt.Errorf("keruyun.token cannot be empty")
	}
	if _, err := url.ParseRequestURI(strings.TrimSpace(k.BaseURL)); err != nil {
		return fmt.Errorf("keruyun.base_url invalid: %w", err)
	}
	if k.PageSize <= 0 {
		return fmt.Errorf("keruyun.page_size must be > 0")
	}
	if k.TimeoutSeconds <= 0 {
		return fmt.Errorf("keruyun.timeout_seconds must be > 0")
	}
	return nil
}

func (s *ScheduleConfig) validate() error {
	if _, err := scheduler.ParseWindows(s.FastWindows); err != nil {
		return fmt.Errorf("schedule.fast_windows: %w", err)
	}
	if s.FastIntervalSeconds <= 0 || s.SlowIntervalSeconds <= 0 {
		return fmt.Errorf("schedule intervals must be > 0")
	}
	if s.JitterMinSeconds < 0 || s.JitterMaxSeconds < s.JitterMinSeconds {
		return fmt.Errorf("schedule jitter must satisfy 0 <= jitter_min_seconds <= jitter_max_seconds")
	}
	return nil
}

func (n *NotifyConfig) validate() error {
	if n.Feishu.Enabled {
		if strings.TrimSpace(n.Feishu.WebhookURL) == "" {
			return fmt.Errorf("feishu notification enabled but missing webhook_url")
		}
		if _, err := url.ParseRequestURI(n.Feishu.WebhookURL); err != nil {
			return fmt.Errorf("notify.feishu.webhook_url invalid: %w", err)
		}
	}
	if n.Telegram.Enabled {
		if n.Telegram.BotToken == "" || n.Telegram.ChatID == "" {
			return fmt.Errorf("telegram notification enabled but missing bot_token or chat_id")
		}
	}
	if n.Breaker.Threshold < 0 {
		return fmt.Errorf("notify.breaker.threshold must be >= 0")
	}
	return nil
}
