package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	brcfg "kryreport/internal/config"
	"kryreport/internal/gateway/keruyun"
	"kryreport/internal/gateway/notifier"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticFetcher struct{ page keruyun.OrderPage }

func (s staticFetcher) FetchTodayOrders(context.Context) (keruyun.OrderPage, error) {
	return s.page, nil
}

type chanSink struct{ ch chan string }

func (s chanSink) SendText(_ context.Context, text string) error {
	s.ch <- text
	return nil
}

func testConfig(t *testing.T) *brcfg.Config {
	t.Helper()
	return &brcfg.Config{
		App:  brcfg.AppConfig{LogLevel: "info", Autostart: true, EventBuffer: 20},
		Shop: brcfg.ShopConfig{ID: "810094162", Name: "测试门店", Timezone: "UTC"},
		Keruyun: brcfg.KeruyunConfig{
			BaseURL: keruyun.DefaultBaseURL, AppKey: "ak", Token: "tk",
			Version: keruyun.DefaultVersion, PageSize: 50, TimeoutSeconds: 10,
		},
		Schedule: brcfg.ScheduleConfig{
			FastWindows:         []string{"10:30-14:00", "17:00-23:00"},
			FastIntervalSeconds: 60,
			SlowIntervalSeconds: 180,
		},
		Store: brcfg.StoreConfig{Enabled: true, Path: filepath.Join(t.TempDir(), "kry.db")},
	}
}

func TestApp_RunDeliversFirstReportAndShutsDown(t *testing.T) {
	cfg := testConfig(t)
	pg := keruyun.OrderPage{TotalCount: 1, Orders: []keruyun.Order{{
		OrderType: keruyun.OrderTypeForHere, OrderStatus: keruyun.StatusSettled,
		OrderAmt: int64(1000), OrderReceivedAmt: int64(950),
	}}}
	sink := chanSink{ch: make(chan string, 4)}

	app, err := NewAppBuilder(cfg, WithFetcher(staticFetcher{page: pg}), WithNotifier(sink, "test")).
		Build(context.Background())
	require.NoError(t, err)
	assert.Nil(t, app.console)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- app.Run(ctx) }()

	select {
	case text := <-sink.ch:
		assert.Contains(t, text, "【测试门店】实时营业报告")
		assert.Contains(t, text, "已结账营业额：10.00元")
	case <-time.After(5 * time.Second):
		t.Fatal("no report delivered")
	}

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not shut down")
	}
	assert.False(t, app.Agent().IsRunning())
}

func TestAppBuilder_RejectsBadTimezone(t *testing.T) {
	cfg := testConfig(t)
	cfg.Shop.Timezone = "Mars/Olympus"
	cfg.Store.Enabled = false
	_, err := NewAppBuilder(cfg, WithFetcher(staticFetcher{})).Build(context.Background())
	assert.Error(t, err)
}

func TestBuildNotifier(t *testing.T) {
	sink, names := buildNotifier(brcfg.NotifyConfig{})
	assert.Nil(t, sink)
	assert.Empty(t, names)

	sink, names = buildNotifier(brcfg.NotifyConfig{
		Feishu:   brcfg.FeishuConfig{Enabled: true, WebhookURL: "http://127.0.0.1:1/hook"},
		Telegram: brcfg.TelegramConfig{Enabled: true, BotToken: "t", ChatID: "1"},
		Breaker:  brcfg.BreakerConfig{Threshold: 3, CooldownSeconds: 60},
	})
	require.NotNil(t, sink)
	assert.Equal(t, []string{"飞书", "Telegram"}, names)
	multi, ok := sink.(*notifier.Multi)
	require.True(t, ok)
	assert.Equal(t, 2, multi.Len())
}

func TestStartupSummary_String(t *testing.T) {
	cfg := testConfig(t)
	cfg.Notify.Breaker = brcfg.BreakerConfig{Threshold: 2, CooldownSeconds: 600}
	s := newStartupSummary(cfg, time.UTC, []string{"飞书"}).String()
	assert.Contains(t, s, "测试门店 (810094162)")
	assert.Contains(t, s, "10:30-14:00, 17:00-23:00")
	assert.Contains(t, s, "高峰 1m0s / 其他 3m0s")
	assert.Contains(t, s, "连续失败 2 次后暂停 10m0s")
	assert.Contains(t, s, "(未启用)")
}
