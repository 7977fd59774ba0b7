package app

import (
	"context"
	"fmt"
	"time"

	"kryreport/internal/agent"
	brcfg "kryreport/internal/config"
	"kryreport/internal/gateway/keruyun"
	"kryreport/internal/gateway/notifier"
	"kryreport/internal/logger"
	"kryreport/internal/pkg/circuit"
	"kryreport/internal/scheduler"
	"kryreport/internal/store"
	"kryreport/internal/store/sqlite"
	consolehttp "kryreport/internal/transport/http/console"
)

type AppBuilder struct {
	cfg *brcfg.Config

	fetcherFn  func(brcfg.KeruyunConfig, brcfg.ShopConfig) (agent.Fetcher, error)
	notifierFn func(brcfg.NotifyConfig) (notifier.TextNotifier, []string)
	storeFn    func(brcfg.StoreConfig) (store.Store, error)
	consoleFn  func(brcfg.AppConfig, consolehttp.AgentController, *consolehttp.Feed) (*consolehttp.Server, error)
}

type AppBuilderOption func(*AppBuilder)

// WithFetcher 替换客如云客户端（测试或回放用）。
func WithFetcher(f agent.Fetcher) AppBuilderOption {
	return func(b *AppBuilder) {
		b.fetcherFn = func(brcfg.KeruyunConfig, brcfg.ShopConfig) (agent.Fetcher, error) { return f, nil }
	}
}

// WithNotifier 替换推送渠道。
func WithNotifier(n notifier.TextNotifier, names ...string) AppBuilderOption {
	return func(b *AppBuilder) {
		b.notifierFn = func(brcfg.NotifyConfig) (notifier.TextNotifier, []string) { return n, names }
	}
}

func NewAppBuilder(cfg *brcfg.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:        cfg,
		fetcherFn:  buildFetcher,
		notifierFn: buildNotifier,
		storeFn:    buildStore,
		consoleFn:  buildConsoleServer,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg
	logger.SetLevel(cfg.App.LogLevel)

	loc, err := cfg.Shop.Location()
	if err != nil {
		return nil, err
	}
	windows, err := scheduler.ParseWindows(cfg.Schedule.FastWindows)
	if err != nil {
		return nil, fmt.Errorf("schedule.fast_windows: %w", err)
	}
	fetcher, err := b.fetcherFn(cfg.Keruyun, cfg.Shop)
	if err != nil {
		return nil, fmt.Errorf("初始化客如云客户端失败: %w", err)
	}
	sink, sinkNames := b.notifierFn(cfg.Notify)
	if len(sinkNames) == 0 {
		logger.Warnf("未启用任何推送渠道，数据变化只会记录在日志与控制台")
	}

	var (
		st    store.Store
		snaps store.SnapshotRepository
	)
	if cfg.Store.Enabled {
		st, err = b.storeFn(cfg.Store)
		if err != nil {
			return nil, fmt.Errorf("打开快照库失败: %w", err)
		}
		snaps = st.Snapshots()
		logger.Infof("✓ 快照库: %s", cfg.Store.Path)
	}

	feed := consolehttp.NewFeed(cfg.App.EventBuffer)
	jitterMin, jitterMax := cfg.Schedule.JitterRange()
	ag, err := agent.New(agent.Options{
		ShopID:    cfg.Shop.ID,
		ShopName:  cfg.Shop.Name,
		Location:  loc,
		Fetcher:   fetcher,
		Notifier:  sink,
		Snapshots: snaps,
		Policy: scheduler.IntervalPolicy{
			Windows:  windows,
			Fast:     cfg.Schedule.FastInterval(),
			Slow:     cfg.Schedule.SlowInterval(),
			Location: loc,
		},
		JitterMin: jitterMin,
		JitterMax: jitterMax,
		OnStatus:  feed.PostStatus,
		OnReport:  feed.PostReport,
	})
	if err != nil {
		closeStore(st)
		return nil, err
	}

	console, err := b.consoleFn(cfg.App, ag, feed)
	if err != nil {
		closeStore(st)
		return nil, err
	}
	logger.SetHook(feed.MirrorLog)

	return &App{
		cfg:     cfg,
		agent:   ag,
		console: console,
		store:   st,
		Summary: newStartupSummary(cfg, loc, sinkNames),
	}, nil
}

func buildFetcher(kc brcfg.KeruyunConfig, shop brcfg.ShopConfig) (agent.Fetcher, error) {
	return keruyun.NewClient(kc, shop)
}

// buildNotifier 组装已启用的渠道；每个渠道可选地套一层熔断器。
func buildNotifier(nc brcfg.NotifyConfig) (notifier.TextNotifier, []string) {
	guard := func(name string, sink notifier.TextNotifier) notifier.TextNotifier {
		if nc.Breaker.Threshold <= 0 {
			return sink
		}
		return notifier.NewGuarded(sink, circuit.NewCircuitBreaker(name, nc.Breaker.Threshold, nc.Breaker.Cooldown()))
	}
	var (
		sinks []notifier.TextNotifier
		names []string
	)
	if nc.Feishu.Enabled {
		fs := notifier.NewFeishu(nc.Feishu.WebhookURL, time.Duration(nc.Feishu.TimeoutSeconds)*time.Second)
		sinks = append(sinks, guard("feishu", fs))
		names = append(names, fs.Name())
	}
	if nc.Telegram.Enabled {
		tg := notifier.NewTelegram(nc.Telegram.BotToken, nc.Telegram.ChatID)
		sinks = append(sinks, guard("telegram", tg))
		names = append(names, tg.Name())
	}
	if len(sinks) == 0 {
		return nil, nil
	}
	return notifier.NewMulti(sinks...), names
}

func buildStore(sc brcfg.StoreConfig) (store.Store, error) {
	return sqlite.NewSqliteStore(sc.Path)
}

func buildConsoleServer(ac brcfg.AppConfig, ag consolehttp.AgentController, feed *consolehttp.Feed) (*consolehttp.Server, error) {
	if ac.HTTPAddr == "" {
		return nil, nil
	}
	return consolehttp.NewServer(consolehttp.ServerConfig{Addr: ac.HTTPAddr, Agent: ag, Feed: feed})
}

func closeStore(st store.Store) {
	if st == nil {
		return
	}
	if err := st.Close(); err != nil {
		logger.Warnf("关闭快照库失败: %v", err)
	}
}
