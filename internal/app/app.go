package app

import (
	"context"
	"fmt"
	"time"

	"kryreport/internal/agent"
	brcfg "kryreport/internal/config"
	"kryreport/internal/logger"
	"kryreport/internal/store"
	consolehttp "kryreport/internal/transport/http/console"

	"golang.org/x/sync/errgroup"
)

// shutdownGrace 覆盖一次进行中的拉取与推送超时。
const shutdownGrace = 20 * time.Second

// App 负责应用级编排：加载配置→初始化依赖→启动监控与控制台。
type App struct {
	cfg     *brcfg.Config
	agent   *agent.Agent
	console *consolehttp.Server
	store   store.Store
	Summary *StartupSummary
}

// NewApp 根据配置构建应用对象（不启动）
func NewApp(cfg *brcfg.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

// Run 启动控制台与（可选）自动开始监控，直到 ctx 取消后优雅退出。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	if a.agent == nil {
		return fmt.Errorf("agent not initialized")
	}
	if a.Summary != nil {
		a.Summary.Print()
	}

	group, ctx := errgroup.WithContext(ctx)
	if a.console != nil {
		group.Go(func() error {
			if err := a.console.Start(ctx); err != nil {
				return fmt.Errorf("console http server error: %w", err)
			}
			return nil
		})
	}
	if a.cfg.App.Autostart {
		a.agent.Start()
	} else {
		logger.Infof("autostart 已关闭，请通过 POST /api/agent/start 启动监控")
	}

	group.Go(func() error {
		<-ctx.Done()
		logger.Infof("App: 开始优雅关闭...")
		shCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := a.agent.Shutdown(shCtx); err != nil {
			logger.Warnf("App: 等待监控退出超时: %v", err)
		}
		a.Close()
		logger.Infof("App: ✓ 优雅关闭完成")
		return nil
	})

	return group.Wait()
}

// Agent exposes the underlying agent (for tests and embedding shells).
func (a *App) Agent() *agent.Agent {
	if a == nil {
		return nil
	}
	return a.agent
}

func (a *App) Close() {
	if a == nil {
		return
	}
	logger.SetHook(nil)
	closeStore(a.store)
	a.store = nil
}
