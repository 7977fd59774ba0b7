package agent

import (
	"context"
	"fmt"
	"time"

	"kryreport/internal/logger"
	"kryreport/internal/report"
	"kryreport/internal/store"
	"kryreport/internal/trace"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const businessDateLayout = "2006-01-02"

// runCycle 执行一轮：拉取 → 汇总 → 变化检测 → 推送。
// 拉取与推送失败在本轮内上报，不向调度器返回错误。
func (a *Agent) runCycle(ctx context.Context, gen uint64) error {
	cycleID := uuid.NewString()
	ctx, span := trace.StartSpan(ctx, "agent.cycle",
		attribute.String("cycle.id", cycleID),
		attribute.String("shop.id", a.opts.ShopID),
	)
	defer span.End()

	// 请求一旦发出就让它在自身超时内完成，停止信号只在轮次边界生效。
	callCtx := context.WithoutCancel(ctx)

	a.emit(SeverityInfo, "开始获取数据...", cycleID)
	page, err := a.opts.Fetcher.FetchTodayOrders(callCtx)
	if ctx.Err() != nil {
		logger.Infof("agent: 已停止，丢弃本轮结果 cycle=%s err=%v", cycleID, err)
		return nil
	}
	now := a.opts.Now()
	a.markPolled(gen, now)
	if err != nil {
		trace.RecordError(span, err)
		a.setLastError(gen, err)
		a.emit(SeverityError, fmt.Sprintf("获取数据失败：%v", err), cycleID)
		return nil
	}
	a.setLastError(gen, nil)

	rep, st := report.Build(a.opts.ShopName, now.In(a.opts.Location), page)
	logger.Debugf("agent: 汇总完成 cycle=%s total=%d fetched=%d dine_in=%d other_type=%d other_status=%d invalid_amounts=%d",
		cycleID, page.TotalCount, len(page.Orders), st.DineIn, st.OtherType, st.OtherStatus, st.InvalidAmounts)
	span.SetAttributes(
		attribute.Int64("orders.total", page.TotalCount),
		attribute.Int("orders.fetched", len(page.Orders)),
	)

	changed, current := a.commit(gen, rep)
	if !current {
		return nil
	}
	span.SetAttributes(attribute.Bool("report.changed", changed))
	if !changed {
		a.emit(SeverityInfo, "数据无更新", cycleID)
		return nil
	}

	a.emit(SeverityInfo, fmt.Sprintf("数据已更新：总单数=%d 已结账营业额=%s 未结账=%d单",
		rep.Snapshot.TotalOrders, rep.Snapshot.SettledTurnover.StringFixed(2), rep.Snapshot.UnsettledCount), cycleID)
	if a.opts.OnReport != nil {
		a.opts.OnReport(rep)
	}
	a.persistSnapshot(callCtx, now, rep.Snapshot)

	if a.opts.Notifier == nil {
		return nil
	}
	if err := a.opts.Notifier.SendText(callCtx, rep.Text); err != nil {
		trace.RecordError(span, err)
		a.emit(SeverityWarn, fmt.Sprintf("推送失败：%v", err), cycleID)
		return nil
	}
	a.emit(SeverityInfo, "推送成功", cycleID)
	return nil
}

// commit 在快照变化时记录为“上次已推送”，推送是否成功都不回滚。
// 第二个返回值为 false 表示本轮属于已停止的旧循环，结果被丢弃。
func (a *Agent) commit(gen uint64, rep report.Report) (changed, current bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.gen != gen || a.State() != StateRunning {
		return false, false
	}
	if !report.HasChanged(a.lastSnapshot, rep.Snapshot) {
		return false, true
	}
	snap := rep.Snapshot
	a.lastSnapshot = &snap
	a.latest = &rep
	return true, true
}

func (a *Agent) markPolled(gen uint64, at time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.gen != gen {
		return
	}
	a.lastPollAt = at
	a.cycles++
}

func (a *Agent) businessDate(at time.Time) string {
	return at.In(a.opts.Location).Format(businessDateLayout)
}

func (a *Agent) persistSnapshot(ctx context.Context, at time.Time, snap report.Snapshot) {
	if a.opts.Snapshots == nil {
		return
	}
	m, err := store.EncodeSnapshot(a.opts.ShopID, a.businessDate(at), snap)
	if err == nil {
		err = a.opts.Snapshots.Save(ctx, m)
	}
	if err != nil {
		logger.Warnf("agent: 保存快照失败 shop=%s: %v", a.opts.ShopID, err)
	}
}

// restoreSnapshot 仅在内存中没有快照时，从存储恢复同一营业日的快照。
func (a *Agent) restoreSnapshot(ctx context.Context, gen uint64) {
	if a.opts.Snapshots == nil {
		return
	}
	a.mu.Lock()
	has := a.lastSnapshot != nil
	a.mu.Unlock()
	if has {
		return
	}
	m, err := a.opts.Snapshots.FindByShop(ctx, a.opts.ShopID)
	if err != nil {
		logger.Warnf("agent: 读取快照失败 shop=%s: %v", a.opts.ShopID, err)
		return
	}
	if m == nil {
		return
	}
	rec, err := store.DecodeSnapshot(m)
	if err != nil {
		logger.Warnf("agent: %v", err)
		return
	}
	today := a.businessDate(a.opts.Now())
	if rec.BusinessDate != today {
		logger.Infof("agent: 已存快照属于 %s，今日 %s，不恢复", rec.BusinessDate, today)
		return
	}
	a.mu.Lock()
	if a.gen == gen && a.lastSnapshot == nil {
		snap := rec.Snapshot
		a.lastSnapshot = &snap
	}
	a.mu.Unlock()
	logger.Infof("agent: 已恢复今日快照 shop=%s updated_at=%s", rec.ShopID, rec.UpdatedAt.Format(time.DateTime))
}
