package report

import (
	"time"

	"kryreport/internal/gateway/keruyun"
	"kryreport/internal/pkg/convert"

	"github.com/shopspring/decimal"
)

// Stats 记录汇总过程中被跳过或容错处理的数据，仅用于日志。
type Stats struct {
	DineIn         int
	OtherType      int
	OtherStatus    int
	InvalidAmounts int
}

// Aggregate 计算五项营业数据。
// totalOrders 直接取接口返回的 totalCount；金额为分，缺失或非数字按 0 计。
// 多页拉取期间订单状态可能变化，结果是尽力而为的时点快照。
func Aggregate(orders []keruyun.Order, totalCount int64) (Snapshot, Stats) {
	snap := Snapshot{
		TotalOrders:     totalCount,
		SettledTurnover: decimal.Zero,
		SettledIncome:   decimal.Zero,
		UnsettledIncome: decimal.Zero,
	}
	var st Stats
	amount := func(v any) decimal.Decimal {
		d, ok := convert.ToDecimal(v)
		if !ok {
			st.InvalidAmounts++
			return decimal.Zero
		}
		return d.Shift(-2)
	}
	for _, o := range orders {
		if o.OrderType != keruyun.OrderTypeForHere {
			st.OtherType++
			continue
		}
		st.DineIn++
		switch o.OrderStatus {
		case keruyun.StatusSettled:
			snap.SettledTurnover = snap.SettledTurnover.Add(amount(o.OrderAmt))
			snap.SettledIncome = snap.SettledIncome.Add(amount(o.OrderReceivedAmt))
		case keruyun.StatusWaitSettled:
			snap.UnsettledCount++
			snap.UnsettledIncome = snap.UnsettledIncome.Add(amount(o.OrderAmt))
		default:
			st.OtherStatus++
		}
	}
	return snap, st
}

// Build 汇总订单并生成报告文本。
func Build(shopName string, at time.Time, page keruyun.OrderPage) (Report, Stats) {
	snap, st := Aggregate(page.Orders, page.TotalCount)
	return Report{
		ShopName:    shopName,
		Text:        Render(shopName, at, snap),
		Snapshot:    snap,
		GeneratedAt: at,
	}, st
}
