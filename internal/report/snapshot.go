// Package report 将订单汇总为营业快照并渲染推送文本。
package report

import (
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot 是一次轮询得到的五项营业数据，五项全部相等即视为“无更新”。
type Snapshot struct {
	TotalOrders     int64           `json:"total_orders" yaml:"total_orders"`
	SettledTurnover decimal.Decimal `json:"settled_turnover" yaml:"settled_turnover"`
	SettledIncome   decimal.Decimal `json:"settled_income" yaml:"settled_income"`
	UnsettledCount  int             `json:"unsettled_count" yaml:"unsettled_count"`
	UnsettledIncome decimal.Decimal `json:"unsettled_income" yaml:"unsettled_income"`
}

// Equal 按数值比较金额（30 与 30.00 相等）。
func (s Snapshot) Equal(o Snapshot) bool {
	return s.TotalOrders == o.TotalOrders &&
		s.UnsettledCount == o.UnsettledCount &&
		s.SettledTurnover.Equal(o.SettledTurnover) &&
		s.SettledIncome.Equal(o.SettledIncome) &&
		s.UnsettledIncome.Equal(o.UnsettledIncome)
}

// HasChanged 判断是否需要推送：没有上一份快照时总是返回 true。
func HasChanged(prev *Snapshot, next Snapshot) bool {
	if prev == nil {
		return true
	}
	return !prev.Equal(next)
}

// Report 是单轮生成的报告，下一轮即被替换。
type Report struct {
	ShopName    string    `json:"shop_name" yaml:"shop_name"`
	Text        string    `json:"text" yaml:"text"`
	Snapshot    Snapshot  `json:"snapshot" yaml:"snapshot"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
}
