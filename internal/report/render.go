package report

import (
	"fmt"
	"strings"
	"time"
)

const timeLayout = "2006-01-02 15:04:05"

// Render 生成推送文本，金额保留两位小数。
func Render(shopName string, at time.Time, s Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "【%s】实时营业报告\n", shopName)
	fmt.Fprintf(&b, "更新时间: %s\n\n", at.Format(timeLayout))
	fmt.Fprintf(&b, "今日截止当前订单总数（堂食）：%d单\n", s.TotalOrders)
	fmt.Fprintf(&b, "已结账营业额：%s元\n", s.SettledTurnover.StringFixed(2))
	fmt.Fprintf(&b, "已结账营业收入：%s元\n", s.SettledIncome.StringFixed(2))
	fmt.Fprintf(&b, "未结账订单数：%d单\n", s.UnsettledCount)
	fmt.Fprintf(&b, "未结账收入：%s元\n", s.UnsettledIncome.StringFixed(2))
	return b.String()
}
