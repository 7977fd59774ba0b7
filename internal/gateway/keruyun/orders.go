package keruyun

import (
	"context"

	"kryreport/internal/logger"
	"kryreport/internal/trace"

	"go.opentelemetry.io/otel/attribute"
)

// FetchTodayOrders 拉取当前营业日（00:00:00 至现在）的全部堂食订单。
// 页号从 1 开始，pageNum*pageSize >= totalCount 时停止；任意一页失败即整体失败，不做重试。
func (c *Client) FetchTodayOrders(ctx context.Context) (OrderPage, error) {
	ctx, span := trace.StartSpan(ctx, "keruyun.FetchTodayOrders", attribute.String("shop_id", c.shopID))
	defer span.End()

	start, end := BusinessDay(c.nowFn(), c.loc)
	out := OrderPage{StartDate: start, EndDate: end}

	for pageNum := 1; ; pageNum++ {
		page, err := c.queryPage(ctx, NewQueryRequest(start, end, pageNum, c.pageSize))
		if err != nil {
			trace.RecordError(span, err)
			return OrderPage{}, err
		}
		out.Pages = pageNum
		out.TotalCount = page.totalCount
		out.Orders = append(out.Orders, page.orders...)
		logger.Debugf("keruyun 分页 page=%d size=%d got=%d total=%d", pageNum, c.pageSize, len(page.orders), page.totalCount)
		if int64(pageNum)*int64(c.pageSize) >= page.totalCount {
			break
		}
		if len(page.orders) == 0 {
			// totalCount 大于已返回条数但当前页为空，继续翻页只会得到空页。
			logger.Warnf("keruyun 分页提前结束 page=%d total=%d got=%d", pageNum, page.totalCount, len(out.Orders))
			break
		}
	}
	span.SetAttributes(attribute.Int("pages", out.Pages), attribute.Int("orders", len(out.Orders)))
	return out, nil
}
