package keruyun

import "time"

const (
	OrderTypeForHere  = "FOR_HERE"
	StatusWaitSettled = "WAIT_SETTLED"
	StatusSettled     = "SETTLED"

	dateTypeOpenTime = "OPEN_TIME"
	dateLayout       = "2006-01-02 15:04:05"
	dayStartLayout   = "2006-01-02 00:00:00"

	DefaultBaseURL  = "https://openapi.keruyun.com"
	DefaultVersion  = "2.0"
	DefaultPageSize = 50
	DefaultTimeout  = 10 * time.Second

	queryListPath = "/open/standard/order/queryList"
)

// Order 是订单列表中的一条记录，只读。
// 金额字段保持原始 JSON 值（json.Number / string / nil），由汇总层容错转换。
type Order struct {
	OrderType        string `json:"orderType"`
	OrderStatus      string `json:"orderStatus"`
	OrderAmt         any    `json:"orderAmt"`
	OrderReceivedAmt any    `json:"orderReceivedAmt"`
}

// PageBean 的字段顺序参与签名，不可调整。
type PageBean struct {
	PageNum  int `json:"pageNum"`
	PageSize int `json:"pageSize"`
}

// QueryRequest 是 queryList 的请求体，字段顺序参与签名。
type QueryRequest struct {
	DateType        string   `json:"dateType"`
	StartDate       string   `json:"startDate"`
	EndDate         string   `json:"endDate"`
	OrderTypeList   []string `json:"orderTypeList"`
	OrderStatusList []string `json:"orderStatusList"`
	PageBean        PageBean `json:"pageBean"`
}

// OrderPage 汇总了某个营业日窗口内全部分页的结果。
type OrderPage struct {
	Orders     []Order
	TotalCount int64
	Pages      int
	StartDate  string
	EndDate    string
}

// NewQueryRequest 构造当日堂食（未结账 + 已结账）订单的分页查询。
func NewQueryRequest(start, end string, pageNum, pageSize int) QueryRequest {
	return QueryRequest{
		DateType:        dateTypeOpenTime,
		StartDate:       start,
		EndDate:         end,
		OrderTypeList:   []string{OrderTypeForHere},
		OrderStatusList: []string{StatusWaitSettled, StatusSettled},
		PageBean:        PageBean{PageNum: pageNum, PageSize: pageSize},
	}
}

// BusinessDay 返回 now 所在营业日的起止时间字符串（00:00:00 至当前时刻），按 loc 解释。
func BusinessDay(now time.Time, loc *time.Location) (start, end string) {
	if loc != nil {
		now = now.In(loc)
	}
	return now.Format(dayStartLayout), now.Format(dateLayout)
}
