package keruyun

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	brconfig "kryreport/internal/config"
	"kryreport/internal/logger"
	"kryreport/internal/pkg/convert"
	"kryreport/internal/pkg/text"
	"kryreport/internal/trace"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
)

const (
	maxResponseBytes = 8 << 20
	snippetRunes     = 120
)

// Client 封装客如云开放平台订单查询接口。
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	appKey     string
	shopID     string
	token      string
	version    string
	pageSize   int
	loc        *time.Location
	nowFn      func() time.Time
}

// NewClient 根据配置构造客户端。
func NewClient(cfg brconfig.KeruyunConfig, shop brconfig.ShopConfig) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		raw = DefaultBaseURL
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("解析 keruyun.base_url 失败: %w", err)
	}
	shopID := strings.TrimSpace(shop.ID)
	if shopID == "" {
		return nil, fmt.Errorf("shop.id 不能为空")
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	version := strings.TrimSpace(cfg.Version)
	if version == "" {
		version = DefaultVersion
	}
	loc, err := shop.Location()
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: timeout},
		appKey:     strings.TrimSpace(cfg.AppKey),
		shopID:     shopID,
		token:      cfg.Token,
		version:    version,
		pageSize:   pageSize,
		loc:        loc,
		nowFn:      time.Now,
	}, nil
}

// SetHTTPClient sets the HTTP client for testing.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// SetClock 替换时间源，便于测试营业日窗口与时间戳。
func (c *Client) SetClock(fn func() time.Time) {
	if fn != nil {
		c.nowFn = fn
	}
}

// PageSize 返回每页条数。
func (c *Client) PageSize() int { return c.pageSize }

type pageResult struct {
	orders     []Order
	totalCount int64
}

func (c *Client) commonParams(now time.Time) map[string]string {
	return map[string]string{
		"appKey":     c.appKey,
		"shopIdenty": c.shopID,
		"version":    c.version,
		"timestamp":  strconv.FormatInt(now.Unix(), 10),
	}
}

// queryPage 发送一次签名请求并解析单页结果。
func (c *Client) queryPage(ctx context.Context, req QueryRequest) (pageResult, error) {
	ctx, span := trace.StartSpan(ctx, "keruyun.queryPage",
		attribute.Int("page_num", req.PageBean.PageNum),
		attribute.Int("page_size", req.PageBean.PageSize),
	)
	defer span.End()

	body, err := CanonicalBody(req)
	if err != nil {
		return pageResult{}, fmt.Errorf("encode request body: %w", err)
	}
	params := c.commonParams(c.nowFn())
	params["sign"] = Sign(params, body, c.token)

	endpoint := c.baseURL.ResolveReference(&url.URL{Path: queryListPath})
	query := endpoint.Query()
	for k, v := range params {
		query.Set(k, v)
	}
	endpoint.RawQuery = query.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return pageResult{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		trace.RecordError(span, err)
		return pageResult{}, &NetworkError{Op: "queryList", Err: err}
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		trace.RecordError(span, err)
		return pageResult{}, &NetworkError{Op: "queryList", Err: err}
	}
	if resp.StatusCode/100 != 2 {
		err := &NetworkError{Op: "queryList", StatusCode: resp.StatusCode}
		logger.Debugf("keruyun: queryList status=%d body=%s", resp.StatusCode, text.Truncate(string(raw), snippetRunes))
		trace.RecordError(span, err)
		return pageResult{}, err
	}
	page, err := decodePage(raw)
	if err != nil {
		trace.RecordError(span, err)
		return pageResult{}, err
	}
	span.SetAttributes(attribute.Int64("total_count", page.totalCount), attribute.Int("orders", len(page.orders)))
	return page, nil
}

// decodePage 解析响应信封：先判断 code，再校验成功结构。
func decodePage(raw []byte) (pageResult, error) {
	if !gjson.ValidBytes(raw) {
		return pageResult{}, &ParseError{Reason: "响应不是合法 JSON: " + text.Truncate(string(raw), snippetRunes)}
	}
	code := gjson.GetBytes(raw, "code")
	if !code.Exists() {
		return pageResult{}, &ParseError{Reason: "响应缺少 code"}
	}
	codeVal, ok := convert.ToInt64(code.Value())
	if !ok {
		return pageResult{}, &ParseError{Reason: "code 不是整数: " + text.Truncate(code.Raw, snippetRunes)}
	}
	if codeVal != 0 {
		return pageResult{}, &APIError{Code: codeVal, Message: gjson.GetBytes(raw, "message").String()}
	}
	if err := validateResponse(raw); err != nil {
		return pageResult{}, &ParseError{Reason: "响应结构不符合预期", Err: err}
	}

	data := gjson.GetBytes(raw, "result.data")
	total, ok := convert.ToInt64(data.Get("totalCount").Value())
	if !ok || total < 0 {
		return pageResult{}, &ParseError{Reason: "totalCount 无效: " + text.Truncate(data.Get("totalCount").Raw, snippetRunes)}
	}
	var orders []Order
	dec := json.NewDecoder(strings.NewReader(data.Get("list").Raw))
	dec.UseNumber()
	if err := dec.Decode(&orders); err != nil {
		return pageResult{}, &ParseError{Reason: "订单列表解码失败", Err: err}
	}
	return pageResult{orders: orders, totalCount: total}, nil
}

// IsNetworkError reports whether err is (or wraps) a NetworkError.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
