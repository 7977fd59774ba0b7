package keruyun

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	brconfig "kryreport/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "test-token"

var fixedNow = time.Date(2026, 10, 16, 12, 30, 0, 0, time.UTC)

func newTestClient(t *testing.T, srv *httptest.Server, pageSize int) *Client {
	t.Helper()
	c, err := NewClient(brconfig.KeruyunConfig{
		BaseURL:  srv.URL,
		AppKey:   "ak",
		Token:    testToken,
		PageSize: pageSize,
	}, brconfig.ShopConfig{ID: "810000001", Timezone: "UTC"})
	require.NoError(t, err)
	c.SetClock(func() time.Time { return fixedNow })
	return c
}

// orderServer 模拟分页接口，并校验签名与查询参数。
func orderServer(t *testing.T, total int, calls *int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, queryListPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		q := r.URL.Query()
		params := map[string]string{
			"appKey":     q.Get("appKey"),
			"shopIdenty": q.Get("shopIdenty"),
			"version":    q.Get("version"),
			"timestamp":  q.Get("timestamp"),
		}
		assert.Equal(t, "810000001", params["shopIdenty"])
		assert.Equal(t, "2.0", params["version"])
		assert.Equal(t, fmt.Sprint(fixedNow.Unix()), params["timestamp"])
		assert.Equal(t, Sign(params, body, testToken), q.Get("sign"))

		var req QueryRequest
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "2026-10-16 00:00:00", req.StartDate)
		assert.Equal(t, "2026-10-16 12:30:00", req.EndDate)

		from := (req.PageBean.PageNum - 1) * req.PageBean.PageSize
		to := from + req.PageBean.PageSize
		if to > total {
			to = total
		}
		list := make([]map[string]any, 0)
		for i := from; i < to; i++ {
			list = append(list, map[string]any{
				"orderId":          i,
				"orderType":        OrderTypeForHere,
				"orderStatus":      StatusSettled,
				"orderAmt":         100,
				"orderReceivedAmt": 90,
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code":    0,
			"message": "成功",
			"result":  map[string]any{"data": map[string]any{"list": list, "totalCount": total}},
		})
	}))
}

func TestFetchTodayOrders_Pagination(t *testing.T) {
	cases := []struct {
		total, size, wantCalls int
	}{
		{0, 50, 1},
		{1, 50, 1},
		{50, 50, 1},
		{51, 50, 2},
		{120, 50, 3},
		{7, 3, 3},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("total=%d size=%d", tc.total, tc.size), func(t *testing.T) {
			var calls int32
			srv := orderServer(t, tc.total, &calls)
			defer srv.Close()

			page, err := newTestClient(t, srv, tc.size).FetchTodayOrders(t.Context())
			require.NoError(t, err)
			assert.EqualValues(t, tc.wantCalls, atomic.LoadInt32(&calls))
			assert.Equal(t, tc.wantCalls, page.Pages)
			assert.Len(t, page.Orders, tc.total)
			assert.EqualValues(t, tc.total, page.TotalCount)
			for _, o := range page.Orders {
				assert.Equal(t, json.Number("100"), o.OrderAmt)
			}
		})
	}
}

func TestFetchTodayOrders_StopsOnEmptyPage(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, `{"code":0,"result":{"data":{"list":[],"totalCount":500}}}`)
	}))
	defer srv.Close()

	page, err := newTestClient(t, srv, 50).FetchTodayOrders(t.Context())
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	assert.Empty(t, page.Orders)
}

func respond(status int, body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
}

func TestFetchTodayOrders_Errors(t *testing.T) {
	t.Run("api error", func(t *testing.T) {
		srv := respond(http.StatusOK, `{"code":1001,"message":"签名错误"}`)
		defer srv.Close()
		_, err := newTestClient(t, srv, 50).FetchTodayOrders(t.Context())
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.EqualValues(t, 1001, apiErr.Code)
		assert.Equal(t, "签名错误", apiErr.Message)
	})

	t.Run("http status", func(t *testing.T) {
		srv := respond(http.StatusBadGateway, "bad gateway")
		defer srv.Close()
		_, err := newTestClient(t, srv, 50).FetchTodayOrders(t.Context())
		var netErr *NetworkError
		require.ErrorAs(t, err, &netErr)
		assert.Equal(t, http.StatusBadGateway, netErr.StatusCode)
		assert.True(t, IsNetworkError(err))
	})

	t.Run("connection refused", func(t *testing.T) {
		srv := respond(http.StatusOK, "{}")
		c := newTestClient(t, srv, 50)
		srv.Close()
		_, err := c.FetchTodayOrders(t.Context())
		var netErr *NetworkError
		require.ErrorAs(t, err, &netErr)
		assert.Zero(t, netErr.StatusCode)
	})

	t.Run("timeout", func(t *testing.T) {
		block := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-block
		}))
		defer srv.Close()
		defer close(block)
		c := newTestClient(t, srv, 50)
		c.SetHTTPClient(&http.Client{Timeout: 50 * time.Millisecond})
		_, err := c.FetchTodayOrders(t.Context())
		assert.True(t, IsNetworkError(err))
	})

	parseCases := map[string]string{
		"not json":          `<html>oops</html>`,
		"missing code":      `{"result":{}}`,
		"missing data":      `{"code":0,"result":{}}`,
		"list not array":    `{"code":0,"result":{"data":{"list":{},"totalCount":1}}}`,
		"bad total":         `{"code":0,"result":{"data":{"list":[],"totalCount":"many"}}}`,
		"order type number": `{"code":0,"result":{"data":{"list":[{"orderType":5}],"totalCount":1}}}`,
	}
	for name, body := range parseCases {
		t.Run(name, func(t *testing.T) {
			srv := respond(http.StatusOK, body)
			defer srv.Close()
			_, err := newTestClient(t, srv, 50).FetchTodayOrders(t.Context())
			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
		})
	}
}

func TestDecodePage_StringTotalCount(t *testing.T) {
	page, err := decodePage([]byte(`{"code":0,"result":{"data":{"list":[{"orderType":"FOR_HERE","orderStatus":"SETTLED","orderAmt":"12"}],"totalCount":"1"}}}`))
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.totalCount)
	require.Len(t, page.orders, 1)
	assert.Equal(t, "12", page.orders[0].OrderAmt)
	assert.Nil(t, page.orders[0].OrderReceivedAmt)
}

// 部分网关把 code 以字符串返回，字符串与数字同等对待。
func TestDecodePage_StringCode(t *testing.T) {
	page, err := decodePage([]byte(`{"code":"0","result":{"data":{"list":[],"totalCount":0}}}`))
	require.NoError(t, err)
	assert.Zero(t, page.totalCount)

	_, err = decodePage([]byte(`{"code":"1001","message":"签名错误"}`))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.EqualValues(t, 1001, apiErr.Code)

	_, err = decodePage([]byte(`{"code":"ok","result":{}}`))
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestBusinessDay(t *testing.T) {
	cst := time.FixedZone("CST", 8*3600)
	start, end := BusinessDay(time.Date(2026, 10, 16, 20, 0, 0, 0, time.UTC), cst)
	assert.Equal(t, "2026-10-17 00:00:00", start)
	assert.Equal(t, "2026-10-17 04:00:00", end)
}
