package keruyun

import (
	"fmt"
)

// NetworkError 表示传输层失败（超时、连接被拒）或非 2xx 的 HTTP 状态。
type NetworkError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("keruyun %s: http status=%d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("keruyun %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError 表示响应信封中的 code 非 0，Message 为客如云返回的原始说明。
type APIError struct {
	Code    int64
	Message string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "未知错误"
	}
	return fmt.Sprintf("API返回错误(code=%d)：%s", e.Code, msg)
}

// ParseError 表示响应体无法解析为预期结构。
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("数据解析失败：%s: %v", e.Reason, e.Err)
	}
	return "数据解析失败：" + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }
