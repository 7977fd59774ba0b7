package notifier

import (
	"errors"
	"fmt"
)

// ErrCircuitOpen 表示该推送渠道处于熔断期，本次未实际发送。
var ErrCircuitOpen = errors.New("circuit open")

// DeliveryError 表示推送失败，不影响本地快照与展示。
type DeliveryError struct {
	Sink       string
	StatusCode int
	Err        error
}

func (e *DeliveryError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s 发送失败: status=%d: %v", e.Sink, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s 发送失败: status=%d", e.Sink, e.StatusCode)
	default:
		return fmt.Sprintf("%s 发送失败: %v", e.Sink, e.Err)
	}
}

func (e *DeliveryError) Unwrap() error { return e.Err }
