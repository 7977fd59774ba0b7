package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

// 中文说明：
// 飞书自定义机器人：营业数据变化时推送文本报告。

const DefaultFeishuTimeout = 5 * time.Second

type Feishu struct {
	WebhookURL string
	Client     *http.Client
}

func NewFeishu(webhookURL string, timeout time.Duration) *Feishu {
	if timeout <= 0 {
		timeout = DefaultFeishuTimeout
	}
	return &Feishu{WebhookURL: webhookURL, Client: &http.Client{Timeout: timeout}}
}

func (f *Feishu) Name() string { return "飞书" }

type feishuText struct {
	Text string `json:"text"`
}

type feishuMessage struct {
	MsgType string     `json:"msg_type"`
	Content feishuText `json:"content"`
}

// SendText 发送一条文本消息，不重试；失败由下一次数据变化时再推送。
func (f *Feishu) SendText(ctx context.Context, text string) error {
	if f.WebhookURL == "" {
		return &DeliveryError{Sink: f.Name(), Err: fmt.Errorf("webhook_url 未配置")}
	}
	body, err := json.Marshal(feishuMessage{MsgType: "text", Content: feishuText{Text: text}})
	if err != nil {
		return &DeliveryError{Sink: f.Name(), Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return &DeliveryError{Sink: f.Name(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := f.Client.Do(req)
	if err != nil {
		return &DeliveryError{Sink: f.Name(), Err: err}
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode/100 != 2 {
		return &DeliveryError{Sink: f.Name(), StatusCode: resp.StatusCode}
	}
	// 飞书在 HTTP 200 下也可能用 code/msg 表示失败（如签名校验、频率限制）。
	if code := gjson.GetBytes(raw, "code"); code.Exists() && code.Int() != 0 {
		return &DeliveryError{Sink: f.Name(), Err: fmt.Errorf("code=%d msg=%s", code.Int(), gjson.GetBytes(raw, "msg").String())}
	}
	return nil
}
