package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// 中文说明：
// Telegram 通知器：作为飞书之外的可选渠道，推送同一份营业报告。

const (
	telegramAPIBase = "https://api.telegram.org"
	// DefaultTelegramBudget 是一次 SendText 含重试在内的总时限。
	DefaultTelegramBudget = 10 * time.Second
)

type Telegram struct {
	BotToken string
	ChatID   string
	Client   *http.Client
	APIBase  string
	Attempts int
	Budget   time.Duration
}

func NewTelegram(botToken, chatID string) *Telegram {
	return &Telegram{
		BotToken: botToken,
		ChatID:   chatID,
		Client:   &http.Client{Timeout: DefaultFeishuTimeout},
		APIBase:  telegramAPIBase,
		Attempts: 3,
		Budget:   DefaultTelegramBudget,
	}
}

func (t *Telegram) Name() string { return "Telegram" }

// SendText 发送文本消息（带有限次数重试，总时长不超过 Budget，ctx 取消时立即放弃）
func (t *Telegram) SendText(ctx context.Context, text string) error {
	if t.BotToken == "" || t.ChatID == "" {
		return &DeliveryError{Sink: t.Name(), Err: fmt.Errorf("Telegram 配置不完整")}
	}
	base := t.APIBase
	if base == "" {
		base = telegramAPIBase
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", base, t.BotToken)

	// 报告是纯文本，不指定 parse_mode，避免括号等字符被当作 Markdown。
	payload := map[string]any{
		"chat_id": t.ChatID,
		"text":    text,
	}
	body, _ := json.Marshal(payload)

	budget := t.Budget
	if budget <= 0 {
		budget = DefaultTelegramBudget
	}
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	attempts := t.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return &DeliveryError{Sink: t.Name(), Err: ctx.Err()}
			case <-time.After(time.Duration(i) * time.Second):
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return &DeliveryError{Sink: t.Name(), Err: err}
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := t.Client.Do(req)
		if err != nil {
			lastErr = &DeliveryError{Sink: t.Name(), Err: err}
			continue
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode/100 == 2 {
			return nil
		}
		lastErr = &DeliveryError{Sink: t.Name(), StatusCode: resp.StatusCode}
	}
	return lastErr
}
