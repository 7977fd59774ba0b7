package notifier

import "context"

// TextNotifier defines a minimal text notification interface.
// It is intentionally small so the agent can depend on it without
// importing concrete sinks (Feishu, Telegram).
type TextNotifier interface {
	SendText(ctx context.Context, text string) error
}

// Named is implemented by sinks that can identify themselves in logs.
type Named interface {
	Name() string
}

func nameOf(n TextNotifier) string {
	if named, ok := n.(Named); ok {
		return named.Name()
	}
	return "notifier"
}
