package notifier

import (
	"context"
	"errors"

	"kryreport/internal/logger"
	"kryreport/internal/pkg/circuit"
	"kryreport/internal/trace"

	"go.opentelemetry.io/otel/attribute"
)

// Multi 依次推送到所有渠道，单个渠道失败不影响其余渠道。
type Multi struct {
	sinks []TextNotifier
}

func NewMulti(sinks ...TextNotifier) *Multi {
	out := make([]TextNotifier, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return &Multi{sinks: out}
}

func (m *Multi) Len() int { return len(m.sinks) }

// SendText 返回所有失败渠道的 errors.Join；全部成功返回 nil。
func (m *Multi) SendText(ctx context.Context, text string) error {
	var errs []error
	for _, s := range m.sinks {
		sctx, span := trace.StartSpan(ctx, "notifier.send", attribute.String("sink", nameOf(s)))
		err := s.SendText(sctx, text)
		if err != nil {
			trace.RecordError(span, err)
			errs = append(errs, err)
		} else {
			logger.Infof("已发送到%s", nameOf(s))
		}
		span.End()
	}
	return errors.Join(errs...)
}

// Guarded 用熔断器包装一个渠道：连续失败达到阈值后在冷却期内直接跳过。
type Guarded struct {
	sink    TextNotifier
	breaker *circuit.CircuitBreaker
}

func NewGuarded(sink TextNotifier, breaker *circuit.CircuitBreaker) TextNotifier {
	if breaker == nil {
		return sink
	}
	return &Guarded{sink: sink, breaker: breaker}
}

func (g *Guarded) Name() string { return nameOf(g.sink) }

func (g *Guarded) SendText(ctx context.Context, text string) error {
	if !g.breaker.Allow() {
		return &DeliveryError{Sink: g.Name(), Err: ErrCircuitOpen}
	}
	if err := g.sink.SendText(ctx, text); err != nil {
		g.breaker.RecordFailure()
		return err
	}
	g.breaker.RecordSuccess()
	return nil
}
