package trace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

func TestInit_DisabledIsNoop(t *testing.T) {
	shutdown, err := Init(false, "")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_WritesSpansToFile(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	path := filepath.Join(t.TempDir(), "traces", "spans.json")
	shutdown, err := Init(true, path)
	require.NoError(t, err)

	_, span := StartSpan(context.Background(), "agent.cycle", attribute.String("cycle_id", "c1"))
	RecordError(span, errors.New("boom"))
	span.End()
	require.NoError(t, shutdown(context.Background()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "agent.cycle")
	assert.Contains(t, string(raw), "boom")
}
