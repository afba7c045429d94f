package trace

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabled(t *testing.T) {
	require.NoError(t, Init(Options{Enabled: false}))
	assert.False(t, Enabled())

	ctx, span := StartSpan(context.Background(), "noop")
	span.End()
	_, _, ok := GetTraceFields(ctx)
	assert.False(t, ok)
	assert.NoError(t, Shutdown(context.Background()))
}

func TestEnabledExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Options{
		Enabled:     true,
		ServiceName: "stockpulse-test",
		Writer:      &buf,
		Sync:        true,
	}))
	assert.True(t, Enabled())

	ctx, span := StartSpan(context.Background(), "watchlist.refresh")
	span.SetAttributes(Symbol("AAPL"))
	RecordError(span, errors.New("boom"))
	RecordError(span, nil)
	traceID, spanID, ok := GetTraceFields(ctx)
	assert.True(t, ok)
	assert.Len(t, traceID, 32)
	assert.Len(t, spanID, 16)
	span.End()

	require.NoError(t, Shutdown(context.Background()))
	assert.False(t, Enabled())

	out := buf.String()
	assert.Contains(t, out, "watchlist.refresh")
	assert.Contains(t, out, "stock.symbol")
	assert.Contains(t, out, "stockpulse-test")
	assert.Contains(t, out, "boom")
}
