package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"esales-dashboard/internal/config"
)

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, config.LoggerConfig{Level: "info", Format: "json"})
	logger.Debug("hidden")
	logger.Info("snapshot loaded", "records", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "snapshot loaded", entry["msg"])
	assert.EqualValues(t, 3, entry["records"])

	buf.Reset()
	logger = newLogger(&buf, config.LoggerConfig{Level: "debug", Format: "text"})
	logger.Debug("visible")
	assert.Contains(t, buf.String(), "msg=visible")
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLogLevel(in), in)
	}
}

func TestLoggerFromRequestID(t *testing.T) {
	var buf bytes.Buffer
	base := newLogger(&buf, config.LoggerConfig{Level: "info", Format: "json"})

	ctx := WithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", GetRequestID(ctx))
	LoggerFrom(ctx, base).Info("hello")
	assert.Contains(t, buf.String(), `"request_id":"req-1"`)

	assert.Same(t, base, LoggerFrom(context.Background(), base))
}

func TestLoggerFromTraceID(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())

	ctx, span := tp.Tracer("test").Start(context.Background(), "load")
	defer span.End()

	var buf bytes.Buffer
	LoggerFrom(ctx, newLogger(&buf, config.LoggerConfig{Level: "info", Format: "json"})).Info("hello")
	assert.Contains(t, buf.String(), `"trace_id":"`+span.SpanContext().TraceID().String()+`"`)
	assert.NotContains(t, buf.String(), "request_id")
}

func TestInitTracingDisabled(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := InitTracing(config.TelemetryConfig{}, &buf, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	ctx, span := StartSpan(context.Background(), "noop")
	SetError(span, errors.New("ignored"))
	span.End()
	assert.Empty(t, TraceID(ctx))
	assert.NoError(t, shutdown(context.Background()))
}

func TestMetricsObserve(t *testing.T) {
	m := NewMetrics()
	m.ObserveRequest("GET", "GET /api/kpis", 200, 5*time.Millisecond)
	m.ObserveLoad(42, time.Second, nil)
	m.ObserveLoad(0, 0, errors.New("boom"))

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	found := map[string]float64{}
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				found[f.GetName()] += metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				found[f.GetName()] = metric.GetGauge().GetValue()
			}
		}
	}
	assert.Equal(t, 1.0, found["esales_http_requests_total"])
	assert.Equal(t, 2.0, found["esales_snapshot_loads_total"])
	assert.Equal(t, 42.0, found["esales_snapshot_records"])
}
