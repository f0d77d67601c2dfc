package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestNew_JSONWithServiceField(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Service: "storefront", Level: "debug", Output: &buf})

	log.Debug("hello")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "storefront", entry["service"])
	assert.Equal(t, "hello", entry["msg"])
}

func TestParseLevel_FallsBackToInfo(t *testing.T) {
	assert.Equal(t, logrus.InfoLevel, parseLevel("verbose"))
	assert.Equal(t, logrus.WarnLevel, parseLevel(" warn "))
}

func TestWithContext_AddsFields(t *testing.T) {
	var buf bytes.Buffer
	base := New(Options{Service: "storefront", Output: &buf})

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithSessionID(ctx, "sess-1")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{1},
		SpanID:  trace.SpanID{2},
	})
	ctx = trace.ContextWithSpanContext(ctx, sc)

	WithContext(ctx, base).Info("with fields")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "sess-1", entry["session_id"])
	assert.Equal(t, sc.TraceID().String(), entry["trace_id"])
}
