// Package logger configures logrus and carries request-scoped log fields.
package logger

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

type Options struct {
	Service string
	Level   string
	Format  string
	Output  io.Writer
}

func New(opts Options) *logrus.Entry {
	l := logrus.New()
	l.SetLevel(parseLevel(opts.Level))
	if opts.Output != nil {
		l.SetOutput(opts.Output)
	} else {
		l.SetOutput(os.Stdout)
	}
	if strings.EqualFold(opts.Format, "text") {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	return l.WithField("service", opts.Service)
}

func parseLevel(lvl string) logrus.Level {
	level, err := logrus.ParseLevel(strings.TrimSpace(lvl))
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

type ctxKey int

const (
	requestIDKey ctxKey = iota
	sessionIDKey
)

func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func ContextWithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey).(string)
	return id
}

// WithContext decorates base with request id, session id and trace ids found in ctx.
func WithContext(ctx context.Context, base *logrus.Entry) *logrus.Entry {
	fields := logrus.Fields{}
	if id := RequestID(ctx); id != "" {
		fields["request_id"] = id
	}
	if id := SessionID(ctx); id != "" {
		fields["session_id"] = id
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields["trace_id"] = sc.TraceID().String()
		fields["span_id"] = sc.SpanID().String()
	}
	if len(fields) == 0 {
		return base.WithContext(ctx)
	}
	return base.WithContext(ctx).WithFields(fields)
}

// Discard is a logger for tests.
func Discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}
