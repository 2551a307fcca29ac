// Package audit records the notable events of a conformance run as JSON lines.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"qazna.org/bankmbt/internal/obs"
)

type ctxKey string

const (
	runIDKey ctxKey = "audit_run_id"
	traceKey ctxKey = "audit_trace"
)

// WithRunID attaches the run identifier to the context for audit logging.
func WithRunID(ctx context.Context, runID string) context.Context {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, runID)
}

// WithTrace attaches the trace file being replayed.
func WithTrace(ctx context.Context, path string) context.Context {
	if path == "" {
		return ctx
	}
	return context.WithValue(ctx, traceKey, path)
}

func RunIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, runIDKey)
}

func stringFromContext(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// LogEvent writes an audit log entry enriched with run and trace context.
func LogEvent(ctx context.Context, event string, fields map[string]any) error {
	event = strings.TrimSpace(event)
	if event == "" {
		return errors.New("event name is required")
	}
	entry := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
		"type":  "audit",
		"event": event,
	}
	if rid := RunIDFromContext(ctx); rid != "" {
		entry["run_id"] = rid
	}
	if trace := stringFromContext(ctx, traceKey); trace != "" {
		entry["trace"] = trace
	}
	copyFields := make(map[string]any, len(fields))
	for k, v := range fields {
		copyFields[k] = v
	}
	entry["fields"] = copyFields

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	obs.Logger().Println(string(data))
	return nil
}
