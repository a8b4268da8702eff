package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
)

func newBufferLogger(level slog.Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(Config{Level: level, Component: ComponentFinance, Output: &buf}), &buf
}

func TestLogger_Component(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)

	logger.Info("transaction recorded", FieldTxID, "tx_1")
	logger.WithComponent(ComponentStorage).Warn("slow query")
	logger.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "component=finance") || !strings.Contains(out, "transaction_id=tx_1") {
		t.Errorf("missing finance record fields: %q", out)
	}
	if !strings.Contains(out, "component=storage") {
		t.Errorf("WithComponent not applied: %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug record written at info level: %q", out)
	}
}

func TestRequestIDContext(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)
	ctx := context.WithValue(context.Background(), LoggerContextKey, logger)
	ctx = WithRequestID(ctx, "req_abc")

	if RequestID(ctx) != "req_abc" {
		t.Fatalf("RequestID() = %q", RequestID(ctx))
	}
	FromContext(ctx).InfoContext(ctx, "hello")
	if !strings.Contains(buf.String(), "request_id=req_abc") {
		t.Errorf("request id not attached: %q", buf.String())
	}
	if RequestID(context.Background()) != "" {
		t.Error("expected empty request id on bare context")
	}
}

func TestStructuredLogger(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)
	sl := NewStructuredLogger(logger)
	req := httptest.NewRequest("GET", "/api/budget?year=2024", nil)

	sl.LogHTTPEnd(context.Background(), req, 404, 12, "10.0.0.1")
	sl.LogError(context.Background(), "save failed", errors.New("disk full"), ErrorTypeDatabase, OpUpdate, nil)

	out := buf.String()
	for _, want := range []string{"level=WARN", "status_code=404", "component=http", "error=\"disk full\"", "error_type=database_error"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %q", want, out)
		}
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().WithImport(3, 2, 1).WithError(nil).WithMonth(2024, 5)
	if f[FieldAdded] != 2 || f[FieldSkipped] != 1 || f[FieldYear] != 2024 {
		t.Fatalf("unexpected fields %v", f)
	}
	if _, ok := f[FieldError]; ok {
		t.Fatal("nil error should not add a field")
	}
	if len(f.ToSlice()) != 2*len(f) {
		t.Fatal("ToSlice length mismatch")
	}
}
