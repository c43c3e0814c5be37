package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) err = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoggerJSONIncludesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentScheduler, Output: &buf})

	logger.InfoContext(context.Background(), "Recurrence run finished", "posted", 3)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if rec[FieldComponent] != ComponentScheduler {
		t.Errorf("component = %v", rec[FieldComponent])
	}
	if rec["posted"] != float64(3) {
		t.Errorf("posted = %v", rec["posted"])
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Output: &buf})

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info record should be filtered at warn level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("warn record missing")
	}
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf}).With(FieldRequestID, "req-1")

	ctx := NewContext(context.Background(), logger)
	FromContext(ctx).Info("hello")

	if !strings.Contains(buf.String(), "request_id=req-1") {
		t.Errorf("request id missing from %q", buf.String())
	}
	if FromContext(context.Background()) == nil {
		t.Error("FromContext should fall back to the default logger")
	}
}

func TestFields(t *testing.T) {
	f := NewFields().WithOwner(7).WithError(errors.New("boom")).WithRequestID("")
	if f[FieldOwnerID] != int64(7) {
		t.Errorf("owner = %v", f[FieldOwnerID])
	}
	if f[FieldError] != "boom" {
		t.Errorf("error = %v", f[FieldError])
	}
	if _, ok := f[FieldRequestID]; ok {
		t.Error("empty request id should be omitted")
	}
	if got := len(f.ToSlice()); got != 4 {
		t.Errorf("ToSlice len = %d, want 4", got)
	}
}
