package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn, err := New(&buf, Config{Format: "json", Level: "debug"})
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	defer closeFn()

	logger.Debug("batch executed", "batch_size", 4)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v (%q)", err, buf.String())
	}
	if line["msg"] != "batch executed" {
		t.Fatalf("unexpected msg: %v", line["msg"])
	}
	if line["batch_size"] != float64(4) {
		t.Fatalf("unexpected batch_size: %v", line["batch_size"])
	}
}

func TestNewTextRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn, err := New(&buf, Config{Format: "text", Level: "warn"})
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	defer closeFn()

	logger.Info("hidden")
	logger.Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info record should be filtered: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("warn record missing: %q", out)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := (Config{Format: "xml"}).Validate(); err == nil {
		t.Fatalf("expected format error")
	}
	if err := (Config{Format: "json", Level: "loud"}).Validate(); err == nil {
		t.Fatalf("expected level error")
	}
	if err := (Config{Format: "json"}).Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}
}

func TestFanoutHandlerDeliversToAll(t *testing.T) {
	var a, b bytes.Buffer
	h := &fanoutHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&a, nil),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	}}
	logger := slog.New(h).With("run_id", "r1")

	if !h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("expected info enabled on at least one handler")
	}
	logger.Info("hello")
	if !strings.Contains(a.String(), "run_id=r1") {
		t.Fatalf("expected attrs on first handler: %q", a.String())
	}
	if b.Len() != 0 {
		t.Fatalf("second handler should filter info: %q", b.String())
	}
}
