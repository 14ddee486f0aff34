package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"photoaudit/internal/config"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"unknown": slog.LevelInfo,
	}
	for raw, want := range cases {
		if got := parseLevel(raw); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestNewRejectsBadFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestConsoleHandlerOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger, err := New(Options{Level: "info", Format: "console", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	logger.Info("backfill complete",
		"profile", "P1",
		"created", 3,
		"took", 250*time.Millisecond,
		"note", "two words")
	logger.Debug("suppressed")

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(raw)
	if !strings.Contains(out, "INFO backfill complete") {
		t.Errorf("missing message: %q", out)
	}
	if !strings.Contains(out, "profile=P1") || !strings.Contains(out, "created=3") {
		t.Errorf("missing attrs: %q", out)
	}
	if !strings.Contains(out, `note="two words"`) {
		t.Errorf("value with spaces not quoted: %q", out)
	}
	if strings.Contains(out, "suppressed") {
		t.Errorf("debug record leaked at info level: %q", out)
	}
}

func TestConsoleHandlerGroups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger, err := New(Options{Level: "info", Format: "console", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	logger.WithGroup("run").With("id", "abc").Info("started")

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(raw), "run.id=abc") {
		t.Errorf("group prefix missing: %q", raw)
	}
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Logging.Format = "json"
	cfg.Logging.Level = "info"
	cfg.Logging.Dir = dir

	logger, err := NewFromConfig(cfg)
	if err != nil {
		t.Fatalf("new from config: %v", err)
	}
	logger.Info("hello")

	raw, err := os.ReadFile(filepath.Join(dir, "photoaudit.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	out := string(raw)
	if !strings.Contains(out, `"msg":"hello"`) || !strings.Contains(out, `"level":"info"`) {
		t.Errorf("json output = %q", out)
	}
}

func TestNewNopDiscards(t *testing.T) {
	logger := NewNop()
	logger.Error("nothing happens")
}
