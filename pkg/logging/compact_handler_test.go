package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestCompactHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCompactHandler(&buf, nil))

	logger.Info("vault loaded", "nodes", 42, "root", "/notes")

	line := buf.String()
	if !strings.HasPrefix(line, "[INFO]  ") {
		t.Errorf("Expected level prefix, got %q", line)
	}
	if !strings.Contains(line, "vault loaded | nodes=42 root=/notes") {
		t.Errorf("Unexpected line %q", line)
	}
	if !strings.HasSuffix(line, "\n") {
		t.Error("Line should end with a newline")
	}
}

func TestCompactHandlerNoAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCompactHandler(&buf, nil))

	logger.Info("plain message")

	if strings.Contains(buf.String(), "|") {
		t.Errorf("No separator expected without attributes: %q", buf.String())
	}
}

func TestCompactHandlerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCompactHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Error("Info should be filtered below Warn")
	}
	if !strings.Contains(out, "[WARN]  ") || !strings.Contains(out, "kept") {
		t.Errorf("Warn line missing: %q", out)
	}
}

func TestCompactHandlerSpecialKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCompactHandler(&buf, nil))

	logger.Info("request completed",
		"requestID", "0b51e1de-1234-5678-9abc-def012345678",
		"durationMs", 12,
	)

	line := buf.String()
	if !strings.Contains(line, "req=0b51e1de") {
		t.Errorf("Request id should be shortened: %q", line)
	}
	if strings.Contains(line, "0b51e1de-1234") {
		t.Errorf("Full uuid should not appear: %q", line)
	}
	if !strings.Contains(line, "duration=12ms") {
		t.Errorf("Duration should carry its unit: %q", line)
	}
}

func TestCompactHandlerQuotesStrings(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCompactHandler(&buf, nil))

	logger.Info("msg", "path", "my notes/file.md")

	if !strings.Contains(buf.String(), `path="my notes/file.md"`) {
		t.Errorf("Values with spaces should be quoted: %q", buf.String())
	}
}

func TestCompactHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	base := NewCompactHandler(&buf, nil)
	logger := slog.New(base).With("component", "engine")

	logger.Info("started")

	if !strings.Contains(buf.String(), "component=engine") {
		t.Errorf("Attrs from With should be formatted: %q", buf.String())
	}
}
