package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewWriter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "session", slog.LevelInfo)

	log.Info("started", "model", "sonnet")

	output := buf.String()
	if !strings.Contains(output, "component=session") {
		t.Errorf("missing component field: %q", output)
	}
	if !strings.Contains(output, "model=sonnet") {
		t.Errorf("missing attribute: %q", output)
	}
}

func TestNewWriterLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "session", slog.LevelInfo)

	log.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug record emitted at info level: %q", buf.String())
	}

	log.Info("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("info record missing: %q", buf.String())
	}
}

func TestLevel(t *testing.T) {
	if got := Level(false); got != slog.LevelInfo {
		t.Errorf("Level(false) = %v, want info", got)
	}
	if got := Level(true); got != slog.LevelDebug {
		t.Errorf("Level(true) = %v, want debug", got)
	}
}
