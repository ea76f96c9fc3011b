package wikidata

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func newBufferedLogger() (*SimpleLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	return &SimpleLogger{logger: log.New(&buf, "", 0)}, &buf
}

func TestSimpleLoggerLevels(t *testing.T) {
	logger, buf := newBufferedLogger()

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), buf.String())
	}
	for i, level := range []string{"DEBUG", "INFO", "WARN", "ERROR"} {
		if !strings.HasPrefix(lines[i], level+" ") {
			t.Errorf("line %d: expected %s prefix, got %q", i, level, lines[i])
		}
	}
}

func TestSimpleLoggerKeyValuePairs(t *testing.T) {
	logger, buf := newBufferedLogger()

	logger.Warn("rate limited", "wait", "10s", "attempt", 2)

	got := strings.TrimSpace(buf.String())
	want := "WARN rate limited wait=10s attempt=2"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSimpleLoggerOddKeyValue(t *testing.T) {
	logger, buf := newBufferedLogger()

	logger.Info("lonely key", "orphan")

	got := strings.TrimSpace(buf.String())
	if !strings.Contains(got, "orphan=?") {
		t.Errorf("odd trailing key should render as key=?, got %q", got)
	}
}
