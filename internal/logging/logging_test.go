package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewRespectsVerboseFloor(t *testing.T) {
	var quiet bytes.Buffer
	logger := New(&quiet, false)
	logger.Debug().Msg("should not appear")
	logger.Warn().Msg("should appear")

	out := quiet.String()
	if strings.Contains(out, "should not appear") {
		t.Errorf("debug message leaked through the warn floor: %s", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("warn message missing from quiet-mode output: %s", out)
	}
}

func TestNewVerboseAllowsDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, true)
	logger.Debug().Msg("debug detail")

	if !strings.Contains(buf.String(), "debug detail") {
		t.Errorf("expected debug message in verbose mode, got: %s", buf.String())
	}
}

func TestIsTerminalFalseForBuffer(t *testing.T) {
	var buf bytes.Buffer
	if isTerminal(&buf) {
		t.Error("a bytes.Buffer should never be reported as a terminal")
	}
}
