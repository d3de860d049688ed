package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestInitLevels(t *testing.T) {
	cases := map[string]string{
		"debug":   "debug",
		"DEBUG":   "debug",
		"info":    "info",
		"warn":    "warn",
		"warning": "warn",
		"error":   "error",
		"fatal":   "fatal",
		"":        "info",
		"bogus":   "info",
	}
	for in, want := range cases {
		Init(in)
		if got := LevelString(); got != want {
			t.Fatalf("Init(%q): level %q, want %q", in, got, want)
		}
	}
	Init("info")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	Init("warn")
	Debugf("dropped %d", 1)
	Infof("dropped %d", 2)
	Warnf("kept %d", 3)
	Errorf("kept %d", 4)

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("below-threshold lines leaked: %q", out)
	}
	if !strings.Contains(out, "kept 3") || !strings.Contains(out, "kept 4") {
		t.Fatalf("expected warn/error lines, got: %q", out)
	}
	if !strings.Contains(out, "[WARN]") || !strings.Contains(out, "[ERROR]") {
		t.Fatalf("expected level tags in output, got: %q", out)
	}
	Init("info")
}

func TestSingleStringHelpers(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	Init("debug")
	Debug("d")
	Info("i")
	Warn("w")
	Error("e")
	for _, tag := range []string{"[DEBUG]", "[INFO]", "[WARN]", "[ERROR]"} {
		if !strings.Contains(buf.String(), tag) {
			t.Fatalf("missing %s in output: %q", tag, buf.String())
		}
	}
	Init("info")
}
