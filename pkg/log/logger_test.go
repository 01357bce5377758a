package log

import (
	"encoding/json"
	"strings"
	"testing"
)

// memOutput captures formatted entries for assertions.
type memOutput struct {
	lines []string
}

func (m *memOutput) Write(_ *Entry, formatted []byte) error {
	m.lines = append(m.lines, string(formatted))
	return nil
}

func (m *memOutput) Close() error { return nil }

func TestLevelFiltering(t *testing.T) {
	out := &memOutput{}
	logger := NewLogger(WithLevel(WarnLevel), WithOutput(out))

	logger.Debug("d")
	logger.Info("i")
	logger.Warn("w")
	logger.Error("e")

	if len(out.lines) != 2 {
		t.Fatalf("got %d lines, want 2: %v", len(out.lines), out.lines)
	}
	if !strings.Contains(out.lines[0], "w") || !strings.Contains(out.lines[1], "e") {
		t.Fatalf("wrong lines: %v", out.lines)
	}
}

func TestWithFieldsCarryOver(t *testing.T) {
	out := &memOutput{}
	logger := NewLogger(WithLevel(DebugLevel), WithOutput(out)).
		With(Component("hub"), Str("conn", "c1"))

	logger.Info("connected", Int("online", 2))

	if len(out.lines) != 1 {
		t.Fatalf("got %d lines", len(out.lines))
	}
	line := out.lines[0]
	for _, want := range []string{"component=hub", "conn=c1", "online=2"} {
		if !strings.Contains(line, want) {
			t.Fatalf("line %q missing %q", line, want)
		}
	}
}

func TestJSONFormatter(t *testing.T) {
	out := &memOutput{}
	logger := NewLogger(WithLevel(InfoLevel), WithFormatter(&JSONFormatter{}), WithOutput(out))

	logger.Info("hello", Str("k", "v"))

	var m map[string]any
	if err := json.Unmarshal([]byte(out.lines[0]), &m); err != nil {
		t.Fatalf("json line invalid: %v", err)
	}
	if m["msg"] != "hello" || m["level"] != "INFO" || m["k"] != "v" {
		t.Fatalf("json line = %v", m)
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{
		"debug": DebugLevel, "info": InfoLevel, "": InfoLevel,
		"warn": WarnLevel, "warning": WarnLevel, "error": ErrorLevel,
	} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestApplyConfig(t *testing.T) {
	logger, err := ApplyConfig(&Config{Level: "debug", Format: "json"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if logger.GetLevel() != DebugLevel {
		t.Fatalf("level = %v", logger.GetLevel())
	}
	if _, err := ApplyConfig(&Config{Format: "xml"}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
