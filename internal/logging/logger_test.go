package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"
)

func newBufferLogger(level Level, jsonFormat bool) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return &Logger{
		mu:         &sync.Mutex{},
		output:     buf,
		level:      level,
		jsonFormat: jsonFormat,
	}, buf
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"warning", WARN},
		{"error", ERROR},
		{"nonsense", INFO},
	}
	for _, tc := range cases {
		if got := ParseLevel(tc.in); got != tc.want {
			t.Errorf("ParseLevel(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newBufferLogger(WARN, false)
	l.Debug("hidden")
	l.Info("hidden too")
	l.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("below-level messages leaked: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("warn message missing: %q", out)
	}
}

func TestJSONOutput(t *testing.T) {
	l, buf := newBufferLogger(INFO, true)
	l.WithComponent("engine").Info("bar ingested", "bars", 42, "source", "historical")

	var e entry
	if err := json.Unmarshal(buf.Bytes(), &e); err != nil {
		t.Fatalf("output is not json: %v (%q)", err, buf.String())
	}
	if e.Level != "INFO" || e.Message != "bar ingested" || e.Component != "engine" {
		t.Errorf("entry = %+v", e)
	}
	if e.Fields["source"] != "historical" {
		t.Errorf("fields = %v", e.Fields)
	}
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	parent, buf := newBufferLogger(INFO, true)
	child := parent.WithField("session", "abc")

	child.Info("from child")
	parent.Info("from parent")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	var parentEntry entry
	if err := json.Unmarshal([]byte(lines[1]), &parentEntry); err != nil {
		t.Fatal(err)
	}
	if _, ok := parentEntry.Fields["session"]; ok {
		t.Error("child field leaked into parent logger")
	}
}

func TestOddArgsHandled(t *testing.T) {
	l, buf := newBufferLogger(INFO, true)
	l.Info("odd", "key_without_value")
	if buf.Len() == 0 {
		t.Fatal("message dropped")
	}
}
