package log

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	SetLevel(LevelWarn)
	defer SetLevel(LevelInfo)

	Debug("debug line")
	Info("info line")
	Warn("warn line", "file", "events.json")
	Error("error line", errors.New("boom"))

	out := buf.String()
	if strings.Contains(out, "debug line") || strings.Contains(out, "info line") {
		t.Errorf("lines below WARN should be dropped, got:\n%s", out)
	}
	if !strings.Contains(out, "[WARN] warn line file=events.json") {
		t.Errorf("missing warn line, got:\n%s", out)
	}
	if !strings.Contains(out, "[ERROR] error line err=boom") {
		t.Errorf("missing error line, got:\n%s", out)
	}
}

func TestFormatKVs(t *testing.T) {
	tests := []struct {
		name string
		kv   []any
		want string
	}{
		{name: "pairs", kv: []any{"a", 1, "b", "x"}, want: " a=1 b=x"},
		{name: "odd count drops last", kv: []any{"a", 1, "b"}, want: " a=1"},
		{name: "non-string key skipped", kv: []any{3, 1, "b", 2}, want: " b=2"},
		{name: "spaces quoted", kv: []any{"title", "team sync"}, want: ` title="team sync"`},
		{name: "empty quoted", kv: []any{"color", ""}, want: ` color=""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatKVs(tt.kv...); got != tt.want {
				t.Errorf("formatKVs() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{in: "debug", want: LevelDebug},
		{in: "", want: LevelInfo},
		{in: "Warning", want: LevelWarn},
		{in: "ERROR", want: LevelError},
		{in: "loud", want: LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}
