package logging

import (
	"errors"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"nonsense", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("Expected ParseLevel(%q) to be %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Expected %q, got %q", tt.want, got)
		}
	}
}

func TestFieldConstructors(t *testing.T) {
	if f := String("k", "v"); f.Key != "k" || f.Value != "v" {
		t.Errorf("Expected String field k=v, got %+v", f)
	}
	if f := Int("n", 5); f.Value != 5 {
		t.Errorf("Expected Int field value 5, got %+v", f)
	}
	err := errors.New("boom")
	if f := Error(err); f.Key != "error" || f.Value != err {
		t.Errorf("Expected Error field, got %+v", f)
	}
}

func TestSetDefault(t *testing.T) {
	original := Default()
	defer SetDefault(original)

	noop := NoopLogger{}
	SetDefault(noop)
	if _, ok := Default().(NoopLogger); !ok {
		t.Error("Expected the default logger to be replaced")
	}

	// Nil is ignored, the previous default stays.
	SetDefault(nil)
	if _, ok := Default().(NoopLogger); !ok {
		t.Error("Expected nil to be ignored by SetDefault")
	}
}
