package logging

import (
	"context"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Leveler
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tc := range cases {
		if got := parseLevel(tc.in); got != tc.want {
			t.Errorf("parseLevel(%q): got %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestNew_ReturnsUsableLogger(t *testing.T) {
	for _, format := range []string{"text", "json", ""} {
		log := New(Config{Level: "debug", Format: format})
		if log == nil {
			t.Fatalf("New(%q) returned nil", format)
		}
		log.With(String("component", "test")).Debug(context.Background(), "hello", Int("n", 1))
	}
}

func TestNoop_DropsEverything(t *testing.T) {
	log := Noop()
	log.Info(context.Background(), "ignored", Any("k", struct{}{}), Float("f", 1.5))
	if log.With(String("k", "v")) == nil {
		t.Fatalf("Noop().With returned nil")
	}
}
