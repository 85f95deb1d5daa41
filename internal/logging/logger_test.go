package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  slog.Level
	}{
		{"info", "info", slog.LevelInfo},
		{"debug", "debug", slog.LevelDebug},
		{"trace", "trace", LevelTrace},
		{"warn", "warn", slog.LevelWarn},
		{"error", "error", slog.LevelError},
		{"uppercase DEBUG", "DEBUG", slog.LevelDebug},
		{"mixed case Trace", "Trace", LevelTrace},
		{"unknown defaults to info", "verbose", slog.LevelInfo},
		{"empty defaults to info", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name       string
		level      string
		logAtDebug bool
		logAtInfo  bool
	}{
		{"info filters debug", "info", false, true},
		{"debug passes debug", "debug", true, true},
		{"warn filters info", "warn", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.level, &buf)

			logger.Debug("debug message")
			if got := strings.Contains(buf.String(), "debug message"); got != tt.logAtDebug {
				t.Errorf("debug logged = %v, want %v", got, tt.logAtDebug)
			}

			logger.Info("info message")
			if got := strings.Contains(buf.String(), "info message"); got != tt.logAtInfo {
				t.Errorf("info logged = %v, want %v", got, tt.logAtInfo)
			}
		})
	}
}

func TestNewLogger_TraceLabel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("trace", &buf)

	logger.Log(t.Context(), LevelTrace, "trace message")

	if !strings.Contains(buf.String(), "level=TRACE") {
		t.Errorf("expected TRACE label, got: %s", buf.String())
	}
}

func TestOrDiscard(t *testing.T) {
	if OrDiscard(nil) == nil {
		t.Fatal("OrDiscard(nil) returned nil")
	}

	var buf bytes.Buffer
	l := NewLogger("info", &buf)
	if OrDiscard(l) != l {
		t.Error("OrDiscard should return the given logger unchanged")
	}
}

func TestNewEventLogger_InfoReturnsNil(t *testing.T) {
	dir := t.TempDir()

	if el := NewEventLogger(dir, "info"); el != nil {
		el.Close()
		t.Fatal("expected nil EventLogger at info level")
	}
	if _, err := os.Stat(filepath.Join(dir, "events.jsonl")); !os.IsNotExist(err) {
		t.Error("events.jsonl should not be created at info level")
	}
}

func TestEventLogger_WritesJSONL(t *testing.T) {
	dir := t.TempDir()
	el := NewEventLogger(dir, "debug")
	if el == nil {
		t.Fatal("expected EventLogger at debug level")
	}

	el.Log(Event{Kind: EventDeltaApplied, Category: "Physical", Stat: "Strength", Delta: 2, Value: 2, Max: 5})
	el.Log(Event{Kind: EventLevelUp, Category: "Physical", Stat: "Strength", Delta: 3, Max: 7, Level: 1, Total: 1})
	el.Close()

	f, err := os.Open(filepath.Join(dir, "events.jsonl"))
	if err != nil {
		t.Fatalf("open events file: %v", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("line is not valid JSON: %v", err)
		}
		events = append(events, ev)
	}

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[1].Kind != EventLevelUp || events[1].Level != 1 {
		t.Errorf("second event = %+v, want level_up at level 1", events[1])
	}
	if events[0].Time.IsZero() {
		t.Error("Time was not stamped")
	}
}

func TestEventLogger_NilSafe(t *testing.T) {
	var el *EventLogger
	el.Log(Event{Kind: EventRejected})
	el.Close()
}
