package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nvandessel/lvlup/internal/constants"
)

// Event kinds written by the progression engine.
const (
	EventDeltaApplied = "delta_applied"
	EventLevelUp      = "level_up"
	EventRejected     = "rejected"
)

// Event is one structured progression event.
type Event struct {
	Time     time.Time `json:"time"`
	Kind     string    `json:"kind"`
	Category string    `json:"category"`
	Stat     string    `json:"stat"`
	Delta    int       `json:"delta"`
	Value    int       `json:"value,omitempty"`
	Max      int       `json:"max,omitempty"`
	Level    int       `json:"level,omitempty"`
	Total    int       `json:"total_level,omitempty"`
	Reason   string    `json:"reason,omitempty"`
	Source   string    `json:"source,omitempty"`
}

// EventLogger writes progression events to a JSONL file.
// It is safe for concurrent use. A nil EventLogger is safe to use;
// all methods are no-ops on nil receiver.
type EventLogger struct {
	mu   sync.Mutex
	file *os.File
}

// NewEventLogger creates an event logger writing to dir/events.jsonl.
// At "info" level and above it returns nil and no file is created.
// Returns nil if the file cannot be opened.
func NewEventLogger(dir string, level string) *EventLogger {
	if ParseLevel(level) >= slog.LevelInfo {
		return nil
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}

	path := filepath.Join(dir, constants.EventLogFileName)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}

	return &EventLogger{file: f}
}

// Log writes ev as a single JSONL line, stamping Time when unset.
// Safe to call on nil receiver.
func (el *EventLogger) Log(ev Event) {
	if el == nil {
		return
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	data = append(data, '\n')

	el.mu.Lock()
	defer el.mu.Unlock()
	if el.file == nil {
		return
	}
	_, _ = el.file.Write(data)
}

// Close closes the underlying file. Safe to call on nil receiver.
func (el *EventLogger) Close() {
	if el == nil {
		return
	}

	el.mu.Lock()
	defer el.mu.Unlock()

	if el.file != nil {
		el.file.Close()
		el.file = nil
	}
}
