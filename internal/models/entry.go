package models

import "time"

// LogEntry records one applied mutation. Entries are immutable once appended.
type LogEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	Category   string    `json:"category"`
	Stat       string    `json:"stat"`
	Delta      int       `json:"delta"`
	Value      int       `json:"value"`
	CurrentMax int       `json:"current_max"`
	Level      int       `json:"level"`
}
