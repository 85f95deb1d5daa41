// Package models defines the data types shared across lvlup: stats, the
// snapshot that groups them by category, and change log entries.
package models

import "fmt"

// Stat is a single tracked attribute.
type Stat struct {
	// Value is the progress accumulated within the current level.
	Value int `json:"value"`

	// CurrentMax is the threshold that triggers the next level-up.
	// It never decreases.
	CurrentMax int `json:"current_max"`

	// BaseMax is the threshold the stat was created with.
	BaseMax int `json:"base_max"`

	// Level counts level-ups. It never decreases.
	Level int `json:"level"`
}

// NewStat returns a stat in its initial state (0, baseMax, 0).
func NewStat(baseMax int) Stat {
	return Stat{
		Value:      0,
		CurrentMax: baseMax,
		BaseMax:    baseMax,
		Level:      0,
	}
}

// Validate checks the structural invariants a persisted stat must satisfy.
func (s Stat) Validate() error {
	if s.BaseMax <= 0 {
		return fmt.Errorf("base_max must be positive, got %d", s.BaseMax)
	}
	if s.CurrentMax < s.BaseMax {
		return fmt.Errorf("current_max %d is below base_max %d", s.CurrentMax, s.BaseMax)
	}
	if s.Level < 0 {
		return fmt.Errorf("level must be non-negative, got %d", s.Level)
	}
	if s.Value < 0 {
		return fmt.Errorf("value must be non-negative, got %d", s.Value)
	}
	return nil
}

// Category maps stat names to stats.
type Category map[string]Stat
