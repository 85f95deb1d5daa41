package models

import "github.com/nvandessel/lvlup/internal/constants"

// defaultSchema lists the categories and stats a fresh tracker starts with.
var defaultSchema = map[string][]string{
	"Physical": {"Strength", "Agility", "Endurance", "Speech"},
	"Social":   {"Charisma", "Appearance"},
	"Mental":   {"Perception", "Intelligence", "Memory", "Communication"},
}

// DefaultSnapshot returns the fixed starting schema with every stat at
// value 0, level 0 and a threshold of constants.DefaultBaseMax.
func DefaultSnapshot() *Snapshot {
	s := NewSnapshot()
	for category, stats := range defaultSchema {
		for _, name := range stats {
			s.Set(category, name, NewStat(constants.DefaultBaseMax))
		}
	}
	s.RecomputeTotal()
	return s
}
