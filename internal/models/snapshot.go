package models

import (
	"encoding/json"
	"fmt"
	"sort"
)

// TotalLevelKey is the JSON key of the aggregate level in a persisted snapshot.
// It sits alongside the category names at the top level of the document.
const TotalLevelKey = "total_level"

// Snapshot is the complete state of every stat, grouped by category.
type Snapshot struct {
	Categories map[string]Category
	TotalLevel int
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{Categories: make(map[string]Category)}
}

// Lookup returns the stat at category/name.
func (s *Snapshot) Lookup(category, name string) (Stat, bool) {
	cat, ok := s.Categories[category]
	if !ok {
		return Stat{}, false
	}
	st, ok := cat[name]
	return st, ok
}

// Set stores the stat at category/name, creating the category if needed.
func (s *Snapshot) Set(category, name string, st Stat) {
	if s.Categories == nil {
		s.Categories = make(map[string]Category)
	}
	cat, ok := s.Categories[category]
	if !ok {
		cat = make(Category)
		s.Categories[category] = cat
	}
	cat[name] = st
}

// RecomputeTotal sets TotalLevel to the sum of every stat's level and returns it.
func (s *Snapshot) RecomputeTotal() int {
	total := 0
	for _, cat := range s.Categories {
		for _, st := range cat {
			total += st.Level
		}
	}
	s.TotalLevel = total
	return total
}

// CategoryNames returns the category names in sorted order.
func (s *Snapshot) CategoryNames() []string {
	names := make([]string, 0, len(s.Categories))
	for name := range s.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StatNames returns the stat names of a category in sorted order.
func (s *Snapshot) StatNames(category string) []string {
	cat := s.Categories[category]
	names := make([]string, 0, len(cat))
	for name := range cat {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{
		Categories: make(map[string]Category, len(s.Categories)),
		TotalLevel: s.TotalLevel,
	}
	for name, cat := range s.Categories {
		cc := make(Category, len(cat))
		for statName, st := range cat {
			cc[statName] = st
		}
		c.Categories[name] = cc
	}
	return c
}

// Validate checks every stat in the snapshot.
func (s *Snapshot) Validate() error {
	for catName, cat := range s.Categories {
		for statName, st := range cat {
			if err := st.Validate(); err != nil {
				return fmt.Errorf("%s/%s: %w", catName, statName, err)
			}
		}
	}
	return nil
}

// MarshalJSON writes categories and total_level as sibling keys:
//
//	{"Physical": {"Strength": {...}}, "total_level": 3}
func (s Snapshot) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(s.Categories)+1)
	for name, cat := range s.Categories {
		doc[name] = cat
	}
	doc[TotalLevelKey] = s.TotalLevel
	return json.Marshal(doc)
}

// UnmarshalJSON reads the flat document written by MarshalJSON.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("snapshot document is null")
	}

	s.Categories = make(map[string]Category, len(doc))
	s.TotalLevel = 0
	for key, raw := range doc {
		if key == TotalLevelKey {
			if err := json.Unmarshal(raw, &s.TotalLevel); err != nil {
				return fmt.Errorf("decoding %s: %w", TotalLevelKey, err)
			}
			continue
		}
		var cat Category
		if err := json.Unmarshal(raw, &cat); err != nil {
			return fmt.Errorf("decoding category %q: %w", key, err)
		}
		if cat == nil {
			return fmt.Errorf("category %q is null", key)
		}
		s.Categories[key] = cat
	}
	return nil
}
