package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDefaultSnapshot(t *testing.T) {
	s := DefaultSnapshot()

	wantCategories := map[string]int{"Physical": 4, "Social": 2, "Mental": 4}
	if len(s.Categories) != len(wantCategories) {
		t.Fatalf("len(Categories) = %d, want %d", len(s.Categories), len(wantCategories))
	}
	for name, count := range wantCategories {
		if got := len(s.Categories[name]); got != count {
			t.Errorf("category %s has %d stats, want %d", name, got, count)
		}
	}

	st, ok := s.Lookup("Physical", "Strength")
	if !ok {
		t.Fatal("Physical/Strength missing from default schema")
	}
	if st != (Stat{Value: 0, CurrentMax: 5, BaseMax: 5, Level: 0}) {
		t.Errorf("Strength = %+v, want initial state", st)
	}
	if s.TotalLevel != 0 {
		t.Errorf("TotalLevel = %d, want 0", s.TotalLevel)
	}
}

func TestDefaultSnapshot_Independent(t *testing.T) {
	a := DefaultSnapshot()
	b := DefaultSnapshot()
	a.Set("Physical", "Strength", Stat{Value: 3, CurrentMax: 5, BaseMax: 5})

	st, _ := b.Lookup("Physical", "Strength")
	if st.Value != 0 {
		t.Error("mutating one default snapshot leaked into another")
	}
}

func TestSnapshot_RecomputeTotal(t *testing.T) {
	s := NewSnapshot()
	s.Set("A", "x", Stat{CurrentMax: 7, BaseMax: 5, Level: 1})
	s.Set("A", "y", Stat{CurrentMax: 9, BaseMax: 5, Level: 2})
	s.Set("B", "z", Stat{CurrentMax: 5, BaseMax: 5, Level: 0})
	s.TotalLevel = 99

	if got := s.RecomputeTotal(); got != 3 {
		t.Errorf("RecomputeTotal() = %d, want 3", got)
	}
	if s.TotalLevel != 3 {
		t.Errorf("TotalLevel = %d, want 3", s.TotalLevel)
	}
}

func TestSnapshot_Lookup(t *testing.T) {
	s := DefaultSnapshot()

	tests := []struct {
		name     string
		category string
		stat     string
		want     bool
	}{
		{"known", "Mental", "Memory", true},
		{"unknown category", "Nope", "Memory", false},
		{"unknown stat", "Mental", "X", false},
		{"aggregate key is not a category", TotalLevelKey, "x", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := s.Lookup(tt.category, tt.stat); ok != tt.want {
				t.Errorf("Lookup(%q, %q) ok = %v, want %v", tt.category, tt.stat, ok, tt.want)
			}
		})
	}
}

func TestSnapshot_JSONShape(t *testing.T) {
	s := NewSnapshot()
	s.Set("Physical", "Strength", Stat{Value: 2, CurrentMax: 7, BaseMax: 5, Level: 1})
	s.RecomputeTotal()

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal raw: %v", err)
	}
	if raw[TotalLevelKey] != float64(1) {
		t.Errorf("total_level = %v, want 1", raw[TotalLevelKey])
	}
	phys, ok := raw["Physical"].(map[string]any)
	if !ok {
		t.Fatalf("Physical is %T, want object", raw["Physical"])
	}
	str, ok := phys["Strength"].(map[string]any)
	if !ok {
		t.Fatalf("Strength is %T, want object", phys["Strength"])
	}
	for _, key := range []string{"value", "current_max", "base_max", "level"} {
		if _, ok := str[key]; !ok {
			t.Errorf("Strength missing key %q", key)
		}
	}
}

func TestSnapshot_RoundTrip(t *testing.T) {
	orig := DefaultSnapshot()
	orig.Set("Mental", "Memory", Stat{Value: 1, CurrentMax: 9, BaseMax: 5, Level: 2})
	orig.RecomputeTotal()

	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got Snapshot
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if got.TotalLevel != orig.TotalLevel {
		t.Errorf("TotalLevel = %d, want %d", got.TotalLevel, orig.TotalLevel)
	}
	for _, cat := range orig.CategoryNames() {
		for _, name := range orig.StatNames(cat) {
			want, _ := orig.Lookup(cat, name)
			have, ok := got.Lookup(cat, name)
			if !ok || have != want {
				t.Errorf("%s/%s = %+v, want %+v", cat, name, have, want)
			}
		}
	}
}

func TestSnapshot_UnmarshalRejectsBadShapes(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not an object", `[1,2,3]`},
		{"null", `null`},
		{"category is a number", `{"Physical": 3}`},
		{"stat is a string", `{"Physical": {"Strength": "high"}}`},
		{"total is a string", `{"total_level": "three"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Snapshot
			if err := json.Unmarshal([]byte(tt.doc), &s); err == nil {
				t.Errorf("Unmarshal(%s) succeeded, want error", tt.doc)
			}
		})
	}
}

func TestSnapshot_Clone(t *testing.T) {
	orig := DefaultSnapshot()
	c := orig.Clone()
	c.Set("Social", "Charisma", Stat{Value: 4, CurrentMax: 5, BaseMax: 5})

	st, _ := orig.Lookup("Social", "Charisma")
	if st.Value != 0 {
		t.Error("Clone shares category maps with the original")
	}
}

func TestSnapshot_Validate(t *testing.T) {
	s := DefaultSnapshot()
	if err := s.Validate(); err != nil {
		t.Fatalf("default snapshot invalid: %v", err)
	}

	s.Set("Physical", "Strength", Stat{Value: 0, CurrentMax: 3, BaseMax: 5})
	err := s.Validate()
	if err == nil {
		t.Fatal("Validate() accepted current_max below base_max")
	}
	if !strings.Contains(err.Error(), "Physical/Strength") {
		t.Errorf("error %q does not name the stat", err)
	}
}
