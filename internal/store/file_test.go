package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/lvlup/internal/models"
)

func TestNewFileStatStore_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	s, err := NewFileStatStore(dir)
	if err != nil {
		t.Fatalf("NewFileStatStore() error = %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("data directory not created: %v", err)
	}
	if s.Path() != filepath.Join(dir, "progress_data.json") {
		t.Errorf("Path() = %q", s.Path())
	}
}

func TestFileStatStore_CorruptState(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "{this is not json"},
		{"wrong shape", `{"Physical": 12}`},
		{"invalid stat", `{"Physical": {"Strength": {"value": 0, "current_max": 0, "base_max": 0, "level": 0}}, "total_level": 0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			s, err := NewFileStatStore(dir)
			if err != nil {
				t.Fatalf("NewFileStatStore() error = %v", err)
			}
			if err := os.WriteFile(s.Path(), []byte(tt.content), 0600); err != nil {
				t.Fatalf("write: %v", err)
			}

			_, err = s.Load(context.Background())
			if !errors.Is(err, ErrCorruptState) {
				t.Errorf("Load() error = %v, want ErrCorruptState", err)
			}
		})
	}
}

func TestFileStatStore_SaveIsIndentedJSON(t *testing.T) {
	s, err := NewFileStatStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStatStore() error = %v", err)
	}

	if err := s.Save(context.Background(), models.DefaultSnapshot()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "\n  \"") {
		t.Error("snapshot is not indented")
	}
	if !strings.Contains(string(data), `"total_level": 0`) {
		t.Errorf("snapshot missing total_level: %s", data)
	}
}

func TestFileStatStore_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStatStore(dir)
	if err != nil {
		t.Fatalf("NewFileStatStore() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := s.Save(context.Background(), models.DefaultSnapshot()); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("expected only the snapshot file, found %v", names)
	}
}
