package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Info describes a backup file on disk.
type Info struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
	Version   int       `json:"version"`
}

// RetentionPolicy decides which backups to keep.
type RetentionPolicy interface {
	Apply(backups []Info) (keep []Info)
}

// CountPolicy keeps the N most recent backups. MaxCount <= 0 keeps all.
type CountPolicy struct {
	MaxCount int
}

// Apply keeps the first MaxCount backups (assumed sorted newest-first).
func (p *CountPolicy) Apply(backups []Info) []Info {
	if p.MaxCount <= 0 || len(backups) <= p.MaxCount {
		return backups
	}
	return backups[:p.MaxCount]
}

// List scans dir for lvlup-backup-* files and returns them sorted newest-first.
// A missing directory yields no backups.
func List(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}

	var backups []Info
	for _, e := range entries {
		if e.IsDir() || !isBackupFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}

		bi := Info{
			Path:      filepath.Join(dir, e.Name()),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		}
		if version, err := DetectFormat(bi.Path); err == nil {
			bi.Version = version
		}
		backups = append(backups, bi)
	}

	// The timestamp is embedded in the name.
	sort.Slice(backups, func(i, j int) bool {
		return filepath.Base(backups[i].Path) > filepath.Base(backups[j].Path)
	})
	return backups, nil
}

// ApplyRetention deletes backups not kept by the policy.
func ApplyRetention(dir string, policy RetentionPolicy) (deleted []string, err error) {
	backups, err := List(dir)
	if err != nil {
		return nil, err
	}

	keepSet := make(map[string]bool)
	for _, b := range policy.Apply(backups) {
		keepSet[b.Path] = true
	}

	for _, b := range backups {
		if keepSet[b.Path] {
			continue
		}
		if err := os.Remove(b.Path); err != nil {
			return deleted, fmt.Errorf("removing %s: %w", filepath.Base(b.Path), err)
		}
		deleted = append(deleted, b.Path)
	}
	return deleted, nil
}
