// Package backup exports and restores the stat snapshot together with the
// change log.
package backup

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/nvandessel/lvlup/internal/changelog"
	"github.com/nvandessel/lvlup/internal/models"
)

// filePrefix starts the name of every backup file.
const filePrefix = "lvlup-backup-"

// Payload is the content of a backup.
type Payload struct {
	Version   int              `json:"version"`
	CreatedAt time.Time        `json:"created_at"`
	Snapshot  *models.Snapshot `json:"snapshot"`

	// LogLines are the literal change log lines, header included.
	LogLines []string `json:"log_lines"`
}

// SnapshotLoader reads the snapshot to back up.
type SnapshotLoader interface {
	Load(ctx context.Context) (*models.Snapshot, error)
}

// SnapshotSaver receives a restored snapshot.
type SnapshotSaver interface {
	Save(ctx context.Context, snapshot *models.Snapshot) error
}

// LogReader reads the change log to back up.
type LogReader interface {
	RawLines(ctx context.Context) ([]string, error)
}

// LogReplacer receives restored change log lines.
type LogReplacer interface {
	Replace(ctx context.Context, lines []string) error
}

// Options controls how a backup is written.
type Options struct {
	// Compress writes the V2 format (header line + gzip payload).
	// Otherwise a plain V1 JSON file is written.
	Compress bool

	// Now stamps the backup. Defaults to time.Now.
	Now func() time.Time
}

// Backup writes the current snapshot and change log to outputPath.
// A change log that was never created is backed up as empty.
func Backup(ctx context.Context, s SnapshotLoader, l LogReader, outputPath string, opts Options) (*Payload, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	lines, err := l.RawLines(ctx)
	if err != nil && !errors.Is(err, changelog.ErrLogUnavailable) {
		return nil, fmt.Errorf("failed to read change log: %w", err)
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	p := &Payload{
		Version:   FormatV1,
		CreatedAt: now().UTC(),
		Snapshot:  snap,
		LogLines:  lines,
	}

	if opts.Compress {
		p.Version = FormatV2
		err = WriteV2(outputPath, p)
	} else {
		err = WriteV1(outputPath, p)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write backup: %w", err)
	}
	return p, nil
}

// RestoreResult summarizes a restore.
type RestoreResult struct {
	Version    int       `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	StatCount  int       `json:"stat_count"`
	LogLines   int       `json:"log_lines"`
	TotalLevel int       `json:"total_level"`
}

// Restore replaces the snapshot and the change log with the contents of
// inputPath. The backup is fully read and validated before anything is
// written; the snapshot is saved before the log is replaced.
func Restore(ctx context.Context, s SnapshotSaver, l LogReplacer, inputPath string) (*RestoreResult, error) {
	p, err := Read(inputPath)
	if err != nil {
		return nil, err
	}
	if p.Snapshot == nil {
		return nil, fmt.Errorf("backup %s has no snapshot", filepath.Base(inputPath))
	}
	if err := p.Snapshot.Validate(); err != nil {
		return nil, fmt.Errorf("backup %s has an invalid snapshot: %w", filepath.Base(inputPath), err)
	}
	total := p.Snapshot.RecomputeTotal()

	lines := p.LogLines
	if len(lines) == 0 {
		lines = []string{changelogHeader}
	}

	if err := s.Save(ctx, p.Snapshot); err != nil {
		return nil, fmt.Errorf("failed to restore snapshot: %w", err)
	}
	if err := l.Replace(ctx, lines); err != nil {
		return nil, fmt.Errorf("failed to restore change log: %w", err)
	}

	return &RestoreResult{
		Version:    p.Version,
		CreatedAt:  p.CreatedAt,
		StatCount:  countStats(p.Snapshot),
		LogLines:   len(p.LogLines),
		TotalLevel: total,
	}, nil
}

// Read loads a backup file of either format.
func Read(path string) (*Payload, error) {
	version, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	switch version {
	case FormatV2:
		return ReadV2(path)
	default:
		return ReadV1(path)
	}
}

// GenerateBackupPath returns a timestamped backup path in dir.
func GenerateBackupPath(dir string, now time.Time, compressed bool) string {
	name := filePrefix + now.Format("20060102-150405") + ".json"
	if compressed {
		name += ".gz"
	}
	return filepath.Join(dir, name)
}

func isBackupFile(name string) bool {
	return strings.HasPrefix(name, filePrefix) &&
		(strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".json.gz"))
}

func countStats(s *models.Snapshot) int {
	n := 0
	for _, cat := range s.Categories {
		n += len(cat)
	}
	return n
}
