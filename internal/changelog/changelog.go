// Package changelog implements the append-only, human-readable record of
// every applied stat mutation and its time-ranged replay.
package changelog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nvandessel/lvlup/internal/constants"
	"github.com/nvandessel/lvlup/internal/logging"
	"github.com/nvandessel/lvlup/internal/models"
)

var (
	// ErrLogUnavailable is returned by queries when the log was never created.
	ErrLogUnavailable = errors.New("change log unavailable")

	// ErrMalformedLine marks a line that could not be parsed. Queries skip
	// such lines and report them in QueryResult.Skipped.
	ErrMalformedLine = errors.New("malformed change log line")
)

// maxLineBytes bounds a single line read by the scanner.
const maxLineBytes = 1024 * 1024

// Appender records applied mutations.
type Appender interface {
	Append(ctx context.Context, entry models.LogEntry) error
}

// Querier replays recorded mutations.
type Querier interface {
	QueryRange(ctx context.Context, cutoff time.Time) (*QueryResult, error)
}

// ChangeLog is an append-only mutation record with time-ranged replay.
type ChangeLog interface {
	Appender
	Querier

	// Init creates the durable log if it does not exist and reports
	// whether it did so.
	Init(ctx context.Context) (bool, error)
}

// Record is a parsed entry together with the literal line it came from.
type Record struct {
	Line  int
	Raw   string
	Entry models.LogEntry
}

// LineResult is the outcome of reading one line. Exactly one of Entry or
// Err is meaningful; header and blank lines produce no result at all.
type LineResult struct {
	Line  int
	Raw   string
	Entry models.LogEntry
	Err   error
}

// QueryResult holds matching entries in file order plus skipped lines.
type QueryResult struct {
	Records []Record
	Skipped []LineResult
}

// Lines returns the literal line of every matching record.
func (r *QueryResult) Lines() []string {
	lines := make([]string, len(r.Records))
	for i, rec := range r.Records {
		lines[i] = rec.Raw
	}
	return lines
}

// FileLog implements ChangeLog as a UTF-8 text file, one entry per line.
// Appends are serialized by a mutex and use O_APPEND; prior lines are
// never rewritten.
type FileLog struct {
	mu     sync.Mutex
	path   string
	loc    *time.Location
	logger *slog.Logger
}

// Option configures a FileLog.
type Option func(*FileLog)

// WithLocation sets the zone timestamps are written and parsed in.
// Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(l *FileLog) { l.loc = loc }
}

// WithLogger sets the logger used for malformed-line diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *FileLog) { l.logger = logger }
}

// NewFileLog creates a FileLog at <dataDir>/Log.txt. The file itself is
// created lazily by Init or the first Append.
func NewFileLog(dataDir string, opts ...Option) *FileLog {
	l := &FileLog{
		path: filepath.Join(dataDir, constants.ChangeLogFileName),
		loc:  time.Local,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = logging.OrDiscard(l.logger)
	return l
}

// Path returns the log file path.
func (l *FileLog) Path() string {
	return l.path
}

// Location returns the zone used for timestamps.
func (l *FileLog) Location() *time.Location {
	return l.loc
}

// Init creates the log with its header line if it does not exist yet.
// It reports whether the file was created.
func (l *FileLog) Init(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := os.Stat(l.path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat change log: %w", err)
	}

	f, err := l.openForAppend()
	if err != nil {
		return false, err
	}
	return true, f.Close()
}

// Append writes one line for entry.
func (l *FileLog) Append(ctx context.Context, entry models.LogEntry) error {
	line := FormatLine(entry, l.loc) + "\n"

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := l.openForAppend()
	if err != nil {
		return err
	}
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return fmt.Errorf("failed to append change log entry: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close change log: %w", err)
	}
	return nil
}

// openForAppend opens the log for appending, writing the header first when
// the file is new. Callers must hold l.mu.
func (l *FileLog) openForAppend() (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create change log directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open change log: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat change log: %w", err)
	}
	if info.Size() == 0 {
		if _, err := f.WriteString(constants.ChangeLogHeader + "\n"); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write change log header: %w", err)
		}
	}
	return f, nil
}

// QueryRange returns every entry with a timestamp at or after cutoff, in
// file order. Malformed lines are skipped and reported, never fatal.
func (l *FileLog) QueryRange(ctx context.Context, cutoff time.Time) (*QueryResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrLogUnavailable
		}
		return nil, fmt.Errorf("%w: %v", ErrLogUnavailable, err)
	}
	defer f.Close()

	results, err := Scan(f, l.loc)
	if err != nil {
		return nil, fmt.Errorf("failed to read change log: %w", err)
	}

	out := &QueryResult{Records: make([]Record, 0)}
	for _, res := range results {
		if res.Err != nil {
			l.logger.Warn("skipping malformed change log line",
				"line", res.Line, "error", res.Err)
			out.Skipped = append(out.Skipped, res)
			continue
		}
		if res.Entry.Timestamp.Before(cutoff) {
			continue
		}
		out.Records = append(out.Records, Record{Line: res.Line, Raw: res.Raw, Entry: res.Entry})
	}
	return out, nil
}

// RawLines returns every line of the log, header included. A missing log
// yields ErrLogUnavailable.
func (l *FileLog) RawLines(ctx context.Context) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrLogUnavailable
		}
		return nil, fmt.Errorf("failed to open change log: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := newScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read change log: %w", err)
	}
	return lines, nil
}

// Replace swaps the whole log for lines. It exists for restoring backups;
// normal operation only appends.
func (l *FileLog) Replace(ctx context.Context, lines []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0700); err != nil {
		return fmt.Errorf("failed to create change log directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".changelog-restore-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	for _, line := range lines {
		w.WriteString(line)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write change log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close change log: %w", err)
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace change log: %w", err)
	}
	return nil
}

// Scan reads r line by line and returns one LineResult per entry line.
// Header and blank lines are omitted; malformed lines carry Err.
func Scan(r io.Reader, loc *time.Location) ([]LineResult, error) {
	var results []LineResult
	scanner := newScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		raw := scanner.Text()
		if raw == "" || isHeader(raw) {
			continue
		}
		entry, err := ParseLine(raw, loc)
		results = append(results, LineResult{Line: lineNum, Raw: raw, Entry: entry, Err: err})
	}
	if err := scanner.Err(); err != nil {
		return results, err
	}
	return results, nil
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return scanner
}
