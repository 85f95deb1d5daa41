package changelog

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nvandessel/lvlup/internal/models"
)

// TimeLayout is the timestamp format of every change log line (second precision).
const TimeLayout = "2006-01-02 15:04:05"

// fieldSep separates fields within a line.
const fieldSep = " | "

// headerPrefix marks header/comment lines that readers ignore.
const headerPrefix = "==="

// Labels prefixed to the numeric fields. Readers accept lines with or
// without them.
const (
	labelChange  = "change: "
	labelCurrent = "current: "
	labelLevel   = "level: "
)

// lineFieldCount is the number of fields in a well-formed line.
const lineFieldCount = 6

// FormatLine renders an entry as a single change log line without a trailing newline:
//
//	2026-10-19 14:03:12 | Physical | Strength | change: +1 | current: 3/5 | level: 0
func FormatLine(e models.LogEntry, loc *time.Location) string {
	return strings.Join([]string{
		e.Timestamp.In(loc).Format(TimeLayout),
		e.Category,
		e.Stat,
		labelChange + fmt.Sprintf("%+d", e.Delta),
		labelCurrent + fmt.Sprintf("%d/%d", e.Value, e.CurrentMax),
		labelLevel + strconv.Itoa(e.Level),
	}, fieldSep)
}

// ParseLine parses one change log line. Timestamps are interpreted in loc.
// Every failure wraps ErrMalformedLine.
func ParseLine(line string, loc *time.Location) (models.LogEntry, error) {
	parts := strings.Split(line, fieldSep)
	if len(parts) != lineFieldCount {
		return models.LogEntry{}, malformedf("expected %d fields, got %d", lineFieldCount, len(parts))
	}

	ts, err := time.ParseInLocation(TimeLayout, strings.TrimSpace(parts[0]), loc)
	if err != nil {
		return models.LogEntry{}, malformedf("timestamp %q: %v", parts[0], err)
	}

	category := strings.TrimSpace(parts[1])
	stat := strings.TrimSpace(parts[2])
	if category == "" || stat == "" {
		return models.LogEntry{}, malformedf("empty category or stat")
	}

	delta, err := strconv.Atoi(fieldValue(parts[3]))
	if err != nil {
		return models.LogEntry{}, malformedf("change %q: %v", parts[3], err)
	}

	current := fieldValue(parts[4])
	valueStr, maxStr, ok := strings.Cut(current, "/")
	if !ok {
		return models.LogEntry{}, malformedf("current %q: missing '/'", parts[4])
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return models.LogEntry{}, malformedf("current value %q: %v", valueStr, err)
	}
	currentMax, err := strconv.Atoi(maxStr)
	if err != nil {
		return models.LogEntry{}, malformedf("current max %q: %v", maxStr, err)
	}

	level, err := strconv.Atoi(fieldValue(parts[5]))
	if err != nil {
		return models.LogEntry{}, malformedf("level %q: %v", parts[5], err)
	}

	return models.LogEntry{
		Timestamp:  ts,
		Category:   category,
		Stat:       stat,
		Delta:      delta,
		Value:      value,
		CurrentMax: currentMax,
		Level:      level,
	}, nil
}

// fieldValue strips an optional "label: " prefix and surrounding whitespace.
func fieldValue(field string) string {
	field = strings.TrimSpace(field)
	if _, v, ok := strings.Cut(field, ": "); ok {
		return strings.TrimSpace(v)
	}
	return field
}

// isHeader reports whether a line is a header/comment line.
func isHeader(line string) bool {
	return strings.HasPrefix(line, headerPrefix)
}

func malformedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedLine, fmt.Sprintf(format, args...))
}
