package changelog

import "time"

// Range names a history window ending now.
type Range string

const (
	RangeWeek     Range = "week"      // last 7 days
	RangeMonth    Range = "month"     // last 30 days
	RangeHalfYear Range = "half_year" // last 180 days
	RangeYear     Range = "year"      // last 365 days
	RangeAll      Range = "all"       // everything
)

// MinTime is the earliest timestamp a change log line can express.
var MinTime = time.Date(0, time.January, 1, 0, 0, 0, 0, time.UTC)

// rangeDays maps bounded ranges to their length in days.
var rangeDays = map[Range]int{
	RangeWeek:     7,
	RangeMonth:    30,
	RangeHalfYear: 180,
	RangeYear:     365,
}

// ParseRange maps a range name to a Range. Unrecognized names yield RangeWeek.
func ParseRange(s string) Range {
	r := Range(s)
	if r == RangeAll {
		return r
	}
	if _, ok := rangeDays[r]; ok {
		return r
	}
	return RangeWeek
}

// Cutoff returns the earliest timestamp (inclusive) covered by r at now.
func (r Range) Cutoff(now time.Time) time.Time {
	if r == RangeAll {
		return MinTime
	}
	days, ok := rangeDays[r]
	if !ok {
		days = rangeDays[RangeWeek]
	}
	return now.Add(-time.Duration(days) * 24 * time.Hour)
}

// String returns the range name.
func (r Range) String() string {
	return string(r)
}
