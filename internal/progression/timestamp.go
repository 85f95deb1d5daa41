package progression

import (
	"strings"
	"time"

	"github.com/nvandessel/lvlup/internal/changelog"
)

// DateLayout is the calendar-date format accepted from clients.
const DateLayout = "2006-01-02"

// ResolveTimestamp picks the timestamp for a mutation from a client-supplied
// date. A bare date (YYYY-MM-DD) is combined with now's time of day; a full
// change log timestamp is used as is. Empty or unparsable input yields now.
// The second result reports whether date was used.
func ResolveTimestamp(date string, now time.Time) (time.Time, bool) {
	date = strings.TrimSpace(date)
	if date == "" {
		return now, false
	}

	loc := now.Location()
	if ts, err := time.ParseInLocation(changelog.TimeLayout, date, loc); err == nil {
		return ts, true
	}
	if d, err := time.ParseInLocation(DateLayout, date, loc); err == nil {
		return time.Date(d.Year(), d.Month(), d.Day(),
			now.Hour(), now.Minute(), now.Second(), 0, loc), true
	}
	return now, false
}
