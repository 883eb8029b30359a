package timezone

import (
	"log/slog"
	"os"
	"time"
)

// DateLayout is the calendar-date form used for ledger keys and filters.
const DateLayout = "2006-01-02"

var Location = resolve(os.Getenv("HARVEST_TZ"))

// resolve maps a HARVEST_TZ value onto a location. An unset or
// unloadable name falls back to the host's local zone with a warning
// rather than refusing to start.
func resolve(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		slog.Warn("invalid HARVEST_TZ, using local time", "tz", name, "err", err)
		return time.Local
	}
	return loc
}

// ledger date keys must be stable across machines, so everything that
// stamps or compares dates goes through this location instead of
// whatever zone the host happens to be in
func Now() time.Time {
	return time.Now().In(Location)
}

// Today returns the current calendar date in DateLayout form.
func Today() string {
	return Now().Format(DateLayout)
}

// ValidDate reports whether s is a parseable DateLayout date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
