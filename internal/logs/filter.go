package logs

import (
	"strings"
	"time"
)

// Filter is the combined predicate applied to each line. Search must
// already be lowercased by the caller; a zero Start or End means the
// corresponding bound is off.
type Filter struct {
	Search string
	Start  time.Time
	End    time.Time
}

func (f Filter) timeBounded() bool { return !f.Start.IsZero() || !f.End.IsZero() }

// Match reports whether a raw line passes the filter. The text stage runs
// first so a substring miss never pays for timestamp parsing. When any
// time bound is active, lines without an extractable timestamp are
// excluded; with no bounds the time stage is skipped entirely and such
// lines pass.
func (f Filter) Match(line string) bool {
	if f.Search != "" && !strings.Contains(strings.ToLower(line), f.Search) {
		return false
	}
	if !f.timeBounded() {
		return true
	}
	ts, ok := ExtractTimestamp(line)
	if !ok {
		return false
	}
	if !f.Start.IsZero() && ts.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && ts.After(f.End) {
		return false
	}
	return true
}
