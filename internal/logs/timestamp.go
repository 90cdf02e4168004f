// Package logs implements the log retrieval pipeline: timestamp
// extraction across the line formats the process manager emits, combined
// text/time filtering, and bounded reverse-order file reads.
package logs

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"
)

// timestampFormats is the ordered list of (matcher, layout) pairs tried
// against each line. Order matters: the first pattern whose captured text
// also parses as a valid calendar date wins. A textual match with an
// invalid date falls through to the next entry instead of failing the
// whole extraction.
var timestampFormats = []struct {
	re     *regexp.Regexp
	layout string
}{
	// [DD-MM-YYYY HH:MM:SS] written by the frontend logger
	{regexp.MustCompile(`\[(\d{2}-\d{2}-\d{4} \d{2}:\d{2}:\d{2})\]`), "02-01-2006 15:04:05"},
	// M/D/YYYY H:MM:SS AM|PM frontend console output
	{regexp.MustCompile(`(\d{1,2}/\d{1,2}/\d{4} \d{1,2}:\d{2}:\d{2} (?:AM|PM))`), "1/2/2006 3:04:05 PM"},
	// Dow, DD Mon YYYY HH:MM:SS GMT error logs
	{regexp.MustCompile(`(\w{3}, \d{2} \w{3} \d{4} \d{2}:\d{2}:\d{2} GMT)`), "Mon, 02 Jan 2006 15:04:05 GMT"},
	// YYYY-MM-DD HH:MM:SS anywhere in the line
	{regexp.MustCompile(`(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})`), "2006-01-02 15:04:05"},
}

// ExtractTimestamp pulls a point in time out of a single log line. After
// the pattern list it tries one structured form: a line that, trimmed, is
// a JSON object carrying a numeric "time" field in milliseconds since the
// epoch (metrics output). All values are naive local time; no timezone
// normalization happens, including the literal GMT suffix of the third
// format. Malformed or ambiguous input yields ok=false, never an error.
func ExtractTimestamp(line string) (time.Time, bool) {
	for _, f := range timestampFormats {
		m := f.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if ts, err := time.ParseInLocation(f.layout, m[1], time.Local); err == nil {
			return ts, true
		}
	}
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "{") {
		var payload struct {
			Time *float64 `json:"time"`
		}
		if err := json.Unmarshal([]byte(trimmed), &payload); err == nil && payload.Time != nil {
			return time.UnixMilli(int64(*payload.Time)), true
		}
	}
	return time.Time{}, false
}

// boundLayouts are the accepted shapes for the start/end query values: the
// datetime-local input form with or without seconds, and the normalized
// space-separated form.
var boundLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// ParseTimeBound interprets a start/end query value. Unparsable input
// reports ok=false and callers treat it as "no bound".
func ParseTimeBound(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range boundLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
