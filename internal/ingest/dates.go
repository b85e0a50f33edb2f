package ingest

import (
	"strings"
	"time"
)

// dateFormats is the ordered catalog of timestamp patterns attempted
// against every open_ts/close_ts value, day-first and month-first, 24h and
// 12h, plus ISO. Coalesce semantics: the first pattern to parse a given raw
// value wins; different rows in the same column may match different
// patterns.
var dateFormats = []string{
	"02-Jan-06 15:04:05",
	"2006-01-02 15:04:05",
	"01/02/2006 15:04:05",
	"02/01/2006 15:04:05",
	"02-01-2006 15:04:05",
	"2006/01/02 15:04:05",
	"01/02/06 15:04:05",
	"02/01/06 15:04:05",
	"2006-01-02T15:04:05",
	"02-Jan-2006 15:04:05",
	"01/02/2006 03:04:05 PM",
	"02/01/2006 03:04:05 PM",
	"2006-01-02 03:04:05 PM",
	time.RFC3339,
}

// parseTimestamp tries every pattern in order and returns the first
// successful parse.
func parseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
