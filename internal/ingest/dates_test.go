package ingest

import (
	"testing"
	"time"
)

func TestParseTimestamp_MultipleFormats(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Time
	}{
		{"15-Jan-26 14:30:00", time.Date(2026, 1, 15, 14, 30, 0, 0, time.UTC)},
		{"2026-01-15 14:30:00", time.Date(2026, 1, 15, 14, 30, 0, 0, time.UTC)},
		{"01/15/2026 14:30:00", time.Date(2026, 1, 15, 14, 30, 0, 0, time.UTC)},
		{"2026-01-15T14:30:00", time.Date(2026, 1, 15, 14, 30, 0, 0, time.UTC)},
		{"01/15/2026 02:30:00 PM", time.Date(2026, 1, 15, 14, 30, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		got, ok := parseTimestamp(c.raw)
		if !ok {
			t.Errorf("parseTimestamp(%q) failed to parse", c.raw)
			continue
		}
		if !got.Equal(c.want) {
			t.Errorf("parseTimestamp(%q) = %v, want %v", c.raw, got, c.want)
		}
	}
}

func TestParseTimestamp_Unparseable(t *testing.T) {
	if _, ok := parseTimestamp("not a date"); ok {
		t.Fatal("expected unparseable string to fail")
	}
	if _, ok := parseTimestamp(""); ok {
		t.Fatal("expected empty string to fail")
	}
}
