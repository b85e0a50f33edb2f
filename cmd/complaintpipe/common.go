package main

import (
	"fmt"
	"time"

	"github.com/complaintpipe/complaintpipe/internal/config"
	"github.com/complaintpipe/complaintpipe/internal/store"
)

// parseDateFlag parses a YYYY-MM-DD flag value, defaulting to yesterday
// (UTC) when empty.
func parseDateFlag(value string) (time.Time, error) {
	if value == "" {
		yesterday := time.Now().UTC().AddDate(0, 0, -1)
		return time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: %w", value, err)
	}
	return t, nil
}

func openStore(cfg config.Config) (*store.Store, error) {
	s, err := store.Open(cfg.DatabasePath, cfg.ConnectionPoolSize)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return s, nil
}
