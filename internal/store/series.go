package store

import (
	"context"
	"fmt"
)

// TopKeysByVolume returns the top n keys of a dimension column ranked by
// total row count over the date range [from, to], used by Correlation to
// build each anomaly's candidate set from other dimensions.
func (s *Store) TopKeysByVolume(ctx context.Context, column, from, to string, n int) ([]string, error) {
	if !validColumn(column) {
		return nil, fmt.Errorf("store: invalid dimension column %q", column)
	}
	query := fmt.Sprintf(`
		SELECT %s AS key, COUNT(*) AS total
		FROM complaints_raw
		WHERE open_date BETWEEN ? AND ? AND %s IS NOT NULL AND %s != ''
		GROUP BY %s
		ORDER BY total DESC, key ASC
		LIMIT ?
	`, column, column, column, column)

	rows, err := s.db.QueryContext(ctx, query, from, to, n)
	if err != nil {
		return nil, fmt.Errorf("store: top keys by volume: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var key string
		var total int
		if err := rows.Scan(&key, &total); err != nil {
			return nil, err
		}
		out = append(out, key)
	}
	return out, rows.Err()
}

// SeriesForKey returns the date->count series for a single dimension key
// over [from, to], suitable for Pearson correlation's inner join (callers
// must intersect series by date key, never align by position).
func (s *Store) SeriesForKey(ctx context.Context, column, key, from, to string) (map[string]int, error) {
	if !validColumn(column) {
		return nil, fmt.Errorf("store: invalid dimension column %q", column)
	}
	query := fmt.Sprintf(`
		SELECT open_date, COUNT(*)
		FROM complaints_raw
		WHERE open_date BETWEEN ? AND ? AND %s = ?
		GROUP BY open_date
	`, column)

	rows, err := s.db.QueryContext(ctx, query, from, to, key)
	if err != nil {
		return nil, fmt.Errorf("store: series for key: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var date string
		var count int
		if err := rows.Scan(&date, &count); err != nil {
			return nil, err
		}
		out[date] = count
	}
	return out, rows.Err()
}

// RCACountsInScope returns the count of each rca value among rows on date
// that match the given dimension column/key scope.
func (s *Store) RCACountsInScope(ctx context.Context, date, column, key string) (map[string]int, int, error) {
	if !validColumn(column) {
		return nil, 0, fmt.Errorf("store: invalid dimension column %q", column)
	}
	query := fmt.Sprintf(`
		SELECT COALESCE(rca, ''), COUNT(*)
		FROM complaints_raw
		WHERE open_date = ? AND %s = ?
		GROUP BY rca
	`, column)

	rows, err := s.db.QueryContext(ctx, query, date, key)
	if err != nil {
		return nil, 0, fmt.Errorf("store: rca counts in scope: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	total := 0
	for rows.Next() {
		var rca string
		var count int
		if err := rows.Scan(&rca, &count); err != nil {
			return nil, 0, err
		}
		if rca != "" {
			out[rca] = count
		}
		total += count
	}
	return out, total, rows.Err()
}
