package store

import (
	"context"
	"fmt"
	"time"

	"github.com/complaintpipe/complaintpipe/internal/model"
)

func (s *Store) ReplaceMTTR(ctx context.Context, date string, rows []model.DailyMTTR) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin mttr tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM daily_mttr WHERE metric_date = ?`, date); err != nil {
		return fmt.Errorf("store: delete mttr: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO daily_mttr (metric_date, dimension, dimension_key, mean_hours, sample_count)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range rows {
		if _, err := stmt.ExecContext(ctx, date, m.Dimension, m.DimensionKey, m.MeanHours, m.SampleCount); err != nil {
			return fmt.Errorf("store: insert mttr: %w", err)
		}
	}
	return tx.Commit()
}

func (s *Store) ReplaceAging(ctx context.Context, date string, rows []model.DailyAging) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin aging tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM daily_aging WHERE metric_date = ?`, date); err != nil {
		return fmt.Errorf("store: delete aging: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO daily_aging (metric_date, dimension, dimension_key, slab, count)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range rows {
		if _, err := stmt.ExecContext(ctx, date, a.Dimension, a.DimensionKey, a.Slab, a.Count); err != nil {
			return fmt.Errorf("store: insert aging: %w", err)
		}
	}
	return tx.Commit()
}

// ResolvedOnDate returns the open/close timestamps of rows closed on date
// with a duration of at least minSeconds, for the MTTR computation.
func (s *Store) ResolvedOnDate(ctx context.Context, date string, minSeconds float64) ([]model.ComplaintRaw, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sr_number, region, city, exc_id, open_ts, close_ts
		FROM complaints_raw
		WHERE close_ts IS NOT NULL
		  AND substr(close_ts, 1, 10) = ?
		  AND (julianday(close_ts) - julianday(open_ts)) * 86400.0 >= ?
	`, date, minSeconds)
	if err != nil {
		return nil, fmt.Errorf("store: query resolved: %w", err)
	}
	defer rows.Close()

	var out []model.ComplaintRaw
	for rows.Next() {
		var r model.ComplaintRaw
		var openTS, closeTS string
		if err := rows.Scan(&r.SRNumber, &r.Region, &r.City, &r.ExcID, &openTS, &closeTS); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339, openTS); err == nil {
			r.OpenTS = t
		}
		if t, err := time.Parse(time.RFC3339, closeTS); err == nil {
			r.CloseTS = &t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// OpenAsOfDate returns rows that are still open as of end-of-day(date): not
// Closed, and close_ts either null or after end of that day.
func (s *Store) OpenAsOfDate(ctx context.Context, date string, endOfDay time.Time) ([]model.ComplaintRaw, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sr_number, region, city, exc_id, open_ts, close_ts
		FROM complaints_raw
		WHERE open_date <= ?
		  AND (sr_status IS NULL OR sr_status != 'Closed')
		  AND (close_ts IS NULL OR close_ts > ?)
	`, date, endOfDay.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("store: query open as of date: %w", err)
	}
	defer rows.Close()

	var out []model.ComplaintRaw
	for rows.Next() {
		var r model.ComplaintRaw
		var openTS string
		var closeTS *string
		if err := rows.Scan(&r.SRNumber, &r.Region, &r.City, &r.ExcID, &openTS, &closeTS); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339, openTS); err == nil {
			r.OpenTS = t
		}
		if closeTS != nil {
			if t, err := time.Parse(time.RFC3339, *closeTS); err == nil {
				r.CloseTS = &t
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
