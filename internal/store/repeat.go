package store

import (
	"context"
	"fmt"
	"time"

	"github.com/complaintpipe/complaintpipe/internal/model"
)

// RowsInWindow returns every complaints_raw row with open_date in
// [from, to], used by the Repeat stage to group by MDN over its 30-day
// window.
func (s *Store) RowsInWindow(ctx context.Context, from, to string) ([]model.ComplaintRaw, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sr_number, COALESCE(mdn, ''), open_date, COALESCE(region, ''),
		       COALESCE(city, ''), COALESCE(exc_id, ''), COALESCE(sr_sub_type, '')
		FROM complaints_raw
		WHERE open_date BETWEEN ? AND ?
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("store: rows in window: %w", err)
	}
	defer rows.Close()

	var out []model.ComplaintRaw
	for rows.Next() {
		var r model.ComplaintRaw
		if err := rows.Scan(&r.SRNumber, &r.MDN, &r.OpenDate, &r.Region, &r.City, &r.ExcID, &r.SRSubType); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TimestampsInWindow returns sr_number/open_ts/close_ts for every row with
// open_date in [from, to], used by Validate to check open_ts/close_ts
// ordering without paying for columns that check doesn't need.
func (s *Store) TimestampsInWindow(ctx context.Context, from, to string) ([]model.ComplaintRaw, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sr_number, open_ts, close_ts
		FROM complaints_raw
		WHERE open_date BETWEEN ? AND ?
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("store: timestamps in window: %w", err)
	}
	defer rows.Close()

	var out []model.ComplaintRaw
	for rows.Next() {
		var r model.ComplaintRaw
		var openTS string
		var closeTS *string
		if err := rows.Scan(&r.SRNumber, &openTS, &closeTS); err != nil {
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
