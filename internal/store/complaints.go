package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/complaintpipe/complaintpipe/internal/model"
)

// UpsertResult reports how many of a batch's rows were newly inserted vs
// updated an existing sr_number.
type UpsertResult struct {
	Inserted int
	Updated  int
}

// UpsertComplaints inserts rows keyed by SRNumber, updating all non-key
// columns on conflict, atomically for the whole batch: the whole file's
// upsert is one transaction, so a mid-batch failure leaves no partial
// commit (per the Ingestor's atomicity requirement).
//
// This is the canonical ON-DUPLICATE-KEY-UPDATE upsert semantic: records
// without an SRNumber are skipped and counted as neither inserted nor
// updated.
func (s *Store) UpsertComplaints(ctx context.Context, rows []model.ComplaintRaw) (UpsertResult, error) {
	var result UpsertResult
	if len(rows) == 0 {
		return result, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("store: begin upsert tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO complaints_raw (
			sr_number, sr_row_id, mdn, open_ts, close_ts, open_date,
			sr_type, sr_sub_type, sr_status, sr_sub_status,
			region, city, exc_id, cabinet_id, dp_id, switch_id,
			rca, desc_text, priority, product, sub_product, cust_seg, sr_duration
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(sr_number) DO UPDATE SET
			sr_row_id = excluded.sr_row_id,
			mdn = excluded.mdn,
			open_ts = excluded.open_ts,
			close_ts = excluded.close_ts,
			open_date = excluded.open_date,
			sr_type = excluded.sr_type,
			sr_sub_type = excluded.sr_sub_type,
			sr_status = excluded.sr_status,
			sr_sub_status = excluded.sr_sub_status,
			region = excluded.region,
			city = excluded.city,
			exc_id = excluded.exc_id,
			cabinet_id = excluded.cabinet_id,
			dp_id = excluded.dp_id,
			switch_id = excluded.switch_id,
			rca = excluded.rca,
			desc_text = excluded.desc_text,
			priority = excluded.priority,
			product = excluded.product,
			sub_product = excluded.sub_product,
			cust_seg = excluded.cust_seg,
			sr_duration = excluded.sr_duration
	`)
	if err != nil {
		return result, fmt.Errorf("store: prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if r.SRNumber == "" {
			continue
		}
		existed, err := rowExists(ctx, tx, r.SRNumber)
		if err != nil {
			return result, fmt.Errorf("store: check existing sr_number: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			r.SRNumber, nullable(r.SRRowID), nullable(r.MDN),
			r.OpenTS.UTC().Format(time.RFC3339), nullableTime(r.CloseTS), r.OpenDate,
			nullable(r.SRType), nullable(r.SRSubType), nullable(r.SRStatus), nullable(r.SRSubStatus),
			nullable(r.Region), nullable(r.City), nullable(r.ExcID), nullable(r.CabinetID),
			nullable(r.DPID), nullable(r.SwitchID), nullable(r.RCA), nullable(r.DescText),
			nullable(r.Priority), nullable(r.Product), nullable(r.SubProduct), nullable(r.CustSeg),
			nullable(r.SRDuration),
		); err != nil {
			return result, fmt.Errorf("store: upsert sr_number %s: %w", r.SRNumber, err)
		}
		if existed {
			result.Updated++
		} else {
			result.Inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("store: commit upsert tx: %w", err)
	}
	return result, nil
}

func rowExists(ctx context.Context, tx *sql.Tx, srNumber string) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM complaints_raw WHERE sr_number = ?`, srNumber).Scan(&n)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CountByDimension returns daily_count(k, d) for every key of a dimension
// column, over the closed date range [from, to] (both inclusive,
// YYYY-MM-DD strings), keyed by (dimension_key, date).
func (s *Store) CountByDimension(ctx context.Context, column string, from, to string) (map[string]map[string]int, error) {
	if !validColumn(column) {
		return nil, fmt.Errorf("store: invalid dimension column %q", column)
	}
	query := fmt.Sprintf(`
		SELECT %s AS key, open_date, COUNT(*)
		FROM complaints_raw
		WHERE open_date BETWEEN ? AND ? AND %s IS NOT NULL AND %s != ''
		GROUP BY %s, open_date
	`, column, column, column, column)

	rows, err := s.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("store: count by dimension: %w", err)
	}
	defer rows.Close()

	out := make(map[string]map[string]int)
	for rows.Next() {
		var key, date string
		var count int
		if err := rows.Scan(&key, &date, &count); err != nil {
			return nil, err
		}
		if out[key] == nil {
			out[key] = make(map[string]int)
		}
		out[key][date] = count
	}
	return out, rows.Err()
}

// CountOnDate returns daily_count(k, D) for every key of a dimension column
// observed on exactly one date.
func (s *Store) CountOnDate(ctx context.Context, column string, date string) (map[string]int, error) {
	byDate, err := s.CountByDimension(ctx, column, date, date)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(byDate))
	for key, perDate := range byDate {
		out[key] = perDate[date]
	}
	return out, nil
}

// validColumn is an allowlist guard: callers pass dimension.Dimension-derived
// column names, never user input, but the guard keeps the fmt.Sprintf above
// honest against a future caller mistake.
func validColumn(column string) bool {
	switch column {
	case "sr_type", "region", "exc_id", "city", "rca":
		return true
	default:
		return false
	}
}
