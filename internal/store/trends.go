package store

import (
	"context"
	"fmt"

	"github.com/complaintpipe/complaintpipe/internal/model"
)

func (s *Store) ReplaceTrends(ctx context.Context, date string, rows []model.DailyTrend) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin trends tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM daily_trends WHERE trend_date = ?`, date); err != nil {
		return fmt.Errorf("store: delete trends: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO daily_trends (
			trend_date, dimension, dimension_key, window, trend_direction, trend_strength, significance, metric_value
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("store: prepare trend insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range rows {
		if _, err := stmt.ExecContext(ctx, date, t.Dimension, t.DimensionKey, t.Window,
			t.TrendDirection, t.TrendStrength, nullableFloat64Ptr(t.Significance), t.MetricValue); err != nil {
			return fmt.Errorf("store: insert trend: %w", err)
		}
	}

	return tx.Commit()
}

func (s *Store) TrendsForDate(ctx context.Context, date string) ([]model.DailyTrend, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trend_date, dimension, dimension_key, window, trend_direction, trend_strength, significance, metric_value
		FROM daily_trends WHERE trend_date = ?
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.DailyTrend
	for rows.Next() {
		var t model.DailyTrend
		var sig *float64
		if err := rows.Scan(&t.ID, &t.TrendDate, &t.Dimension, &t.DimensionKey, &t.Window,
			&t.TrendDirection, &t.TrendStrength, &sig, &t.MetricValue); err != nil {
			return nil, err
		}
		t.Significance = sig
		out = append(out, t)
	}
	return out, rows.Err()
}
