package store

import (
	"context"
	"fmt"

	"github.com/complaintpipe/complaintpipe/internal/model"
)

// ReplaceAnomalies deletes all daily_anomalies rows for date, then inserts
// the given set, as one transaction: §5's delete-before-insert idempotency
// contract for derived tables.
func (s *Store) ReplaceAnomalies(ctx context.Context, date string, rows []model.DailyAnomaly) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin anomalies tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM daily_anomalies WHERE anomaly_date = ?`, date); err != nil {
		return fmt.Errorf("store: delete anomalies: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO daily_anomalies (
			anomaly_date, dimension, dimension_key, metric_value,
			baseline_avg, baseline_std, z_score, severity, rca_context
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("store: prepare anomaly insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range rows {
		if _, err := stmt.ExecContext(ctx, date, a.Dimension, a.DimensionKey, a.MetricValue,
			a.BaselineAvg, a.BaselineStd, a.ZScore, a.Severity, nullable(a.RCAContext)); err != nil {
			return fmt.Errorf("store: insert anomaly: %w", err)
		}
	}

	return tx.Commit()
}

// UpdateAnomalyRCAContext augments (never deletes) an anomaly row's
// rca_context text, used by Correlation and RCA which only append text to
// existing rows in the set Anomaly produced this run.
func (s *Store) UpdateAnomalyRCAContext(ctx context.Context, date, dimension, dimensionKey, rcaContext string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE daily_anomalies SET rca_context = ?
		WHERE anomaly_date = ? AND dimension = ? AND dimension_key = ?
	`, rcaContext, date, dimension, dimensionKey)
	return err
}

// UpdateAnomalySeverity sets a single anomaly row's severity to the given
// value; the Severity stage uses it only to upgrade rows to CRITICAL.
func (s *Store) UpdateAnomalySeverity(ctx context.Context, date, dimension, dimensionKey, severity string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE daily_anomalies SET severity = ?
		WHERE anomaly_date = ? AND dimension = ? AND dimension_key = ?
	`, severity, date, dimension, dimensionKey)
	return err
}

func (s *Store) AnomaliesForDate(ctx context.Context, date string) ([]model.DailyAnomaly, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, anomaly_date, dimension, dimension_key, metric_value, baseline_avg, baseline_std, z_score, severity, COALESCE(rca_context, '')
		FROM daily_anomalies WHERE anomaly_date = ?
	`, date)
	if err != nil {
		return nil, fmt.Errorf("store: query anomalies: %w", err)
	}
	defer rows.Close()

	var out []model.DailyAnomaly
	for rows.Next() {
		var a model.DailyAnomaly
		if err := rows.Scan(&a.ID, &a.AnomalyDate, &a.Dimension, &a.DimensionKey, &a.MetricValue,
			&a.BaselineAvg, &a.BaselineStd, &a.ZScore, &a.Severity, &a.RCAContext); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AnomalyKeysForDate returns the set of (dimension, dimension_key) pairs
// with an anomaly on date, used by the Severity stage's persistence check
// (same key existed on D-1).
func (s *Store) AnomalyKeysForDate(ctx context.Context, date string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT dimension, dimension_key FROM daily_anomalies WHERE anomaly_date = ?`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var dim, key string
		if err := rows.Scan(&dim, &key); err != nil {
			return nil, err
		}
		out[dim+"|"+key] = true
	}
	return out, rows.Err()
}
