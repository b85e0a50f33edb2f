package store

import (
	"context"
	"fmt"

	"github.com/complaintpipe/complaintpipe/internal/model"
)

func (s *Store) ReplaceVariations(ctx context.Context, date string, rows []model.DailyVariation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin variations tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM daily_variations WHERE variation_date = ?`, date); err != nil {
		return fmt.Errorf("store: delete variations: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO daily_variations (
			variation_date, dimension, dimension_key, variation_type,
			current_value, previous_value, variation_percent, is_significant
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("store: prepare variation insert: %w", err)
	}
	defer stmt.Close()

	for _, v := range rows {
		sig := 0
		if v.IsSignificant {
			sig = 1
		}
		if _, err := stmt.ExecContext(ctx, date, v.Dimension, v.DimensionKey, v.VariationType,
			v.CurrentValue, v.PreviousValue, v.VariationPercent, sig); err != nil {
			return fmt.Errorf("store: insert variation: %w", err)
		}
	}

	return tx.Commit()
}
