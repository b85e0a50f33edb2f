package store

import (
	"context"
	"fmt"
	"time"

	"github.com/complaintpipe/complaintpipe/internal/model"
)

// ReplaceInsightsForDate deletes exec_insights rows whose created_at falls
// on date and whose title matches one of the incoming rows, before
// inserting the new set. This fixes the known Narrator bug named in the
// design notes: the original never date-scoped its delete and would
// duplicate insights on re-run.
func (s *Store) ReplaceInsightsForDate(ctx context.Context, date string, rows []model.ExecInsight) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin insights tx: %w", err)
	}
	defer tx.Rollback()

	for _, r := range rows {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM exec_insights WHERE substr(created_at, 1, 10) = ? AND title = ?
		`, date, r.Title); err != nil {
			return fmt.Errorf("store: delete prior insight: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO exec_insights (created_at, title, summary, severity) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		createdAt := r.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		if _, err := stmt.ExecContext(ctx, createdAt.Format(time.RFC3339), r.Title, r.Summary, r.Severity); err != nil {
			return fmt.Errorf("store: insert insight: %w", err)
		}
	}

	return tx.Commit()
}
