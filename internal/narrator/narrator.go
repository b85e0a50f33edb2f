// Package narrator emits deterministic, templated ExecInsight rows from
// anomalies that reached WARNING or CRITICAL severity.
package narrator

import (
	"context"
	"fmt"
	"time"

	"github.com/complaintpipe/complaintpipe/internal/model"
	"github.com/complaintpipe/complaintpipe/internal/store"
)

// Run builds one ExecInsight per qualifying anomaly and, for target, replaces
// prior insights that carry the same titles (fixing the bug where re-running the
// pipeline for the same date would otherwise duplicate insights: the
// delete is scoped by (created_at date, title), not left unscoped).
func Run(ctx context.Context, s *store.Store, anomalies []model.DailyAnomaly, target time.Time) ([]model.ExecInsight, error) {
	date := target.Format("2006-01-02")
	now := target

	var insights []model.ExecInsight
	for _, a := range anomalies {
		if a.Severity != model.SeverityWarning && a.Severity != model.SeverityCritical {
			continue
		}

		title := fmt.Sprintf("Spike in %s (%s)", a.DimensionKey, a.Dimension)
		summary := fmt.Sprintf(
			"Observed %.0f complaints (baseline avg %.1f, z-score %.1fσ), severity %s.",
			a.MetricValue, a.BaselineAvg, a.ZScore, a.Severity,
		)
		if a.RCAContext != "" {
			summary += "\n" + a.RCAContext
		}

		insights = append(insights, model.ExecInsight{
			CreatedAt: now,
			Title:     title,
			Summary:   summary,
			Severity:  a.Severity,
		})
	}

	if err := s.ReplaceInsightsForDate(ctx, date, insights); err != nil {
		return nil, fmt.Errorf("narrator: persisting insights: %w", err)
	}
	return insights, nil
}
