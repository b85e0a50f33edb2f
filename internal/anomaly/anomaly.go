// Package anomaly detects per-dimension daily spikes against the Baseline
// stage's 30-day window via Z-score.
package anomaly

import (
	"context"
	"fmt"
	"time"

	"github.com/complaintpipe/complaintpipe/internal/dimension"
	"github.com/complaintpipe/complaintpipe/internal/model"
	"github.com/complaintpipe/complaintpipe/internal/store"
)

const epsilon = 1e-3
const baselineWindow = 30

// Result reports the anomalies emitted plus any dimensions skipped for lack
// of a baseline artifact (MissingBaseline, non-fatal).
type Result struct {
	Anomalies []model.DailyAnomaly
	Skipped   []string
}

// Run computes Z-scores for each configured dimension's current-day counts
// against its 30-day baseline, writing the anomaly set for date (replacing
// any prior run's rows for the same date).
func Run(ctx context.Context, s *store.Store, dims []dimension.Dimension, baselineDir string, target time.Time, warnThreshold, critThreshold float64) (Result, error) {
	date := target.Format("2006-01-02")
	var result Result

	for _, d := range dims {
		baselines, err := store.ReadBaseline(baselineDir, d.Name)
		if err != nil {
			return Result{}, fmt.Errorf("anomaly: reading baseline %s: %w", d.Name, err)
		}
		if baselines == nil {
			result.Skipped = append(result.Skipped, d.Name)
			continue
		}

		counts, err := s.CountOnDate(ctx, d.Column, date)
		if err != nil {
			return Result{}, fmt.Errorf("anomaly: counting %s: %w", d.Name, err)
		}

		for key, current := range counts {
			windows, ok := baselines[key]
			if !ok {
				continue
			}
			point, ok := windows[baselineWindow]
			if !ok {
				continue
			}

			z := (float64(current) - point.Avg) / (point.Std + epsilon)
			if z <= warnThreshold {
				continue
			}

			severity := model.SeverityWarning
			if z > critThreshold {
				severity = model.SeverityCritical
			}

			result.Anomalies = append(result.Anomalies, model.DailyAnomaly{
				AnomalyDate:  date,
				Dimension:    d.Name,
				DimensionKey: key,
				MetricValue:  float64(current),
				BaselineAvg:  point.Avg,
				BaselineStd:  point.Std,
				ZScore:       z,
				Severity:     severity,
			})
		}
	}

	if err := s.ReplaceAnomalies(ctx, date, result.Anomalies); err != nil {
		return Result{}, fmt.Errorf("anomaly: persisting: %w", err)
	}
	return result, nil
}
