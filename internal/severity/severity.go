// Package severity upgrades WARNING anomalies to CRITICAL on persistence
// or spread grounds. Severity never downgrades within a run.
package severity

import (
	"context"
	"fmt"
	"time"

	"github.com/complaintpipe/complaintpipe/internal/dimension"
	"github.com/complaintpipe/complaintpipe/internal/model"
	"github.com/complaintpipe/complaintpipe/internal/store"
)

// Run upgrades severity in place for anomalies on target that either
// persisted from D-1 or, for Type-dimension anomalies, co-occur with a
// widespread Region anomaly count.
func Run(ctx context.Context, s *store.Store, anomalies []model.DailyAnomaly, target time.Time, widespreadRegionCount int) error {
	date := target.Format("2006-01-02")
	prevDate := target.AddDate(0, 0, -1).Format("2006-01-02")

	prevKeys, err := s.AnomalyKeysForDate(ctx, prevDate)
	if err != nil {
		return fmt.Errorf("severity: loading prior day anomalies: %w", err)
	}

	regionCount := 0
	for _, a := range anomalies {
		if a.Dimension == dimension.Region.Name {
			regionCount++
		}
	}

	for _, a := range anomalies {
		if a.Severity == model.SeverityCritical {
			continue
		}

		persisted := prevKeys[a.Dimension+"|"+a.DimensionKey]
		spread := a.Dimension == dimension.Type.Name && regionCount > widespreadRegionCount

		if persisted || spread {
			if err := s.UpdateAnomalySeverity(ctx, date, a.Dimension, a.DimensionKey, model.SeverityCritical); err != nil {
				return fmt.Errorf("severity: upgrading %s/%s: %w", a.Dimension, a.DimensionKey, err)
			}
		}
	}
	return nil
}
