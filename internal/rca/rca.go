// Package rca appends the top-3 most frequent rca values within each
// anomaly's scope to its rca_context.
package rca

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/complaintpipe/complaintpipe/internal/dimension"
	"github.com/complaintpipe/complaintpipe/internal/model"
	"github.com/complaintpipe/complaintpipe/internal/store"
)

const topN = 3

// Run appends a "Probable RCA: ..." clause to every anomaly on target whose
// dimension is one of Type/Region/Exchange/City.
func Run(ctx context.Context, s *store.Store, dims []dimension.Dimension, anomalies []model.DailyAnomaly, target time.Time) error {
	date := target.Format("2006-01-02")
	dimByName := make(map[string]dimension.Dimension, len(dims))
	for _, d := range dims {
		dimByName[d.Name] = d
	}

	for _, a := range anomalies {
		if a.Dimension == dimension.RCA.Name {
			continue
		}
		own, ok := dimByName[a.Dimension]
		if !ok {
			continue
		}

		counts, total, err := s.RCACountsInScope(ctx, date, own.Column, a.DimensionKey)
		if err != nil {
			return fmt.Errorf("rca: counts for %s/%s: %w", a.Dimension, a.DimensionKey, err)
		}
		if total == 0 || len(counts) == 0 {
			continue
		}

		type entry struct {
			value string
			count int
		}
		entries := make([]entry, 0, len(counts))
		for v, c := range counts {
			entries = append(entries, entry{v, c})
		}
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].count != entries[j].count {
				return entries[i].count > entries[j].count
			}
			return entries[i].value < entries[j].value
		})
		if len(entries) > topN {
			entries = entries[:topN]
		}

		clause := "Probable RCA: "
		for i, e := range entries {
			if i > 0 {
				clause += ", "
			}
			pct := float64(e.count) / float64(total) * 100
			clause += fmt.Sprintf("%s (%.0f%%)", e.value, pct)
		}

		newContext := appendContext(a.RCAContext, clause)
		if err := s.UpdateAnomalyRCAContext(ctx, date, a.Dimension, a.DimensionKey, newContext); err != nil {
			return fmt.Errorf("rca: updating %s/%s: %w", a.Dimension, a.DimensionKey, err)
		}
	}
	return nil
}

func appendContext(existing, clause string) string {
	if existing == "" {
		return clause
	}
	return existing + "\n" + clause
}
