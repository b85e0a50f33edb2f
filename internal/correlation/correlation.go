// Package correlation augments each non-RCA anomaly's rca_context with
// Pearson-correlated series from the other dimensions' top-volume keys.
package correlation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/complaintpipe/complaintpipe/internal/dimension"
	"github.com/complaintpipe/complaintpipe/internal/model"
	"github.com/complaintpipe/complaintpipe/internal/store"
)

const (
	lookbackDays    = 30
	topCandidates   = 5
	minOverlap      = 3
	correlationFloor = 0.7
)

type match struct {
	key string
	rho float64
}

// Run appends a "Correlated with: ..." clause to every anomaly on target
// whose dimension is not RCA, correlating its series against the top-5
// keys by volume in each other configured dimension.
func Run(ctx context.Context, s *store.Store, dims []dimension.Dimension, anomalies []model.DailyAnomaly, target time.Time) error {
	date := target.Format("2006-01-02")
	from := target.AddDate(0, 0, -lookbackDays).Format("2006-01-02")

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
		series1, err := s.SeriesForKey(ctx, own.Column, a.DimensionKey, from, date)
		if err != nil {
			return fmt.Errorf("correlation: series for %s/%s: %w", a.Dimension, a.DimensionKey, err)
		}

		var matches []match
		for _, other := range dims {
			if other.Name == a.Dimension {
				continue
			}
			candidates, err := s.TopKeysByVolume(ctx, other.Column, from, date, topCandidates)
			if err != nil {
				return fmt.Errorf("correlation: top keys for %s: %w", other.Name, err)
			}
			for _, candidateKey := range candidates {
				series2, err := s.SeriesForKey(ctx, other.Column, candidateKey, from, date)
				if err != nil {
					return fmt.Errorf("correlation: series for %s/%s: %w", other.Name, candidateKey, err)
				}
				rho, ok := pearsonInnerJoin(series1, series2)
				if !ok || !(rho > correlationFloor) {
					continue
				}
				matches = append(matches, match{key: candidateKey, rho: rho})
			}
		}

		if len(matches) == 0 {
			continue
		}
		sort.Slice(matches, func(i, j int) bool {
			if matches[i].rho != matches[j].rho {
				return matches[i].rho > matches[j].rho
			}
			return matches[i].key < matches[j].key
		})

		parts := make([]string, len(matches))
		for i, m := range matches {
			parts[i] = fmt.Sprintf("%s (%.2f)", m.key, m.rho)
		}
		clause := "Correlated with: " + strings.Join(parts, ", ")
		newContext := appendContext(a.RCAContext, clause)
		if err := s.UpdateAnomalyRCAContext(ctx, date, a.Dimension, a.DimensionKey, newContext); err != nil {
			return fmt.Errorf("correlation: updating %s/%s: %w", a.Dimension, a.DimensionKey, err)
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

// pearsonInnerJoin aligns two date-keyed series on their overlapping dates
// (never by position) and requires at least minOverlap points.
func pearsonInnerJoin(a, b map[string]int) (float64, bool) {
	var xs, ys []float64
	for date, av := range a {
		if bv, ok := b[date]; ok {
			xs = append(xs, float64(av))
			ys = append(ys, float64(bv))
		}
	}
	if len(xs) < minOverlap {
		return 0, false
	}
	return stat.Correlation(xs, ys, nil), true
}
