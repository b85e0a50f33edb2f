// Package baseline computes the rolling mean/stddev of each dimension key's
// daily count, excluding the target day itself, and persists one snapshot
// file per dimension for Anomaly to consume.
package baseline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/complaintpipe/complaintpipe/internal/dimension"
	"github.com/complaintpipe/complaintpipe/internal/model"
	"github.com/complaintpipe/complaintpipe/internal/store"
)

const lookbackDays = 35

// Result reports per-dimension key counts computed, used by the Orchestrator
// for logging and by the EmptyWindowWarning check.
type Result struct {
	Status       string // "success" or "warning"
	PerDimension map[string]int // dimension name -> keys computed
}

// Run computes baselines for target date D over [D-35, D-1] for every
// configured dimension, writing one snapshot file per dimension under dir.
func Run(ctx context.Context, s *store.Store, dims []dimension.Dimension, windows []int, dir string, target time.Time) (Result, error) {
	from := target.AddDate(0, 0, -lookbackDays).Format("2006-01-02")
	to := target.AddDate(0, 0, -1).Format("2006-01-02")

	result := Result{Status: "success", PerDimension: make(map[string]int)}

	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	for _, d := range dims {
		d := d
		g.Go(func() error {
			counts, err := s.CountByDimension(gctx, d.Column, from, to)
			if err != nil {
				return fmt.Errorf("baseline: %s: %w", d.Name, err)
			}

			byKey := computeWindows(counts, windows, target)
			if len(byKey) == 0 {
				mu.Lock()
				result.Status = "warning"
				mu.Unlock()
			}
			if err := store.WriteBaseline(dir, d.Name, byKey); err != nil {
				return fmt.Errorf("baseline: writing %s: %w", d.Name, err)
			}

			mu.Lock()
			result.PerDimension[d.Name] = len(byKey)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	return result, nil
}

// computeWindows turns a key->date->count map into per-key, per-window
// baseline points. A missing day for a key is treated as an absent sample,
// never a zero, so a brand-new key's window is built only from the days it
// actually appears on.
func computeWindows(counts map[string]map[string]int, windows []int, target time.Time) map[string]map[int]model.BaselinePoint {
	out := make(map[string]map[int]model.BaselinePoint, len(counts))
	for key, byDate := range counts {
		windowMap := make(map[int]model.BaselinePoint, len(windows))
		for _, w := range windows {
			var samples []float64
			for offset := 1; offset <= w; offset++ {
				d := target.AddDate(0, 0, -offset).Format("2006-01-02")
				if c, ok := byDate[d]; ok {
					samples = append(samples, float64(c))
				}
			}
			var avg, std float64
			if len(samples) > 0 {
				avg = stat.Mean(samples, nil)
			}
			if len(samples) >= 2 {
				std = stat.StdDev(samples, nil)
			}
			windowMap[w] = model.BaselinePoint{
				DimensionKey: key,
				Window:       w,
				Avg:          avg,
				Std:          std,
				Samples:      len(samples),
			}
		}
		out[key] = windowMap
	}
	return out
}
