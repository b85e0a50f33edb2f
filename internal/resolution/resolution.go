// Package resolution computes mean-time-to-resolution and open-ticket
// aging, both as Total plus per-dimension breakdowns over Region, City, and
// Exchange.
package resolution

import (
	"context"
	"fmt"
	"time"

	"github.com/complaintpipe/complaintpipe/internal/model"
	"github.com/complaintpipe/complaintpipe/internal/store"
)

const minResolutionSeconds = 300

// Result bundles both derived tables for one run.
type Result struct {
	MTTR  []model.DailyMTTR
	Aging []model.DailyAging
}

// Run computes MTTR over rows closed on target and aging over rows still
// open as of end-of-day(target), persisting both.
func Run(ctx context.Context, s *store.Store, target time.Time) (Result, error) {
	date := target.Format("2006-01-02")

	resolved, err := s.ResolvedOnDate(ctx, date, minResolutionSeconds)
	if err != nil {
		return Result{}, fmt.Errorf("resolution: loading resolved rows: %w", err)
	}
	mttr := computeMTTR(date, resolved)
	if err := s.ReplaceMTTR(ctx, date, mttr); err != nil {
		return Result{}, fmt.Errorf("resolution: persisting mttr: %w", err)
	}

	endOfDay := time.Date(target.Year(), target.Month(), target.Day(), 23, 59, 59, 0, target.Location())
	open, err := s.OpenAsOfDate(ctx, date, endOfDay)
	if err != nil {
		return Result{}, fmt.Errorf("resolution: loading open rows: %w", err)
	}
	aging := computeAging(date, open, endOfDay)
	if err := s.ReplaceAging(ctx, date, aging); err != nil {
		return Result{}, fmt.Errorf("resolution: persisting aging: %w", err)
	}

	return Result{MTTR: mttr, Aging: aging}, nil
}

type scopedRows struct {
	total    []model.ComplaintRaw
	byRegion map[string][]model.ComplaintRaw
	byCity   map[string][]model.ComplaintRaw
	byExc    map[string][]model.ComplaintRaw
}

func scope(rows []model.ComplaintRaw) scopedRows {
	s := scopedRows{byRegion: map[string][]model.ComplaintRaw{}, byCity: map[string][]model.ComplaintRaw{}, byExc: map[string][]model.ComplaintRaw{}}
	for _, r := range rows {
		s.total = append(s.total, r)
		if r.Region != "" {
			s.byRegion[r.Region] = append(s.byRegion[r.Region], r)
		}
		if r.City != "" {
			s.byCity[r.City] = append(s.byCity[r.City], r)
		}
		if r.ExcID != "" {
			s.byExc[r.ExcID] = append(s.byExc[r.ExcID], r)
		}
	}
	return s
}

func computeMTTR(date string, rows []model.ComplaintRaw) []model.DailyMTTR {
	s := scope(rows)
	var out []model.DailyMTTR

	if len(s.total) > 0 {
		out = append(out, mttrRow(date, "Total", "", s.total))
	}
	for key, rs := range s.byRegion {
		out = append(out, mttrRow(date, "Region", key, rs))
	}
	for key, rs := range s.byCity {
		out = append(out, mttrRow(date, "City", key, rs))
	}
	for key, rs := range s.byExc {
		out = append(out, mttrRow(date, "Exchange", key, rs))
	}
	return out
}

func mttrRow(date, dimension, key string, rows []model.ComplaintRaw) model.DailyMTTR {
	var totalHours float64
	n := 0
	for _, r := range rows {
		if r.CloseTS == nil {
			continue
		}
		totalHours += r.CloseTS.Sub(r.OpenTS).Hours()
		n++
	}
	mean := 0.0
	if n > 0 {
		mean = totalHours / float64(n)
	}
	return model.DailyMTTR{
		MetricDate: date, Dimension: dimension, DimensionKey: key,
		MeanHours: mean, SampleCount: n,
	}
}

func computeAging(date string, rows []model.ComplaintRaw, asOf time.Time) []model.DailyAging {
	s := scope(rows)

	totalSlabs := slabCounts(s.total, asOf)
	var out []model.DailyAging
	for _, slab := range model.AgingSlabs {
		if c := totalSlabs[slab.Name]; c > 0 {
			out = append(out, model.DailyAging{MetricDate: date, Dimension: "Total", DimensionKey: "", Slab: slab.Name, Count: c})
		}
	}
	appendDimensionSlabs(&out, date, "Region", s.byRegion, asOf)
	appendDimensionSlabs(&out, date, "City", s.byCity, asOf)
	appendDimensionSlabs(&out, date, "Exchange", s.byExc, asOf)
	return out
}

func appendDimensionSlabs(out *[]model.DailyAging, date, dimension string, byKey map[string][]model.ComplaintRaw, asOf time.Time) {
	for key, rows := range byKey {
		counts := slabCounts(rows, asOf)
		for _, slab := range model.AgingSlabs {
			if c := counts[slab.Name]; c > 0 {
				*out = append(*out, model.DailyAging{MetricDate: date, Dimension: dimension, DimensionKey: key, Slab: slab.Name, Count: c})
			}
		}
	}
}

// slabCounts buckets each row into the largest aging slab it satisfies, per
// model.AgingSlabs's descending order.
func slabCounts(rows []model.ComplaintRaw, asOf time.Time) map[string]int {
	counts := map[string]int{}
	for _, r := range rows {
		ageHours := asOf.Sub(r.OpenTS).Hours()
		for _, slab := range model.AgingSlabs {
			if ageHours > slab.Hours {
				counts[slab.Name]++
				break
			}
		}
	}
	return counts
}
