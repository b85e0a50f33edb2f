// Package variation computes DOD/WOW/MOM comparisons for every dimension
// key observed on the target date.
package variation

import (
	"context"
	"fmt"
	"time"

	"github.com/complaintpipe/complaintpipe/internal/dimension"
	"github.com/complaintpipe/complaintpipe/internal/model"
	"github.com/complaintpipe/complaintpipe/internal/store"
)

// Run computes DailyVariation rows for every key observed on target across
// all three comparison types, replacing the prior set for that date.
func Run(ctx context.Context, s *store.Store, dims []dimension.Dimension, target time.Time, thresholdPercent float64) ([]model.DailyVariation, error) {
	date := target.Format("2006-01-02")
	// Two months plus five days covers the longest lookback (MOM's previous
	// month) with margin.
	from := target.AddDate(0, -2, -5).Format("2006-01-02")

	var out []model.DailyVariation
	for _, d := range dims {
		series, err := s.CountByDimension(ctx, d.Column, from, date)
		if err != nil {
			return nil, fmt.Errorf("variation: %s: %w", d.Name, err)
		}
		onDate, err := s.CountOnDate(ctx, d.Column, date)
		if err != nil {
			return nil, fmt.Errorf("variation: counts on date %s: %w", d.Name, err)
		}

		for key := range onDate {
			byDate := series[key]
			out = append(out, buildVariation(d.Name, key, byDate, target, model.VariationDOD, thresholdPercent))
			out = append(out, buildVariation(d.Name, key, byDate, target, model.VariationWOW, thresholdPercent))
			out = append(out, buildVariation(d.Name, key, byDate, target, model.VariationMOM, thresholdPercent))
		}
	}

	if err := s.ReplaceVariations(ctx, date, out); err != nil {
		return nil, fmt.Errorf("variation: persisting: %w", err)
	}
	return out, nil
}

func buildVariation(dim, key string, byDate map[string]int, target time.Time, kind string, thresholdPercent float64) model.DailyVariation {
	var current, previous float64
	switch kind {
	case model.VariationDOD:
		current = float64(countOn(byDate, target))
		previous = float64(countOn(byDate, target.AddDate(0, 0, -7)))
	case model.VariationWOW:
		current = meanSince(byDate, mondayOf(target), target)
		previous = meanSince(byDate, mondayOf(target).AddDate(0, 0, -7), target.AddDate(0, 0, -7))
	case model.VariationMOM:
		current = meanSince(byDate, firstOfMonth(target), target)
		previous = meanSince(byDate, firstOfMonth(prevMonthAnchor(target)), prevMonthAnchor(target))
	}

	pct := variationPercent(current, previous)
	sig := abs(pct) >= thresholdPercent

	return model.DailyVariation{
		Dimension:        dim,
		DimensionKey:     key,
		VariationType:    kind,
		CurrentValue:     current,
		PreviousValue:    previous,
		VariationPercent: pct,
		IsSignificant:    sig,
	}
}

func variationPercent(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100.0
		}
		return 0.0
	}
	return (current - previous) / previous * 100
}

func countOn(byDate map[string]int, d time.Time) int {
	return byDate[d.Format("2006-01-02")]
}

// meanSince averages counts over [from, to] inclusive, both as calendar
// dates, treating days absent from the series as zero (these are
// *comparison windows*, not baseline windows, so unlike Baseline a
// no-complaints day is a real zero, not a missing sample).
func meanSince(byDate map[string]int, from, to time.Time) float64 {
	days := 0
	total := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		total += byDate[d.Format("2006-01-02")]
		days++
	}
	if days == 0 {
		return 0
	}
	return float64(total) / float64(days)
}

func mondayOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7 // days since Monday
	return t.AddDate(0, 0, -offset)
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// prevMonthAnchor returns the same relative day in the previous month,
// clamped to that month's last day.
func prevMonthAnchor(t time.Time) time.Time {
	firstThisMonth := firstOfMonth(t)
	lastDayPrevMonth := firstThisMonth.AddDate(0, 0, -1)
	day := t.Day()
	if day > lastDayPrevMonth.Day() {
		day = lastDayPrevMonth.Day()
	}
	return time.Date(lastDayPrevMonth.Year(), lastDayPrevMonth.Month(), day, 0, 0, 0, 0, t.Location())
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
