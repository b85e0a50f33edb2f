// Package trend fits an OLS regression of daily count on time index over
// each configured lookback window, per dimension key observed on the
// target date.
package trend

import (
	"context"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/complaintpipe/complaintpipe/internal/dimension"
	"github.com/complaintpipe/complaintpipe/internal/model"
	"github.com/complaintpipe/complaintpipe/internal/store"
)

const minObservedDays = 3

// Run computes DailyTrend rows for every dimension key observed on target,
// across every window in windows, and replaces the prior set for that date.
func Run(ctx context.Context, s *store.Store, dims []dimension.Dimension, windows []int, target time.Time, alpha float64) ([]model.DailyTrend, error) {
	date := target.Format("2006-01-02")
	maxWindow := 0
	for _, w := range windows {
		if w > maxWindow {
			maxWindow = w
		}
	}
	from := target.AddDate(0, 0, -maxWindow).Format("2006-01-02")

	var out []model.DailyTrend
	for _, d := range dims {
		series, err := s.CountByDimension(ctx, d.Column, from, date)
		if err != nil {
			return nil, fmt.Errorf("trend: %s: %w", d.Name, err)
		}

		onDate, err := s.CountOnDate(ctx, d.Column, date)
		if err != nil {
			return nil, fmt.Errorf("trend: counts on date %s: %w", d.Name, err)
		}

		for key := range onDate {
			byDate := series[key]
			for _, w := range windows {
				rows := fitWindow(byDate, target, w, alpha)
				if rows == nil {
					continue
				}
				rows.Dimension = d.Name
				rows.DimensionKey = key
				out = append(out, *rows)
			}
		}
	}

	if err := s.ReplaceTrends(ctx, date, out); err != nil {
		return nil, fmt.Errorf("trend: persisting: %w", err)
	}
	return out, nil
}

// fitWindow fits count ~ time_index over [target-w, target] for one key,
// returning nil if fewer than minObservedDays days were observed.
func fitWindow(byDate map[string]int, target time.Time, w int, alpha float64) *model.DailyTrend {
	var xs, ys []float64
	for offset := w; offset >= 0; offset-- {
		d := target.AddDate(0, 0, -offset)
		if c, ok := byDate[d.Format("2006-01-02")]; ok {
			xs = append(xs, float64(w-offset))
			ys = append(ys, float64(c))
		}
	}
	if len(xs) < minObservedDays {
		return nil
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	r2 := stat.RSquaredFrom(predictAll(xs, intercept, slope), ys, nil)
	p := slopePValue(xs, ys, slope, r2)

	last := ys[len(ys)-1]
	first := ys[0]
	strength := 0.0
	if first != 0 {
		strength = (last - first) / first * 100
	}

	direction := model.TrendStable
	if !math.IsNaN(p) && p < alpha {
		if slope > 0 {
			direction = model.TrendUp
		} else if slope < 0 {
			direction = model.TrendDown
		}
	}

	var sigPtr *float64
	if !math.IsNaN(p) {
		sigPtr = &p
	}

	return &model.DailyTrend{
		Window:         w,
		TrendDirection: direction,
		TrendStrength:  strength,
		Significance:   sigPtr,
		MetricValue:    last,
	}
}

func predictAll(xs []float64, intercept, slope float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = intercept + slope*x
	}
	return out
}

// slopePValue computes a two-sided p-value for the regression slope via a
// Student's-t test on n-2 degrees of freedom, the standard OLS
// significance test for small samples.
func slopePValue(xs, ys []float64, slope, r2 float64) float64 {
	n := float64(len(xs))
	if n < 3 {
		return math.NaN()
	}

	xMean := stat.Mean(xs, nil)
	var sxx float64
	for _, x := range xs {
		sxx += (x - xMean) * (x - xMean)
	}
	if sxx == 0 {
		return math.NaN()
	}

	residualSS := (1 - r2) * sumSquares(ys)
	if n-2 <= 0 {
		return math.NaN()
	}
	mse := residualSS / (n - 2)
	if mse <= 0 {
		return 0
	}
	seSlope := math.Sqrt(mse / sxx)
	if seSlope == 0 {
		return math.NaN()
	}
	tStat := slope / seSlope

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: n - 2}
	p := 2 * (1 - dist.CDF(math.Abs(tStat)))
	return p
}

func sumSquares(ys []float64) float64 {
	mean := stat.Mean(ys, nil)
	var ss float64
	for _, y := range ys {
		ss += (y - mean) * (y - mean)
	}
	return ss
}
