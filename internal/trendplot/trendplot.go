// Package trendplot renders the last N days' daily counts as PNG line
// charts: one Total chart plus one per configured dimension, overlaying its
// top-5 keys by volume.
package trendplot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/complaintpipe/complaintpipe/internal/dimension"
	"github.com/complaintpipe/complaintpipe/internal/store"
)

const defaultDaysBack = 30
const topKeysPerDimension = 5

// Run renders one Total PNG plus one PNG per dimension that has data in the
// window, covering the dates [target-daysBack, target], writing them under
// outDir.
func Run(ctx context.Context, s *store.Store, dims []dimension.Dimension, target time.Time, daysBack int, outDir string) ([]string, error) {
	if daysBack <= 0 {
		daysBack = defaultDaysBack
	}
	from := target.AddDate(0, 0, -daysBack).Format("2006-01-02")
	to := target.Format("2006-01-02")

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("trendplot: creating dir: %w", err)
	}

	var paths []string

	totalPath, err := renderTotal(ctx, s, from, to, target, outDir)
	if err != nil {
		return nil, err
	}
	paths = append(paths, totalPath)

	for _, d := range dims {
		p, err := renderDimension(ctx, s, d, from, to, target, outDir)
		if err != nil {
			return nil, err
		}
		if p != "" {
			paths = append(paths, p)
		}
	}

	return paths, nil
}

func renderTotal(ctx context.Context, s *store.Store, from, to string, target time.Time, outDir string) (string, error) {
	rows, err := s.RowsInWindow(ctx, from, to)
	if err != nil {
		return "", fmt.Errorf("trendplot: total series: %w", err)
	}
	totals := map[string]int{}
	for _, r := range rows {
		totals[r.OpenDate]++
	}

	p := plot.New()
	p.Title.Text = "Total complaints, last " + from + " to " + to
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Count"

	line, err := plotter.NewLine(seriesToXYs(totals, from, to))
	if err != nil {
		return "", fmt.Errorf("trendplot: building total line: %w", err)
	}
	p.Add(line)
	p.Legend.Add("Total", line)

	path := filepath.Join(outDir, fmt.Sprintf("total_%s.png", target.Format("20060102")))
	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return "", fmt.Errorf("trendplot: saving total chart: %w", err)
	}
	return path, nil
}

func renderDimension(ctx context.Context, s *store.Store, d dimension.Dimension, from, to string, target time.Time, outDir string) (string, error) {
	topKeys, err := s.TopKeysByVolume(ctx, d.Column, from, to, topKeysPerDimension)
	if err != nil {
		return "", fmt.Errorf("trendplot: %s top keys: %w", d.Name, err)
	}
	if len(topKeys) == 0 {
		return "", nil
	}
	sort.Strings(topKeys)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s trend, top %d keys", d.Name, topKeysPerDimension)
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Count"

	for _, key := range topKeys {
		series, err := s.SeriesForKey(ctx, d.Column, key, from, to)
		if err != nil {
			return "", fmt.Errorf("trendplot: %s/%s series: %w", d.Name, key, err)
		}
		line, err := plotter.NewLine(seriesToXYs(series, from, to))
		if err != nil {
			return "", fmt.Errorf("trendplot: %s/%s line: %w", d.Name, key, err)
		}
		p.Add(line)
		p.Legend.Add(key, line)
	}

	path := filepath.Join(outDir, fmt.Sprintf("%s_%s.png", d.Name, target.Format("20060102")))
	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return "", fmt.Errorf("trendplot: saving %s chart: %w", d.Name, err)
	}
	return path, nil
}

// seriesToXYs walks every calendar day in [from, to], defaulting absent
// days to zero so lines stay continuous across gaps.
func seriesToXYs(byDate map[string]int, from, to string) plotter.XYs {
	fromT, _ := time.Parse("2006-01-02", from)
	toT, _ := time.Parse("2006-01-02", to)

	var pts plotter.XYs
	i := 0.0
	for d := fromT; !d.After(toT); d = d.AddDate(0, 0, 1) {
		pts = append(pts, plotter.XY{X: i, Y: float64(byDate[d.Format("2006-01-02")])})
		i++
	}
	return pts
}
