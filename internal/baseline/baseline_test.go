package baseline

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/complaintpipe/complaintpipe/internal/dimension"
	"github.com/complaintpipe/complaintpipe/internal/model"
	"github.com/complaintpipe/complaintpipe/internal/store"
)

func TestComputeWindows_MissingDaysAreAbsentNotZero(t *testing.T) {
	target := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	counts := map[string]map[string]int{
		"North": {
			"2026-07-09": 10,
			"2026-07-08": 10,
			// 2026-07-07 missing entirely: not a zero-count day.
			"2026-07-06": 10,
		},
	}

	got := computeWindows(counts, []int{7}, target)
	point := got["North"][7]
	if point.Samples != 3 {
		t.Fatalf("expected 3 samples (missing day excluded, not zeroed), got %d", point.Samples)
	}
	if point.Avg != 10 {
		t.Fatalf("expected avg 10, got %v", point.Avg)
	}
}

func TestComputeWindows_SingleSampleHasZeroStdDev(t *testing.T) {
	target := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	counts := map[string]map[string]int{
		"North": {"2026-07-09": 5},
	}

	got := computeWindows(counts, []int{7}, target)
	point := got["North"][7]
	if point.Samples != 1 {
		t.Fatalf("expected 1 sample, got %d", point.Samples)
	}
	if point.Std != 0 {
		t.Fatalf("expected std 0 with fewer than 2 samples, got %v", point.Std)
	}
}

func TestComputeWindows_NoSamplesInWindow(t *testing.T) {
	target := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	counts := map[string]map[string]int{
		"North": {"2026-01-01": 5},
	}

	got := computeWindows(counts, []int{7}, target)
	point := got["North"][7]
	if point.Samples != 0 || point.Avg != 0 {
		t.Fatalf("expected an empty window outside the lookback range, got %+v", point)
	}
}

func TestRun_WritesBaselineFilesPerDimension(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"), 2)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	target := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	rows := []model.ComplaintRaw{
		{SRNumber: "SR1", OpenTS: target.AddDate(0, 0, -1), OpenDate: target.AddDate(0, 0, -1).Format("2006-01-02"), Region: "North"},
	}
	if _, err := s.UpsertComplaints(ctx, rows); err != nil {
		t.Fatalf("UpsertComplaints: %v", err)
	}

	dims := dimension.Resolve([]string{"Region"})
	dir := t.TempDir()
	result, err := Run(ctx, s, dims, []int{7, 30}, dir, target)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.PerDimension["Region"] != 1 {
		t.Fatalf("expected one dimension key computed, got %+v", result.PerDimension)
	}

	baseline, err := store.ReadBaseline(dir, "Region")
	if err != nil {
		t.Fatalf("ReadBaseline: %v", err)
	}
	if baseline["North"][7].Samples != 1 {
		t.Fatalf("expected the written baseline file to round-trip, got %+v", baseline)
	}
}
