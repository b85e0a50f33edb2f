package anomaly

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/complaintpipe/complaintpipe/internal/dimension"
	"github.com/complaintpipe/complaintpipe/internal/model"
	"github.com/complaintpipe/complaintpipe/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"), 2)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRun_EmitsCriticalAnomalyOnSpike(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	target := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	dir := t.TempDir()

	if err := store.WriteBaseline(dir, "Region", map[string]map[int]model.BaselinePoint{
		"North": {30: {DimensionKey: "North", Window: 30, Avg: 10, Std: 2, Samples: 28}},
	}); err != nil {
		t.Fatalf("WriteBaseline: %v", err)
	}

	rows := make([]model.ComplaintRaw, 0, 40)
	for i := 0; i < 40; i++ {
		rows = append(rows, model.ComplaintRaw{
			SRNumber: generateSR(i), OpenTS: target, OpenDate: target.Format("2006-01-02"), Region: "North",
		})
	}
	if _, err := s.UpsertComplaints(ctx, rows); err != nil {
		t.Fatalf("UpsertComplaints: %v", err)
	}

	result, err := Run(ctx, s, []dimension.Dimension{dimension.Region}, dir, target, 2, 4)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Anomalies) != 1 {
		t.Fatalf("expected exactly one anomaly, got %+v", result.Anomalies)
	}
	if result.Anomalies[0].Severity != model.SeverityCritical {
		t.Errorf("expected critical severity for a 15-sigma spike, got %s", result.Anomalies[0].Severity)
	}
}

func TestRun_SkipsDimensionWithoutBaseline(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	target := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)

	result, err := Run(ctx, s, []dimension.Dimension{dimension.Region}, t.TempDir(), target, 2, 4)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Skipped) != 1 || result.Skipped[0] != "Region" {
		t.Fatalf("expected Region to be reported skipped, got %+v", result.Skipped)
	}
	if len(result.Anomalies) != 0 {
		t.Fatalf("expected no anomalies when baseline is missing, got %+v", result.Anomalies)
	}
}

func TestRun_NoAnomalyWhenWithinNormalRange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	target := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	dir := t.TempDir()

	if err := store.WriteBaseline(dir, "Region", map[string]map[int]model.BaselinePoint{
		"North": {30: {DimensionKey: "North", Window: 30, Avg: 10, Std: 2, Samples: 28}},
	}); err != nil {
		t.Fatalf("WriteBaseline: %v", err)
	}

	rows := make([]model.ComplaintRaw, 0, 11)
	for i := 0; i < 11; i++ {
		rows = append(rows, model.ComplaintRaw{
			SRNumber: generateSR(i), OpenTS: target, OpenDate: target.Format("2006-01-02"), Region: "North",
		})
	}
	if _, err := s.UpsertComplaints(ctx, rows); err != nil {
		t.Fatalf("UpsertComplaints: %v", err)
	}

	result, err := Run(ctx, s, []dimension.Dimension{dimension.Region}, dir, target, 2, 4)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Anomalies) != 0 {
		t.Fatalf("expected no anomalies for a near-baseline count, got %+v", result.Anomalies)
	}
}

func TestRun_RerunIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	target := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	dir := t.TempDir()

	if err := store.WriteBaseline(dir, "Region", map[string]map[int]model.BaselinePoint{
		"North": {30: {DimensionKey: "North", Window: 30, Avg: 10, Std: 2, Samples: 28}},
	}); err != nil {
		t.Fatalf("WriteBaseline: %v", err)
	}
	rows := make([]model.ComplaintRaw, 0, 40)
	for i := 0; i < 40; i++ {
		rows = append(rows, model.ComplaintRaw{
			SRNumber: generateSR(i), OpenTS: target, OpenDate: target.Format("2006-01-02"), Region: "North",
		})
	}
	if _, err := s.UpsertComplaints(ctx, rows); err != nil {
		t.Fatalf("UpsertComplaints: %v", err)
	}

	if _, err := Run(ctx, s, []dimension.Dimension{dimension.Region}, dir, target, 2, 4); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if _, err := Run(ctx, s, []dimension.Dimension{dimension.Region}, dir, target, 2, 4); err != nil {
		t.Fatalf("second Run: %v", err)
	}

	got, err := s.AnomaliesForDate(ctx, target.Format("2006-01-02"))
	if err != nil {
		t.Fatalf("AnomaliesForDate: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected rerunning anomaly detection to leave exactly one row, got %d", len(got))
	}
}

func generateSR(i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := []byte{'S', 'R'}
	n := i + 1
	for n > 0 {
		b = append(b, letters[n%len(letters)])
		n /= len(letters)
	}
	return string(b)
}
