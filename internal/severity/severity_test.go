package severity

import (
	"context"
	"path/filepath"
	"testing"
	"time"

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

func TestRun_UpgradesPersistedAnomaly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	target := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	prevDate := target.AddDate(0, 0, -1).Format("2006-01-02")
	date := target.Format("2006-01-02")

	if err := s.ReplaceAnomalies(ctx, prevDate, []model.DailyAnomaly{
		{Dimension: "Region", DimensionKey: "North", Severity: model.SeverityWarning},
	}); err != nil {
		t.Fatalf("seeding prior day: %v", err)
	}

	today := []model.DailyAnomaly{
		{Dimension: "Region", DimensionKey: "North", Severity: model.SeverityWarning},
	}
	if err := s.ReplaceAnomalies(ctx, date, today); err != nil {
		t.Fatalf("seeding today: %v", err)
	}

	if err := Run(ctx, s, today, target, 999); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := s.AnomaliesForDate(ctx, date)
	if err != nil {
		t.Fatalf("AnomaliesForDate: %v", err)
	}
	if got[0].Severity != model.SeverityCritical {
		t.Fatalf("expected persistence to upgrade to CRITICAL, got %s", got[0].Severity)
	}
}

func TestRun_UpgradesOnWidespreadTypeAnomaly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	target := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	date := target.Format("2006-01-02")

	today := []model.DailyAnomaly{
		{Dimension: "Type", DimensionKey: "Billing", Severity: model.SeverityWarning},
		{Dimension: "Region", DimensionKey: "North", Severity: model.SeverityWarning},
		{Dimension: "Region", DimensionKey: "South", Severity: model.SeverityWarning},
		{Dimension: "Region", DimensionKey: "East", Severity: model.SeverityWarning},
	}
	if err := s.ReplaceAnomalies(ctx, date, today); err != nil {
		t.Fatalf("seeding today: %v", err)
	}

	if err := Run(ctx, s, today, target, 2); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := s.AnomaliesForDate(ctx, date)
	if err != nil {
		t.Fatalf("AnomaliesForDate: %v", err)
	}
	var typeSeverity string
	for _, a := range got {
		if a.Dimension == "Type" {
			typeSeverity = a.Severity
		}
	}
	if typeSeverity != model.SeverityCritical {
		t.Fatalf("expected Type anomaly to upgrade when region count exceeds threshold, got %s", typeSeverity)
	}
}

func TestRun_NeverDowngrades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	target := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	date := target.Format("2006-01-02")

	today := []model.DailyAnomaly{
		{Dimension: "Region", DimensionKey: "North", Severity: model.SeverityCritical},
	}
	if err := s.ReplaceAnomalies(ctx, date, today); err != nil {
		t.Fatalf("seeding today: %v", err)
	}

	if err := Run(ctx, s, today, target, 0); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := s.AnomaliesForDate(ctx, date)
	if err != nil {
		t.Fatalf("AnomaliesForDate: %v", err)
	}
	if got[0].Severity != model.SeverityCritical {
		t.Fatalf("expected severity to remain CRITICAL, got %s", got[0].Severity)
	}
}

func TestRun_NoUpgradeWithoutPersistenceOrSpread(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	target := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	date := target.Format("2006-01-02")

	today := []model.DailyAnomaly{
		{Dimension: "Region", DimensionKey: "North", Severity: model.SeverityWarning},
	}
	if err := s.ReplaceAnomalies(ctx, date, today); err != nil {
		t.Fatalf("seeding today: %v", err)
	}

	if err := Run(ctx, s, today, target, 999); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := s.AnomaliesForDate(ctx, date)
	if err != nil {
		t.Fatalf("AnomaliesForDate: %v", err)
	}
	if got[0].Severity != model.SeverityWarning {
		t.Fatalf("expected severity to remain WARNING, got %s", got[0].Severity)
	}
}
