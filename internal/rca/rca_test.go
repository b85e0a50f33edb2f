package rca

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/complaintpipe/complaintpipe/internal/dimension"
	"github.com/complaintpipe/complaintpipe/internal/model"
	"github.com/complaintpipe/complaintpipe/internal/store"
)

func TestAppendContext_FirstClauseHasNoLeadingNewline(t *testing.T) {
	got := appendContext("", "Probable RCA: Fiber Cut (60%)")
	if got != "Probable RCA: Fiber Cut (60%)" {
		t.Errorf("unexpected first clause: %q", got)
	}
}

func TestAppendContext_SubsequentClauseIsNewlineSeparated(t *testing.T) {
	got := appendContext("Correlated with: EX1 (0.85)", "Probable RCA: Fiber Cut (60%)")
	want := "Correlated with: EX1 (0.85)\nProbable RCA: Fiber Cut (60%)"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRun_AppendsTopRCAClause(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"), 2)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	target := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	date := target.Format("2006-01-02")

	rows := []model.ComplaintRaw{
		{SRNumber: "SR1", OpenTS: target, OpenDate: date, Region: "North", RCA: "Fiber Cut"},
		{SRNumber: "SR2", OpenTS: target, OpenDate: date, Region: "North", RCA: "Fiber Cut"},
		{SRNumber: "SR3", OpenTS: target, OpenDate: date, Region: "North", RCA: "Power Outage"},
	}
	if _, err := s.UpsertComplaints(ctx, rows); err != nil {
		t.Fatalf("UpsertComplaints: %v", err)
	}

	anomalies := []model.DailyAnomaly{
		{Dimension: "Region", DimensionKey: "North", Severity: model.SeverityWarning},
	}
	if err := s.ReplaceAnomalies(ctx, date, anomalies); err != nil {
		t.Fatalf("ReplaceAnomalies: %v", err)
	}

	dims := []dimension.Dimension{dimension.Region}
	if err := Run(ctx, s, dims, anomalies, target); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := s.AnomaliesForDate(ctx, date)
	if err != nil {
		t.Fatalf("AnomaliesForDate: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one anomaly, got %d", len(got))
	}
	if got[0].RCAContext == "" {
		t.Fatal("expected rca_context to be populated")
	}
}

func TestRun_SkipsRCADimensionAnomalies(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"), 2)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	target := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	date := target.Format("2006-01-02")

	anomalies := []model.DailyAnomaly{
		{Dimension: "RCA", DimensionKey: "Fiber Cut", Severity: model.SeverityWarning},
	}
	if err := s.ReplaceAnomalies(ctx, date, anomalies); err != nil {
		t.Fatalf("ReplaceAnomalies: %v", err)
	}

	if err := Run(ctx, s, []dimension.Dimension{dimension.RCA}, anomalies, target); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := s.AnomaliesForDate(ctx, date)
	if err != nil {
		t.Fatalf("AnomaliesForDate: %v", err)
	}
	if got[0].RCAContext != "" {
		t.Fatalf("expected RCA-dimension anomalies left untouched, got %q", got[0].RCAContext)
	}
}
