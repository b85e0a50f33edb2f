package surge

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/complaintpipe/complaintpipe/internal/model"
	"github.com/complaintpipe/complaintpipe/internal/store"
)

func TestBuild_BelowFloorNeverEmits(t *testing.T) {
	_, ok := build("Region", "North", "", "", 14, 5, 5, floorRegion, 50, 100)
	if ok {
		t.Fatal("expected a count below the floor to never emit, regardless of percentage swing")
	}
}

func TestBuild_BelowThresholdPercentDoesNotEmit(t *testing.T) {
	_, ok := build("Region", "North", "", "", 20, 19, 19, 0, 50, 100)
	if ok {
		t.Fatal("expected a small swing under the alarming threshold to not emit")
	}
}

func TestBuild_AlarmingVsCriticalSeverity(t *testing.T) {
	h, ok := build("Region", "North", "", "", 20, 10, 10, 0, 50, 150)
	if !ok {
		t.Fatal("expected a 100% swing to emit")
	}
	if h.Severity != "ALARMING" {
		t.Errorf("expected ALARMING below the critical threshold, got %s", h.Severity)
	}

	h2, ok := build("Region", "North", "", "", 40, 10, 10, 0, 50, 150)
	if !ok {
		t.Fatal("expected a 300% swing to emit")
	}
	if h2.Severity != "CRITICAL" {
		t.Errorf("expected CRITICAL at or above the critical threshold, got %s", h2.Severity)
	}
}

func TestPctChange_ZeroBaselineSentinel(t *testing.T) {
	if got := pctChange(5, 0); got != sentinelPct {
		t.Errorf("expected the 999.9 sentinel for a zero baseline with nonzero current, got %v", got)
	}
	if got := pctChange(0, 0); got != 0 {
		t.Errorf("expected 0%% for a zero-to-zero comparison, got %v", got)
	}
}

func TestRun_EmitsRegionSurgeAboveFloorAndThreshold(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"), 2)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	target := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)

	var rows []model.ComplaintRaw
	// Quiet MTD days 1-9 at 2/day in North (keeps MTD avg low).
	for day := 1; day <= 9; day++ {
		d := time.Date(2026, 7, day, 0, 0, 0, 0, time.UTC)
		for i := 0; i < 2; i++ {
			rows = append(rows, model.ComplaintRaw{
				SRNumber: "Q" + d.Format("02") + itoa(i), OpenTS: d, OpenDate: d.Format("2006-01-02"), Region: "North",
			})
		}
	}
	// Target day spikes to 20 in North, clearing floorRegion (15).
	for i := 0; i < 20; i++ {
		rows = append(rows, model.ComplaintRaw{
			SRNumber: "T" + itoa(i), OpenTS: target, OpenDate: target.Format("2006-01-02"), Region: "North",
		})
	}
	if _, err := s.UpsertComplaints(ctx, rows); err != nil {
		t.Fatalf("UpsertComplaints: %v", err)
	}

	highlights, err := Run(ctx, s, target, 50, 200)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var found bool
	for _, h := range highlights {
		if h.Scope == "Region" && h.Region == "North" {
			found = true
			if h.Current != 20 {
				t.Errorf("expected current count 20, got %d", h.Current)
			}
		}
	}
	if !found {
		t.Fatalf("expected a Region/North surge highlight, got %+v", highlights)
	}
}

func TestRun_FirstOfMonthDoesNotHang(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"), 2)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	// The MTD window for the 1st of a month is empty (from=1st, to=D-1=last
	// day of the prior month), which previously made mtdAvgOfScopedKey loop
	// forever instead of returning a zero average.
	target := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	rows := []model.ComplaintRaw{
		{SRNumber: "T1", OpenTS: target, OpenDate: target.Format("2006-01-02"), Region: "North"},
	}
	if _, err := s.UpsertComplaints(ctx, rows); err != nil {
		t.Fatalf("UpsertComplaints: %v", err)
	}

	done := make(chan struct{})
	go func() {
		if _, err := Run(ctx, s, target, 50, 200); err != nil {
			t.Errorf("Run: %v", err)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return for a target date on the 1st of the month")
	}
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	digits := []byte{}
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	return string(digits)
}
