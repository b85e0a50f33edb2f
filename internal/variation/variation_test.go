package variation

import (
	"testing"
	"time"

	"github.com/complaintpipe/complaintpipe/internal/model"
)

func TestBuildVariation_DODSignAndMagnitude(t *testing.T) {
	target := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC) // Friday
	byDate := map[string]int{
		"2026-07-10": 20,
		"2026-07-03": 10, // target-7, the DOD comparison day
	}

	v := buildVariation("Region", "North", byDate, target, model.VariationDOD, 10)
	if v.CurrentValue != 20 || v.PreviousValue != 10 {
		t.Fatalf("unexpected current/previous: %+v", v)
	}
	if v.VariationPercent != 100 {
		t.Fatalf("expected +100%% DOD, got %v", v.VariationPercent)
	}
	if !v.IsSignificant {
		t.Error("expected a 100% swing to clear a 10% threshold")
	}
}

func TestBuildVariation_BelowThresholdIsNotSignificant(t *testing.T) {
	target := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	byDate := map[string]int{
		"2026-07-10": 100,
		"2026-07-03": 98,
	}

	v := buildVariation("Region", "North", byDate, target, model.VariationDOD, 10)
	if v.IsSignificant {
		t.Errorf("expected a 2%% swing to stay under a 10%% threshold, got %+v", v)
	}
}

func TestVariationPercent_ZeroPreviousWithCurrentIsFullSwing(t *testing.T) {
	if got := variationPercent(5, 0); got != 100.0 {
		t.Errorf("expected 100%% when rising off a zero baseline, got %v", got)
	}
	if got := variationPercent(0, 0); got != 0.0 {
		t.Errorf("expected 0%% for a zero-to-zero comparison, got %v", got)
	}
}

func TestMeanSince_AbsentDaysCountAsZero(t *testing.T) {
	from := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC)
	byDate := map[string]int{
		"2026-07-01": 9,
		// 07-02 and 07-03 absent.
	}

	got := meanSince(byDate, from, to)
	if got != 3 {
		t.Fatalf("expected absent days to count as zero (mean 9/3=3), got %v", got)
	}
}

func TestMondayOf_ReturnsWeekStart(t *testing.T) {
	friday := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	monday := mondayOf(friday)
	if monday.Weekday() != time.Monday {
		t.Fatalf("expected Monday, got %s", monday.Weekday())
	}
	if monday.Format("2006-01-02") != "2026-07-06" {
		t.Fatalf("expected 2026-07-06, got %s", monday.Format("2006-01-02"))
	}
}

func TestPrevMonthAnchor_ClampsToShorterMonth(t *testing.T) {
	// March 31 has no equivalent day in February.
	march31 := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	anchor := prevMonthAnchor(march31)
	if anchor.Month() != time.February || anchor.Day() != 28 {
		t.Fatalf("expected clamp to Feb 28 2026, got %s", anchor.Format("2006-01-02"))
	}
}
