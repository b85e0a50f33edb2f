// Package surge compares target-date counts against MTD and same-weekday-
// last-week baselines at four nested geographic scopes.
package surge

import (
	"context"
	"fmt"
	"time"

	"github.com/complaintpipe/complaintpipe/internal/store"
)

const sentinelPct = 999.9

// Highlight is one emitted surge at one of the four scope levels.
type Highlight struct {
	Scope    string // "Total", "Region", "Exchange", "City"
	Region   string
	Exchange string
	City     string
	Current  int
	MTDAvg   float64
	LastWeek int
	PctMTD   float64
	PctWoW   float64
	MaxPct   float64
	Severity string // "ALARMING" or "CRITICAL"
}

const (
	floorRegion   = 15
	floorExchange = 10
	floorCity     = 5
)

// Run computes surge highlights for target across Total, Region,
// (Region,Exchange), and (Region,Exchange,City) scopes.
func Run(ctx context.Context, s *store.Store, target time.Time, alarmingPct, criticalPct float64) ([]Highlight, error) {
	date := target.Format("2006-01-02")
	mtdFrom := firstOfMonth(target).Format("2006-01-02")
	mtdTo := target.AddDate(0, 0, -1).Format("2006-01-02")
	lastWeek := target.AddDate(0, 0, -7).Format("2006-01-02")

	rows, err := s.RowsInWindow(ctx, mtdFrom, date)
	if err != nil {
		return nil, fmt.Errorf("surge: loading window: %w", err)
	}

	type scopeKey struct{ region, exchange, city string }
	totalByDate := map[string]int{}
	regionByDate := map[string]map[string]int{}
	exchangeByDate := map[string]map[scopeKey]int{}
	cityByDate := map[string]map[scopeKey]int{}

	for _, r := range rows {
		totalByDate[r.OpenDate]++
		if regionByDate[r.OpenDate] == nil {
			regionByDate[r.OpenDate] = map[string]int{}
		}
		regionByDate[r.OpenDate][r.Region]++

		exKey := scopeKey{region: r.Region, exchange: r.ExcID}
		if exchangeByDate[r.OpenDate] == nil {
			exchangeByDate[r.OpenDate] = map[scopeKey]int{}
		}
		exchangeByDate[r.OpenDate][exKey]++

		cKey := scopeKey{region: r.Region, exchange: r.ExcID, city: r.City}
		if cityByDate[r.OpenDate] == nil {
			cityByDate[r.OpenDate] = map[scopeKey]int{}
		}
		cityByDate[r.OpenDate][cKey]++
	}

	var out []Highlight

	// Total scope.
	if h, ok := build("Total", "", "", "", totalByDate[date], mtdAvgOfInts(totalByDate, mtdFrom, mtdTo), totalByDate[lastWeek], 0, alarmingPct, criticalPct); ok {
		out = append(out, h)
	}

	// Region scope.
	for region, current := range regionByDate[date] {
		mtdAvg := mtdAvgOfScopedKey(regionByDate, mtdFrom, mtdTo, region)
		lw := regionByDate[lastWeek][region]
		if h, ok := build("Region", region, "", "", current, mtdAvg, lw, floorRegion, alarmingPct, criticalPct); ok {
			out = append(out, h)
		}
	}

	// Exchange scope (within region).
	for key, current := range exchangeByDate[date] {
		mtdAvg := mtdAvgOfScopedKey(exchangeByDate, mtdFrom, mtdTo, key)
		lw := exchangeByDate[lastWeek][key]
		if h, ok := build("Exchange", key.region, key.exchange, "", current, mtdAvg, lw, floorExchange, alarmingPct, criticalPct); ok {
			out = append(out, h)
		}
	}

	// City scope (within region+exchange).
	for key, current := range cityByDate[date] {
		mtdAvg := mtdAvgOfScopedKey(cityByDate, mtdFrom, mtdTo, key)
		lw := cityByDate[lastWeek][key]
		if h, ok := build("City", key.region, key.exchange, key.city, current, mtdAvg, lw, floorCity, alarmingPct, criticalPct); ok {
			out = append(out, h)
		}
	}

	return out, nil
}

func build(scope, region, exchange, city string, current int, mtdAvg float64, lastWeek int, floor int, alarmingPct, criticalPct float64) (Highlight, bool) {
	if current < floor {
		return Highlight{}, false
	}

	pctMTD := pctChangeFromAvg(float64(current), mtdAvg)
	pctWoW := pctChange(float64(current), float64(lastWeek))
	maxPct := pctMTD
	if pctWoW > maxPct {
		maxPct = pctWoW
	}

	if maxPct < alarmingPct {
		return Highlight{}, false
	}

	severity := "ALARMING"
	if maxPct >= criticalPct {
		severity = "CRITICAL"
	}

	return Highlight{
		Scope: scope, Region: region, Exchange: exchange, City: city,
		Current: current, MTDAvg: mtdAvg, LastWeek: lastWeek,
		PctMTD: pctMTD, PctWoW: pctWoW, MaxPct: maxPct, Severity: severity,
	}, true
}

func pctChangeFromAvg(current, avg float64) float64 {
	if avg == 0 {
		if current > 0 {
			return sentinelPct
		}
		return 0
	}
	return (current - avg) / avg * 100
}

func pctChange(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return sentinelPct
		}
		return 0
	}
	return (current - previous) / previous * 100
}

func mtdAvgOfInts(byDate map[string]int, from, to string) float64 {
	total, days := 0, 0
	for d := from; d <= to; d = nextDate(d) {
		total += byDate[d]
		days++
		if d == to {
			break
		}
	}
	if days == 0 {
		return 0
	}
	return float64(total) / float64(days)
}

func mtdAvgOfScopedKey[K comparable](byDate map[string]map[K]int, from, to string, key K) float64 {
	total, days := 0, 0
	for d := from; d <= to; d = nextDate(d) {
		total += byDate[d][key]
		days++
		if d == to {
			break
		}
	}
	if days == 0 {
		return 0
	}
	return float64(total) / float64(days)
}

func nextDate(d string) string {
	t, err := time.Parse("2006-01-02", d)
	if err != nil {
		return d
	}
	return t.AddDate(0, 0, 1).Format("2006-01-02")
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
