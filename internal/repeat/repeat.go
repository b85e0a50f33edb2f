// Package repeat classifies MDNs (subscribers) that filed more than one
// complaint in the 30 days ending on the target date.
package repeat

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/complaintpipe/complaintpipe/internal/model"
	"github.com/complaintpipe/complaintpipe/internal/store"
)

const windowDays = 30

const (
	ClassNormalRepeat  = "NORMAL REPEAT"
	ClassAlarming      = "ALARMING"
	ClassCritical      = "CRITICAL"
	ClassVeryAlarming  = "VERY ALARMING"
)

// Repeater is one MDN's repeat-caller profile.
type Repeater struct {
	MDN         string
	Count       int
	Class       string
	Region      string // modal region
	Exchange    string // modal exchange
	City        string // modal city
	SubType     string // modal sr_sub_type
}

// Result bundles the headline repeater list with every breakdown named in
// the design: by region, exchange, city, severity class, sub-type, and the
// pairwise cross-tabs.
type Result struct {
	Repeaters       []Repeater
	ByRegion        map[string]int
	ByExchange      map[string]int
	ByCity          map[string]int
	BySeverity      map[string]int
	BySubType       map[string]int
	ByRegionSubType map[string]int // "region|subtype" -> count
	ByExchangeSubType map[string]int
	ByCitySubType   map[string]int
	TopRepeaters    []Repeater
}

const topN = 20

func classify(count int) string {
	switch {
	case count > 10:
		return ClassVeryAlarming
	case count > 6:
		return ClassCritical
	case count > 3:
		return ClassAlarming
	default:
		return ClassNormalRepeat
	}
}

// Run classifies every MDN with more than one complaint in [target-30,
// target].
func Run(ctx context.Context, s *store.Store, target time.Time) (Result, error) {
	from := target.AddDate(0, 0, -windowDays).Format("2006-01-02")
	to := target.Format("2006-01-02")

	rows, err := s.RowsInWindow(ctx, from, to)
	if err != nil {
		return Result{}, fmt.Errorf("repeat: loading window: %w", err)
	}

	byMDN := lo.GroupBy(rows, func(r model.ComplaintRaw) string { return r.MDN })

	result := Result{
		ByRegion: map[string]int{}, ByExchange: map[string]int{}, ByCity: map[string]int{},
		BySeverity: map[string]int{}, BySubType: map[string]int{},
		ByRegionSubType: map[string]int{}, ByExchangeSubType: map[string]int{}, ByCitySubType: map[string]int{},
	}

	for mdn, complaints := range byMDN {
		if mdn == "" || len(complaints) <= 1 {
			continue
		}
		r := Repeater{
			MDN:      mdn,
			Count:    len(complaints),
			Class:    classify(len(complaints)),
			Region:   mode(complaints, func(c model.ComplaintRaw) string { return c.Region }),
			Exchange: mode(complaints, func(c model.ComplaintRaw) string { return c.ExcID }),
			City:     mode(complaints, func(c model.ComplaintRaw) string { return c.City }),
			SubType:  mode(complaints, func(c model.ComplaintRaw) string { return c.SRSubType }),
		}
		result.Repeaters = append(result.Repeaters, r)

		result.ByRegion[r.Region]++
		result.ByExchange[r.Exchange]++
		result.ByCity[r.City]++
		result.BySeverity[r.Class]++
		result.BySubType[r.SubType]++
		result.ByRegionSubType[r.Region+"|"+r.SubType]++
		result.ByExchangeSubType[r.Exchange+"|"+r.SubType]++
		result.ByCitySubType[r.City+"|"+r.SubType]++
	}

	sort.Slice(result.Repeaters, func(i, j int) bool {
		if result.Repeaters[i].Count != result.Repeaters[j].Count {
			return result.Repeaters[i].Count > result.Repeaters[j].Count
		}
		return result.Repeaters[i].MDN < result.Repeaters[j].MDN
	})

	n := topN
	if n > len(result.Repeaters) {
		n = len(result.Repeaters)
	}
	result.TopRepeaters = append([]Repeater(nil), result.Repeaters[:n]...)

	return result, nil
}

// mode returns the most frequent non-empty value select returns across
// rows, breaking ties by lexical order for determinism.
func mode(rows []model.ComplaintRaw, sel func(model.ComplaintRaw) string) string {
	counts := map[string]int{}
	for _, r := range rows {
		if v := sel(r); v != "" {
			counts[v]++
		}
	}
	best, bestCount := "", -1
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best
}
