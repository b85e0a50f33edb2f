// Package dimension models the five analytical dimensions (Type, Region,
// Exchange, City, RCA) as a small tagged variant with an associated
// column-selector over model.ComplaintRaw, so stages never perform
// runtime string-keyed lookups over the raw rows.
package dimension

import "github.com/complaintpipe/complaintpipe/internal/model"

// Dimension names a single analytical dimension, the complaints_raw column
// it is stored under, and how to pull its key out of an in-memory row.
type Dimension struct {
	Name   string
	Column string
	Select func(row model.ComplaintRaw) string
}

var (
	Type = Dimension{Name: "Type", Column: "sr_type", Select: func(r model.ComplaintRaw) string { return r.SRType }}

	Region = Dimension{Name: "Region", Column: "region", Select: func(r model.ComplaintRaw) string { return r.Region }}

	Exchange = Dimension{Name: "Exchange", Column: "exc_id", Select: func(r model.ComplaintRaw) string { return r.ExcID }}

	City = Dimension{Name: "City", Column: "city", Select: func(r model.ComplaintRaw) string { return r.City }}

	RCA = Dimension{Name: "RCA", Column: "rca", Select: func(r model.ComplaintRaw) string { return r.RCA }}
)

// All is the default analytical dimension set, in the order config.Dimensions
// defaults to.
var All = []Dimension{Type, Region, Exchange, City, RCA}

// ByName resolves a configured dimension name to its Dimension. Resolve uses
// it to translate the configuration's string list into the typed set stages
// actually operate on.
func ByName(name string) (Dimension, bool) {
	for _, d := range All {
		if d.Name == name {
			return d, true
		}
	}
	return Dimension{}, false
}

// Resolve translates a list of configured dimension names into Dimension
// values, silently dropping unknown names (config validation only checks
// that names are non-empty, not that they are known).
func Resolve(names []string) []Dimension {
	out := make([]Dimension, 0, len(names))
	for _, n := range names {
		if d, ok := ByName(n); ok {
			out = append(out, d)
		}
	}
	return out
}
