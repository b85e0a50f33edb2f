// Package model defines the persistent entities of the complaints analytics
// pipeline: the ComplaintRaw fact table and the tables derived from it by
// each analytical stage.
package model

import "time"

// ComplaintRaw is one service request, keyed on SRNumber.
type ComplaintRaw struct {
	SRNumber    string
	SRRowID     string
	MDN         string
	OpenTS      time.Time
	CloseTS     *time.Time
	OpenDate    string // YYYY-MM-DD, derived from OpenTS
	SRType      string
	SRSubType   string
	SRStatus    string
	SRSubStatus string
	Region      string
	City        string
	ExcID       string
	CabinetID   string
	DPID        string
	SwitchID    string
	RCA         string
	DescText    string
	Priority    string
	Product     string
	SubProduct  string
	CustSeg     string
	SRDuration  string // intentionally kept as string; parse at read time only
}

// BaselinePoint is one dimension_key's rolling statistics for one window.
type BaselinePoint struct {
	DimensionKey string
	Window       int
	Avg          float64
	Std          float64
	Samples      int
}

// Severity levels shared by anomalies (INFO/WARNING/CRITICAL) and reused for
// surge highlights (ALARMING/CRITICAL subset applies there).
const (
	SeverityInfo     = "INFO"
	SeverityWarning  = "WARNING"
	SeverityCritical = "CRITICAL"
)

// DailyAnomaly is a detected spike at (date, dimension, dimension_key).
type DailyAnomaly struct {
	ID           int64
	AnomalyDate  string
	Dimension    string
	DimensionKey string
	MetricValue  float64
	BaselineAvg  float64
	BaselineStd  float64
	ZScore       float64
	Severity     string
	RCAContext   string
}

const (
	TrendUp     = "UP"
	TrendDown   = "DOWN"
	TrendStable = "STABLE"
)

// DailyTrend is an OLS fit of daily count over a lookback window.
type DailyTrend struct {
	ID             int64
	TrendDate      string
	Dimension      string
	DimensionKey   string
	Window         int
	TrendDirection string
	TrendStrength  float64
	Significance   *float64 // nil when p-value is NaN
	MetricValue    float64
}

const (
	VariationDOD = "DOD"
	VariationWOW = "WOW"
	VariationMOM = "MOM"
)

// DailyVariation compares a dimension key's count against a prior-period
// baseline for one of the DOD/WOW/MOM comparison types.
type DailyVariation struct {
	ID               int64
	VariationDate    string
	Dimension        string
	DimensionKey     string
	VariationType    string
	CurrentValue     float64
	PreviousValue    float64
	VariationPercent float64
	IsSignificant    bool
}

// DailyMTTR is the mean-time-to-resolution for rows closed on a date.
type DailyMTTR struct {
	ID           int64
	MetricDate   string
	Dimension    string // "Total", "Region", "City", "Exchange"
	DimensionKey string // empty for Total
	MeanHours    float64
	SampleCount  int
}

// AgingSlab names, ordered from smallest to largest lower-bound (exclusive).
const (
	AgingOver24h  = ">24h"
	AgingOver48h  = ">48h"
	AgingOver72h  = ">72h"
	AgingOver6d   = ">6d"
	AgingOver10d  = ">10d"
	AgingOver30d  = ">30d"
	AgingOver60d  = ">60d"
)

// AgingSlabs lists the slab identifiers in descending order of lower bound,
// so the first match in this order is each row's largest satisfied slab.
var AgingSlabs = []struct {
	Name string
	Hours float64
}{
	{AgingOver60d, 60 * 24},
	{AgingOver30d, 30 * 24},
	{AgingOver10d, 10 * 24},
	{AgingOver6d, 6 * 24},
	{AgingOver72h, 72},
	{AgingOver48h, 48},
	{AgingOver24h, 24},
}

// DailyAging is a per-slab open-ticket count as of a date.
type DailyAging struct {
	ID           int64
	MetricDate   string
	Dimension    string
	DimensionKey string
	Slab         string
	Count        int
}

// ExecInsight is a narrated anomaly summary. On a re-run for the same date,
// Narrator replaces prior insights that share a title instead of appending
// duplicates.
type ExecInsight struct {
	ID        int64
	CreatedAt time.Time
	Title     string
	Summary   string
	Severity  string
}
