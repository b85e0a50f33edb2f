// Package ingest parses a delimited service-request export file, tolerant
// of heterogeneous encoding, delimiter, header, and date-format variation,
// and upserts the result into the Store keyed on sr_number.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/complaintpipe/complaintpipe/internal/model"
	"github.com/complaintpipe/complaintpipe/internal/store"
)

// Result is the diagnostics report callers (the CLI, the Orchestrator) use
// to surface ingest behavior verbatim to operators.
type Result struct {
	RowsRead      int
	RowsParsed    int
	RowsDropped   int
	RowsInserted  int
	RowsUpdated   int
	Encoding      string
	Delimiter     string
	FirstRawValue string
	SampleParsed  map[string]string
}

var delimiterNames = map[rune]string{',': "comma", ';': "semicolon", '\t': "tab", '|': "pipe"}

func delimiterName(r rune) string {
	if name, ok := delimiterNames[r]; ok {
		return name
	}
	return string(r)
}

// Run parses path and upserts every row it can fully normalize into s.
func Run(ctx context.Context, s *store.Store, path string) (Result, error) {
	parsed, err := ParseFile(path)
	if err != nil {
		return Result{}, err
	}

	mapped := mapHeaders(parsed.Frame.header)
	if missing := missingColumns(mapped); len(missing) > 0 {
		return Result{}, &SchemaError{Missing: missing, Found: mapped}
	}

	colIndex := make(map[string]int, len(mapped))
	for i, h := range mapped {
		colIndex[h] = i
	}

	rows := make([]model.ComplaintRaw, 0, len(parsed.Frame.rows))
	dropped := 0
	var firstRaw string

	for _, rec := range parsed.Frame.rows {
		row, rawOpenTS, ok := buildRow(rec, colIndex)
		if firstRaw == "" {
			firstRaw = rawOpenTS
		}
		if !ok {
			dropped++
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return Result{}, &DateParseError{RawSample: firstRaw, RowsRead: len(parsed.Frame.rows)}
	}

	upsertResult, err := s.UpsertComplaints(ctx, rows)
	if err != nil {
		return Result{}, fmt.Errorf("ingest: upsert: %w", err)
	}

	var sample map[string]string
	if len(parsed.Frame.rows) > 0 {
		sample = make(map[string]string, len(mapped))
		for h, idx := range colIndex {
			if idx < len(parsed.Frame.rows[0]) {
				sample[h] = parsed.Frame.rows[0][idx]
			}
		}
	}

	return Result{
		RowsRead:      len(parsed.Frame.rows),
		RowsParsed:    len(rows),
		RowsDropped:   dropped,
		RowsInserted:  upsertResult.Inserted,
		RowsUpdated:   upsertResult.Updated,
		Encoding:      parsed.Encoding,
		Delimiter:     delimiterName(parsed.Delimiter),
		FirstRawValue: firstRaw,
		SampleParsed:  sample,
	}, nil
}

func cell(rec []string, colIndex map[string]int, name string) string {
	idx, ok := colIndex[name]
	if !ok || idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[idx])
}

// buildRow normalizes one raw record into a ComplaintRaw. ok is false when
// the row has no sr_number (rejected per the upsert contract) or open_ts
// could not be parsed by any format in the catalog (dropped, not fatal).
func buildRow(rec []string, colIndex map[string]int) (model.ComplaintRaw, string, bool) {
	srNumber := cell(rec, colIndex, "sr_number")
	rawOpenTS := cell(rec, colIndex, "open_ts")
	if srNumber == "" {
		return model.ComplaintRaw{}, rawOpenTS, false
	}

	openTS, ok := parseTimestamp(rawOpenTS)
	if !ok {
		return model.ComplaintRaw{}, rawOpenTS, false
	}

	var closeTS *time.Time
	if rawClose := cell(rec, colIndex, "close_ts"); rawClose != "" {
		if t, ok := parseTimestamp(rawClose); ok {
			closeTS = &t
		}
	}

	openDate := cell(rec, colIndex, "open_date")
	if openDate == "" {
		openDate = openTS.Format("2006-01-02")
	}

	row := model.ComplaintRaw{
		SRNumber:    srNumber,
		SRRowID:     cell(rec, colIndex, "sr_row_id"),
		MDN:         cell(rec, colIndex, "mdn"),
		OpenTS:      openTS,
		CloseTS:     closeTS,
		OpenDate:    openDate,
		SRType:      cell(rec, colIndex, "sr_type"),
		SRSubType:   cell(rec, colIndex, "sr_sub_type"),
		SRStatus:    cell(rec, colIndex, "sr_status"),
		SRSubStatus: cell(rec, colIndex, "sr_sub_status"),
		Region:      cell(rec, colIndex, "region"),
		City:        cell(rec, colIndex, "city"),
		ExcID:       cell(rec, colIndex, "exc_id"),
		CabinetID:   cell(rec, colIndex, "cabinet_id"),
		DPID:        cell(rec, colIndex, "dp_id"),
		SwitchID:    cell(rec, colIndex, "switch_id"),
		RCA:         cell(rec, colIndex, "rca"),
		DescText:    cell(rec, colIndex, "desc_text"),
		Priority:    cell(rec, colIndex, "priority"),
		Product:     cell(rec, colIndex, "product"),
		SubProduct:  cell(rec, colIndex, "sub_product"),
		CustSeg:     cell(rec, colIndex, "cust_seg"),
		SRDuration:  cell(rec, colIndex, "sr_duration"),
	}
	return row, rawOpenTS, true
}
