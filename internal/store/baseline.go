package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/complaintpipe/complaintpipe/internal/model"
)

// baselineColumns mirrors the schema named in the external-interfaces
// section: one row per dimension_key with avg/std/samples for each
// maintained window, stored as a columnar-friendly CSV file per dimension
// (format is an implementation detail; CSV gives the efficient full-scan
// the spec calls for while staying dependency-light for this artifact).
var baselineColumns = []string{"dimension_key", "avg_7d", "std_7d", "samples_7d", "avg_14d", "std_14d", "samples_14d", "avg_30d", "std_30d", "samples_30d"}

// WriteBaseline persists one dimension's baseline snapshot to
// <dir>/<dimension>.csv, overwriting any prior snapshot (Baseline is
// idempotent: a rerun recomputes the whole file).
func WriteBaseline(dir, dimensionName string, byKey map[string]map[int]model.BaselinePoint) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: creating baseline dir: %w", err)
	}
	path := filepath.Join(dir, dimensionName+".csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("store: creating baseline file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(baselineColumns); err != nil {
		return err
	}
	for key, windows := range byKey {
		rec := []string{key}
		for _, win := range []int{7, 14, 30} {
			p := windows[win]
			rec = append(rec,
				strconv.FormatFloat(p.Avg, 'f', -1, 64),
				strconv.FormatFloat(p.Std, 'f', -1, 64),
				strconv.Itoa(p.Samples),
			)
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ReadBaseline loads a dimension's baseline snapshot. A missing file
// returns (nil, nil): the caller (Anomaly) treats that as MissingBaseline
// and skips the dimension rather than failing the stage.
func ReadBaseline(dir, dimensionName string) (map[string]map[int]model.BaselinePoint, error) {
	path := filepath.Join(dir, dimensionName+".csv")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: opening baseline file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("store: reading baseline file: %w", err)
	}
	if len(records) == 0 {
		return map[string]map[int]model.BaselinePoint{}, nil
	}

	out := make(map[string]map[int]model.BaselinePoint, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) != len(baselineColumns) {
			continue
		}
		key := rec[0]
		windows := make(map[int]model.BaselinePoint, 3)
		offsets := map[int]int{7: 1, 14: 4, 30: 7}
		for win, off := range offsets {
			avg, _ := strconv.ParseFloat(rec[off], 64)
			std, _ := strconv.ParseFloat(rec[off+1], 64)
			samples, _ := strconv.Atoi(rec[off+2])
			windows[win] = model.BaselinePoint{DimensionKey: key, Window: win, Avg: avg, Std: std, Samples: samples}
		}
		out[key] = windows
	}
	return out, nil
}
