// Package validate runs non-fatal data-quality checks over complaints_raw
// after Ingest, the originating stage for the DataQualityIssue diagnostic
// category.
package validate

import (
	"context"
	"fmt"

	"github.com/complaintpipe/complaintpipe/internal/store"
)

// Issue is one non-fatal data-quality finding.
type Issue struct {
	Kind   string
	Detail string
}

const (
	KindOrderingViolation = "ordering_violation" // close_ts < open_ts
	KindOrphanedKey       = "orphaned_key"       // region, exchange and city all blank
)

// Result reports every issue found; the stage never halts the pipeline.
type Result struct {
	Issues []Issue
}

// Run checks rows with open_date == date for the invariants named in the
// design: close_ts ordering, and orphaned rows whose region, exchange, and
// city are all blank.
func Run(ctx context.Context, s *store.Store, date string) (Result, error) {
	rows, err := s.RowsInWindow(ctx, date, date)
	if err != nil {
		return Result{}, fmt.Errorf("validate: loading rows: %w", err)
	}

	var issues []Issue
	for _, r := range rows {
		if r.Region == "" && r.ExcID == "" && r.City == "" {
			issues = append(issues, Issue{
				Kind:   KindOrphanedKey,
				Detail: fmt.Sprintf("sr_number=%s has no region/exchange/city", r.SRNumber),
			})
		}
	}

	timestamps, err := s.TimestampsInWindow(ctx, date, date)
	if err != nil {
		return Result{}, fmt.Errorf("validate: loading timestamps: %w", err)
	}
	for _, r := range timestamps {
		if r.CloseTS != nil && r.CloseTS.Before(r.OpenTS) {
			issues = append(issues, Issue{
				Kind:   KindOrderingViolation,
				Detail: fmt.Sprintf("sr_number=%s has close_ts before open_ts", r.SRNumber),
			})
		}
	}

	return Result{Issues: issues}, nil
}
