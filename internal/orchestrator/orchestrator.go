// Package orchestrator sequences the daily pipeline: Ingest, Validate,
// Baseline, Anomaly, Trend, Variation, Correlation, RCA, Severity, and
// Narrator, in the dependency order the analytical stages require.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/complaintpipe/complaintpipe/internal/anomaly"
	"github.com/complaintpipe/complaintpipe/internal/baseline"
	"github.com/complaintpipe/complaintpipe/internal/config"
	"github.com/complaintpipe/complaintpipe/internal/correlation"
	"github.com/complaintpipe/complaintpipe/internal/dimension"
	"github.com/complaintpipe/complaintpipe/internal/ingest"
	"github.com/complaintpipe/complaintpipe/internal/metrics"
	"github.com/complaintpipe/complaintpipe/internal/narrator"
	"github.com/complaintpipe/complaintpipe/internal/rca"
	"github.com/complaintpipe/complaintpipe/internal/severity"
	"github.com/complaintpipe/complaintpipe/internal/store"
	"github.com/complaintpipe/complaintpipe/internal/trend"
	"github.com/complaintpipe/complaintpipe/internal/validate"
	"github.com/complaintpipe/complaintpipe/internal/variation"
)

// StageResult is the structured, queryable result every stage reports,
// whether invoked standalone or as part of Run.
type StageResult struct {
	Stage       string
	Status      string // "ok", "warning", "error", "skipped"
	Message     string
	Diagnostics map[string]any
	Counts      map[string]int
}

// Report is the full run's per-stage outcome list, in execution order.
type Report struct {
	RunID  string
	Stages []StageResult
}

// timed runs fn, records its wall-clock duration and any error against
// metrics.StageDuration/StageErrors under stage, and returns fn's error.
func timed(stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.Observe(stage, time.Since(start))
	if err != nil {
		metrics.StageErrors.WithLabelValues(stage).Inc()
	}
	return err
}

func ok(stage string, counts map[string]int, diagnostics map[string]any) StageResult {
	return StageResult{Stage: stage, Status: "ok", Counts: counts, Diagnostics: diagnostics}
}

func warn(stage, message string) StageResult {
	return StageResult{Stage: stage, Status: "warning", Message: message}
}

func failed(stage string, err error) StageResult {
	return StageResult{Stage: stage, Status: "error", Message: err.Error()}
}

func skipped(stage, reason string) StageResult {
	return StageResult{Stage: stage, Status: "skipped", Message: reason}
}

// Run executes the daily pipeline end to end for target, optionally
// ingesting filePath first. Ingestion is skipped when filePath is empty or
// noIngest is set (even if a file path was given); Baseline only recomputes
// when runBaseline is set, otherwise Anomaly reads whatever baseline
// artifacts already exist on disk from an earlier run. Run stops after an
// Ingest, Baseline, or Anomaly failure, returning the Report built so far
// with the error. A failure in Validate, Trend, Variation, Correlation, RCA,
// Severity, or Narrator is recorded in the Report and the run continues, so
// operators see the full picture of a partial run.
func Run(ctx context.Context, s *store.Store, cfg config.Config, log *zap.Logger, target time.Time, filePath string, runBaseline, noIngest bool) (Report, error) {
	report := Report{RunID: uuid.NewString()}
	dims := dimension.Resolve(cfg.Dimensions)
	log = log.With(zap.String("run_id", report.RunID))

	switch {
	case filePath == "":
		report.Stages = append(report.Stages, skipped("Ingest", "no file provided"))
	case noIngest:
		report.Stages = append(report.Stages, skipped("Ingest", "--no-ingest"))
	default:
		var res ingest.Result
		var ingestErr error
		err := timed("Ingest", func() error {
			res, ingestErr = ingest.Run(ctx, s, filePath)
			return ingestErr
		})
		if err != nil {
			report.Stages = append(report.Stages, failed("Ingest", err))
			log.Error("ingest failed", zap.Error(err), zap.String("file", filePath))
			return report, fmt.Errorf("orchestrator: ingest: %w", err)
		}
		report.Stages = append(report.Stages, ok("Ingest", map[string]int{
			"rows_read": res.RowsRead, "rows_parsed": res.RowsParsed, "rows_dropped": res.RowsDropped,
			"rows_inserted": res.RowsInserted, "rows_updated": res.RowsUpdated,
		}, map[string]any{"encoding": res.Encoding, "delimiter": res.Delimiter}))
		log.Info("ingest complete", zap.Int("inserted", res.RowsInserted), zap.Int("updated", res.RowsUpdated), zap.Int("dropped", res.RowsDropped))
	}

	date := target.Format("2006-01-02")

	validateResult, err := validate.Run(ctx, s, date)
	if err != nil {
		report.Stages = append(report.Stages, failed("Validate", err))
	} else {
		report.Stages = append(report.Stages, ok("Validate", map[string]int{"issues": len(validateResult.Issues)}, nil))
	}

	if runBaseline {
		var baselineResult baseline.Result
		baselineErr := timed("Baseline", func() error {
			var err error
			baselineResult, err = baseline.Run(ctx, s, dims, cfg.BaselineWindows, cfg.BaselineDir, target)
			return err
		})
		if baselineErr != nil {
			report.Stages = append(report.Stages, failed("Baseline", baselineErr))
			return report, fmt.Errorf("orchestrator: baseline: %w", baselineErr)
		}
		if baselineResult.Status == "warning" {
			report.Stages = append(report.Stages, warn("Baseline", "one or more dimensions had an empty baseline window"))
		} else {
			report.Stages = append(report.Stages, ok("Baseline", baselineResult.PerDimension, nil))
		}
	} else {
		report.Stages = append(report.Stages, skipped("Baseline", "not forced (pass --baseline to recompute)"))
	}

	var anomalyResult anomaly.Result
	anomalyErr := timed("Anomaly", func() error {
		var err error
		anomalyResult, err = anomaly.Run(ctx, s, dims, cfg.BaselineDir, target, cfg.ZScoreWarning, cfg.ZScoreCritical)
		return err
	})
	if anomalyErr != nil {
		report.Stages = append(report.Stages, failed("Anomaly", anomalyErr))
		return report, fmt.Errorf("orchestrator: anomaly: %w", anomalyErr)
	}
	for _, a := range anomalyResult.Anomalies {
		metrics.AnomaliesEmitted.WithLabelValues(a.Severity).Inc()
	}
	report.Stages = append(report.Stages, ok("Anomaly", map[string]int{"anomalies": len(anomalyResult.Anomalies), "skipped_dimensions": len(anomalyResult.Skipped)}, nil))

	trendRows, err := trend.Run(ctx, s, dims, cfg.BaselineWindows, target, cfg.TrendSignificance)
	if err != nil {
		report.Stages = append(report.Stages, failed("Trend", err))
	} else {
		report.Stages = append(report.Stages, ok("Trend", map[string]int{"rows": len(trendRows)}, nil))
	}

	variationRows, err := variation.Run(ctx, s, dims, target, cfg.VariationThresholdPercent)
	if err != nil {
		report.Stages = append(report.Stages, failed("Variation", err))
	} else {
		report.Stages = append(report.Stages, ok("Variation", map[string]int{"rows": len(variationRows)}, nil))
	}

	if len(anomalyResult.Anomalies) > 0 {
		if err := correlation.Run(ctx, s, dims, anomalyResult.Anomalies, target); err != nil {
			report.Stages = append(report.Stages, failed("Correlation", err))
		} else {
			report.Stages = append(report.Stages, ok("Correlation", nil, nil))
		}

		// Correlation persists its rca_context additions directly to the
		// store; re-fetch so RCA appends to, rather than overwrites, them.
		refreshed, err := s.AnomaliesForDate(ctx, date)
		if err != nil {
			report.Stages = append(report.Stages, failed("RCA", err))
		} else {
			if err := rca.Run(ctx, s, dims, refreshed, target); err != nil {
				report.Stages = append(report.Stages, failed("RCA", err))
			} else {
				report.Stages = append(report.Stages, ok("RCA", nil, nil))
			}
		}

		if err := severity.Run(ctx, s, anomalyResult.Anomalies, target, cfg.WidespreadRegionCount); err != nil {
			report.Stages = append(report.Stages, failed("Severity", err))
		} else {
			report.Stages = append(report.Stages, ok("Severity", nil, nil))
		}

		finalAnomalies, err := s.AnomaliesForDate(ctx, date)
		if err != nil {
			report.Stages = append(report.Stages, failed("Narrator", err))
		} else {
			insights, err := narrator.Run(ctx, s, finalAnomalies, target)
			if err != nil {
				report.Stages = append(report.Stages, failed("Narrator", err))
			} else {
				report.Stages = append(report.Stages, ok("Narrator", map[string]int{"insights": len(insights)}, nil))
			}
		}
	} else {
		report.Stages = append(report.Stages, skipped("Correlation", "no anomalies"))
		report.Stages = append(report.Stages, skipped("RCA", "no anomalies"))
		report.Stages = append(report.Stages, skipped("Severity", "no anomalies"))
		report.Stages = append(report.Stages, skipped("Narrator", "no anomalies"))
	}

	return report, nil
}
