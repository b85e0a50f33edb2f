package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/complaintpipe/complaintpipe/internal/config"
	"github.com/complaintpipe/complaintpipe/internal/metrics"
	"github.com/complaintpipe/complaintpipe/internal/orchestrator"
)

func newRunCommand(cfg config.Config, logger *zap.Logger) *cobra.Command {
	var file, dateStr, metricsAddr string
	var forceBaseline, noIngest bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full daily pipeline: ingest (optional), validate, baseline, anomaly, trend, variation, correlation, rca, severity, narrator.",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parseDateFlag(dateStr)
			if err != nil {
				return err
			}

			addr := metricsAddr
			if addr == "" {
				addr = cfg.MetricsAddr
			}
			if addr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", metrics.Handler())
				go func() {
					if err := http.ListenAndServe(addr, mux); err != nil {
						logger.Warn("metrics server stopped", zap.Error(err))
					}
				}()
				logger.Info("metrics listening", zap.String("addr", addr))
			}

			s, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			report, err := orchestrator.Run(context.Background(), s, cfg, logger, target, file, forceBaseline, noIngest)
			for _, stage := range report.Stages {
				switch stage.Status {
				case "error":
					logger.Error("stage failed", zap.String("stage", stage.Stage), zap.String("message", stage.Message))
				case "warning":
					logger.Warn("stage warning", zap.String("stage", stage.Stage), zap.String("message", stage.Message))
				default:
					logger.Info("stage complete", zap.String("stage", stage.Stage), zap.String("status", stage.Status), zap.Any("counts", stage.Counts))
				}
			}
			if err != nil {
				return fmt.Errorf("run: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "service-request export file to ingest before running the pipeline (skipped when empty)")
	cmd.Flags().StringVar(&dateStr, "date", "", "target date YYYY-MM-DD (defaults to yesterday UTC)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address to serve /metrics on (overrides config metrics_addr)")
	cmd.Flags().BoolVar(&forceBaseline, "baseline", false, "force baseline recompute (otherwise Anomaly reads whatever baseline artifacts already exist on disk)")
	cmd.Flags().BoolVar(&noIngest, "no-ingest", false, "skip ingestion even if --file is given")
	return cmd
}
