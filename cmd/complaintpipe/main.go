package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/complaintpipe/complaintpipe/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		fmt.Fprintf(os.Stderr, "config path: %s\n", config.ConfigPath())
		os.Exit(1)
	}

	logger, err := newLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error constructing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	root := &cobra.Command{
		Use:   "complaintpipe",
		Short: "complaintpipe runs the daily complaint-analytics pipeline: ingest, anomaly detection, trend, variation, surge, and repeat-caller analysis.",
	}

	root.AddCommand(
		newRunCommand(cfg, logger),
		newIngestCommand(cfg, logger),
		newBaselineCommand(cfg, logger),
		newSurgeCommand(cfg, logger),
		newRepeatCommand(cfg, logger),
		newResolutionCommand(cfg, logger),
		newTrendPlotCommand(cfg, logger),
		newWatchCommand(cfg, logger),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	if os.Getenv("COMPLAINTPIPE_DEBUG") != "" {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	return cfg.Build()
}
