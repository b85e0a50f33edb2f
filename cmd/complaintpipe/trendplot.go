package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/complaintpipe/complaintpipe/internal/config"
	"github.com/complaintpipe/complaintpipe/internal/dimension"
	"github.com/complaintpipe/complaintpipe/internal/trendplot"
)

func newTrendPlotCommand(cfg config.Config, logger *zap.Logger) *cobra.Command {
	var dateStr string
	var daysBack int

	cmd := &cobra.Command{
		Use:   "trendplot",
		Short: "Render PNG trend charts (Total plus per-dimension top-5 keys) for the window ending on a date.",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parseDateFlag(dateStr)
			if err != nil {
				return err
			}
			s, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			dims := dimension.Resolve(cfg.Dimensions)
			paths, err := trendplot.Run(context.Background(), s, dims, target, daysBack, cfg.TrendPlotDir)
			if err != nil {
				return fmt.Errorf("trendplot: %w", err)
			}

			logger.Info("trendplot complete", zap.Int("charts", len(paths)))
			for _, p := range paths {
				logger.Info("chart written", zap.String("path", p))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dateStr, "date", "", "target date YYYY-MM-DD (defaults to yesterday UTC)")
	cmd.Flags().IntVar(&daysBack, "days-back", 30, "number of trailing days to render")
	return cmd
}
