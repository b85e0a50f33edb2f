package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/complaintpipe/complaintpipe/internal/baseline"
	"github.com/complaintpipe/complaintpipe/internal/config"
	"github.com/complaintpipe/complaintpipe/internal/dimension"
)

func newBaselineCommand(cfg config.Config, logger *zap.Logger) *cobra.Command {
	var dateStr string

	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Compute and persist rolling baseline snapshots for every configured dimension.",
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
			result, err := baseline.Run(context.Background(), s, dims, cfg.BaselineWindows, cfg.BaselineDir, target)
			if err != nil {
				return fmt.Errorf("baseline: %w", err)
			}
			logger.Info("baseline complete", zap.String("status", result.Status), zap.Any("per_dimension", result.PerDimension))
			return nil
		},
	}

	cmd.Flags().StringVar(&dateStr, "date", "", "target date YYYY-MM-DD (defaults to yesterday UTC)")
	return cmd
}
