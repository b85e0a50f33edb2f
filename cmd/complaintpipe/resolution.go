package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/complaintpipe/complaintpipe/internal/config"
	"github.com/complaintpipe/complaintpipe/internal/resolution"
)

func newResolutionCommand(cfg config.Config, logger *zap.Logger) *cobra.Command {
	var dateStr string

	cmd := &cobra.Command{
		Use:   "resolution",
		Short: "Compute mean-time-to-resolution and open-ticket aging for a single date.",
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

			result, err := resolution.Run(context.Background(), s, target)
			if err != nil {
				return fmt.Errorf("resolution: %w", err)
			}

			logger.Info("resolution complete", zap.Int("mttr_rows", len(result.MTTR)), zap.Int("aging_rows", len(result.Aging)))
			return nil
		},
	}

	cmd.Flags().StringVar(&dateStr, "date", "", "target date YYYY-MM-DD (defaults to yesterday UTC)")
	return cmd
}
