package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/complaintpipe/complaintpipe/internal/config"
	"github.com/complaintpipe/complaintpipe/internal/surge"
)

func newSurgeCommand(cfg config.Config, logger *zap.Logger) *cobra.Command {
	var dateStr string

	cmd := &cobra.Command{
		Use:   "surge",
		Short: "Report surge highlights at Total/Region/Exchange/City scope for a single date.",
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

			highlights, err := surge.Run(context.Background(), s, target, cfg.SurgeAlarming, cfg.SurgeCritical)
			if err != nil {
				return fmt.Errorf("surge: %w", err)
			}

			for _, h := range highlights {
				logger.Info("surge highlight",
					zap.String("scope", h.Scope), zap.String("region", h.Region), zap.String("exchange", h.Exchange), zap.String("city", h.City),
					zap.Int("current", h.Current), zap.Float64("mtd_avg", h.MTDAvg), zap.Int("last_week", h.LastWeek),
					zap.Float64("pct_mtd", h.PctMTD), zap.Float64("pct_wow", h.PctWoW), zap.String("severity", h.Severity),
				)
			}
			logger.Info("surge complete", zap.Int("highlights", len(highlights)))
			return nil
		},
	}

	cmd.Flags().StringVar(&dateStr, "date", "", "target date YYYY-MM-DD (defaults to yesterday UTC)")
	return cmd
}
