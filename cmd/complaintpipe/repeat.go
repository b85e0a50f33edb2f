package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/complaintpipe/complaintpipe/internal/config"
	"github.com/complaintpipe/complaintpipe/internal/repeat"
)

func newRepeatCommand(cfg config.Config, logger *zap.Logger) *cobra.Command {
	var dateStr string

	cmd := &cobra.Command{
		Use:   "repeat",
		Short: "Classify repeat-caller MDNs over the 30 days ending on a date.",
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

			result, err := repeat.Run(context.Background(), s, target)
			if err != nil {
				return fmt.Errorf("repeat: %w", err)
			}

			logger.Info("repeat complete",
				zap.Int("repeaters", len(result.Repeaters)),
				zap.Int("top_repeaters", len(result.TopRepeaters)),
				zap.Any("by_severity", result.BySeverity),
			)
			for _, r := range result.TopRepeaters {
				logger.Info("top repeater", zap.String("mdn", r.MDN), zap.Int("count", r.Count), zap.String("class", r.Class),
					zap.String("region", r.Region), zap.String("exchange", r.Exchange), zap.String("city", r.City), zap.String("sub_type", r.SubType))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dateStr, "date", "", "target date YYYY-MM-DD (defaults to yesterday UTC); the 30-day window ends here")
	return cmd
}
