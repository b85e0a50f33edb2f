package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/complaintpipe/complaintpipe/internal/config"
	"github.com/complaintpipe/complaintpipe/internal/ingest"
	"github.com/complaintpipe/complaintpipe/internal/metrics"
)

func newIngestCommand(cfg config.Config, logger *zap.Logger) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest a single service-request export file into the store, without running any derived stage.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("ingest: --file is required")
			}
			s, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := ingest.Run(context.Background(), s, file)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			metrics.RowsIngested.Add(float64(res.RowsInserted + res.RowsUpdated))
			metrics.RowsDropped.Add(float64(res.RowsDropped))

			logger.Info("ingest complete",
				zap.Int("rows_read", res.RowsRead),
				zap.Int("rows_parsed", res.RowsParsed),
				zap.Int("rows_dropped", res.RowsDropped),
				zap.Int("rows_inserted", res.RowsInserted),
				zap.Int("rows_updated", res.RowsUpdated),
				zap.String("encoding", res.Encoding),
				zap.String("delimiter", res.Delimiter),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "service-request export file to ingest (required)")
	return cmd
}
