package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/complaintpipe/complaintpipe/internal/config"
	"github.com/complaintpipe/complaintpipe/internal/orchestrator"
)

var watchedExtensions = map[string]bool{".csv": true, ".txt": true, ".tsv": true}

func newWatchCommand(cfg config.Config, logger *zap.Logger) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a directory for new export files and run the daily pipeline against each one as it lands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				return fmt.Errorf("watch: --dir is required")
			}

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("watch: creating watcher: %w", err)
			}
			defer watcher.Close()

			if err := watcher.Add(dir); err != nil {
				return fmt.Errorf("watch: adding %s: %w", dir, err)
			}
			logger.Info("watching for new export files", zap.String("dir", dir))

			s, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			for {
				select {
				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
						continue
					}
					if !watchedExtensions[strings.ToLower(filepath.Ext(event.Name))] {
						continue
					}

					logger.Info("new export file detected", zap.String("path", event.Name))
					target := time.Now().UTC()
					report, err := orchestrator.Run(context.Background(), s, cfg, logger, target, event.Name, true, false)
					if err != nil {
						logger.Error("pipeline run failed", zap.String("path", event.Name), zap.Error(err))
						continue
					}
					for _, stage := range report.Stages {
						logger.Info("stage complete", zap.String("stage", stage.Stage), zap.String("status", stage.Status))
					}

				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					logger.Warn("watcher error", zap.Error(err))
				}
			}
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "directory to watch for new service-request export files (required)")
	return cmd
}
