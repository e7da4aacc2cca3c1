package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/corpusqa/corpusqa/internal/ingest"
)

func ingestCMD() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load documents into the vector index",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if dir != "" {
				cfg.Ingest.DocsDir = dir
			}
			a, err := buildApp(cfg)
			if err != nil {
				return err
			}
			logger := log.New(os.Stdout, "[INGEST] ", log.LstdFlags)
			ingestor := ingest.NewIngestor(cfg.Ingest, a.index, logger)
			stats, err := ingestor.Run(cmd.Context(), cfg.Ingest.DocsDir)
			if err != nil {
				return err
			}
			logger.Printf("done: %d files, %d chunks indexed, %d files skipped",
				stats.Files, stats.Chunks, stats.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "documents directory (overrides config)")
	return cmd
}
