package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	srv "github.com/corpusqa/corpusqa/internal/server"
)

func serveCMD() *cobra.Command {
	var addr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Address = addr
			}
			a, err := buildApp(cfg)
			if err != nil {
				return err
			}
			logger := log.New(os.Stdout, "[HTTP] ", log.LstdFlags)
			if !a.index.Ready() {
				logger.Printf("vector index is empty; run `corpusqa ingest` to load documents")
			}
			return srv.New(a.bot, logger).Run(cfg.Server.Address)
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return serve
}
