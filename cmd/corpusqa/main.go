package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "corpusqa",
		Short: "Grounded question answering over a private document corpus",
	}
	root.PersistentFlags().StringP("config", "c", "", "config file (default: ./config.yaml)")
	root.AddCommand(serveCMD(), ingestCMD(), chatCMD(), sessionsCMD())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
