package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/corpusqa/corpusqa/internal/tui"
)

func chatCMD() *cobra.Command {
	var identity string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the corpus interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			a, err := buildApp(cfg)
			if err != nil {
				return err
			}
			if !a.index.Ready() {
				fmt.Println("Warning: vector index is empty; answers will be ungrounded until you run `corpusqa ingest`.")
			}
			token := a.bot.Register(identity)
			program := tea.NewProgram(tui.New(a.bot, identity, token), tea.WithAltScreen())
			_, err = program.Run()
			return err
		},
	}
	cmd.Flags().StringVar(&identity, "identity", "user", "identity to chat as")
	return cmd
}
