package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func sessionsCMD() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List stored conversation sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			a, err := buildApp(cfg)
			if err != nil {
				return err
			}
			summaries := a.bot.Sessions()
			if len(summaries) == 0 {
				fmt.Println("No sessions stored.")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SESSION\tIDENTITY\tMESSAGES\tUPDATED")
			for _, s := range summaries {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
					s.ID, s.Identity, s.MessageCount, s.UpdatedAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}
}
