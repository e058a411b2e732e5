package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Try the promo post generator from a terminal",
		Long: `demo drives the "Try It Live" widget against a running promoagent API.

Pick a PDF, let it upload, ask for a post and get the text and image back.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
		},
		SilenceUsage: true,
	}

	cmd.AddCommand(newRunCmd())

	return cmd
}
