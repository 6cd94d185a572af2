package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the client root command.
func NewRootCmd() *cobra.Command {
	cfg := DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "battlegrid-client",
		Short: "Interactive client for the battlegrid game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(cfg)
		},
		SilenceUsage: true,
	}

	rootCmd.Flags().StringVar(&cfg.ServerAddr, "server", cfg.ServerAddr, "Game server address (host:port)")

	return rootCmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
