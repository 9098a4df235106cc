package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/IgorGrieder/encurtador-links/internal/config"
	"github.com/IgorGrieder/encurtador-links/internal/infrastructure/logger"
)

// cli carries state shared by subcommands once the root pre-run has loaded it.
type cli struct {
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "linkctl",
		Short: "Administer the link shortener",
		Long: `linkctl runs maintenance tasks against the link store configured
through the same environment variables as the API server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			if backend, _ := cmd.Flags().GetString("backend"); backend != "" {
				cfg.Storage.Backend = backend
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			if err := logger.Init(cfg.App.Env, cfg.App.LogLevel); err != nil {
				return fmt.Errorf("initialize logger: %w", err)
			}
			c.cfg = cfg
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			logger.Sync()
		},
	}

	root.PersistentFlags().String("backend", "", "override STORAGE_BACKEND (memory, postgres, mongo, sqlite)")

	root.AddCommand(c.migrateCmd())
	root.AddCommand(c.sweepCmd())
	root.AddCommand(c.eventsCmd())

	return root
}
