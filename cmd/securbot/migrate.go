package main

import (
	"fmt"

	"github.com/spf13/cobra"

	pg "securbot/internal/adapters/postgres"
)

func newMigrateCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := load(true)
			if err != nil {
				return err
			}
			db, err := pg.ConnectWithRetry(cmd.Context(), cfg.DatabaseURL, 3, log)
			if err != nil {
				return fmt.Errorf("db connect error: %w", err)
			}
			defer db.Close()
			if err := db.Migrate(cmd.Context()); err != nil {
				return err
			}
			log.Info("migrations applied")
			return nil
		},
	}
}
