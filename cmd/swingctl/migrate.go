package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fairwaylab/swingcoach/internal/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, store, err := openStorage(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		if err := migrations.Run(store.DB, cfg.MigrationsPath); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}
