package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/havliksimon/anki-card-creator/internal/adapter/postgres"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Database.DSN == "" {
				return errNoDatabase
			}

			applied, err := postgres.Migrate(cmd.Context(), cfg.Database.DSN, ctx.logger)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migrations: %v\n", len(applied), applied)
			return nil
		},
	})
	return migrateCmd
}
