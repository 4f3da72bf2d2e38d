package cli

import (
	"fmt"

	"github.com/pratik-mahalle/soar/internal/config"
	"github.com/pratik-mahalle/soar/internal/repository/postgres"
	"github.com/pratik-mahalle/soar/migrations"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	var (
		dryRun bool
		dbPath string
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("db") {
				cfg.Database.Driver = "sqlite"
				cfg.Database.Path = dbPath
			}

			db, err := postgres.New(cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			out := cmd.OutOrStdout()
			if dryRun {
				pending, err := postgres.PendingMigrations(cmd.Context(), db, migrations.GetFS())
				if err != nil {
					return err
				}
				if len(pending) == 0 {
					fmt.Fprintln(out, "No pending migrations")
				}
				for _, name := range pending {
					fmt.Fprintf(out, "Pending: %s\n", name)
				}
				return nil
			}

			applied, err := postgres.RunMigrations(cmd.Context(), db, migrations.GetFS())
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(out, "Database is up to date")
			}
			for _, name := range applied {
				fmt.Fprintf(out, "Applied %s\n", name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list pending migrations without applying them")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (overrides DB_PATH)")

	return cmd
}
