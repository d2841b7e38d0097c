package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"opinions-migrate/internal/config"
	"opinions-migrate/internal/legacy"
	"opinions-migrate/internal/migrate"
	"opinions-migrate/internal/pkg/logger"
	"opinions-migrate/pkg/database"
)

func main() {
	var sqlitePath string
	var databaseURL string

	cmd := &cobra.Command{
		Use:   "migrate-sessions",
		Short: "Transfer saved sessions and revisions from the legacy SQLite archive into the target database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			log := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
			defer log.Sync()

			desc, err := cfg.ResolveDatabase(databaseURL)
			if err != nil {
				return err
			}

			db, err := database.Open(desc)
			if err != nil {
				return err
			}
			defer database.Close(db)

			if err := database.EnsureSchema(db, desc.Dialect); err != nil {
				return err
			}

			reader := legacy.NewReader(sqlitePath)
			writer := migrate.NewWriter(db, log)
			report, err := migrate.NewSessionMigrator(reader, writer, log).Run(cmd.Context())
			if report != nil {
				fmt.Printf("sessions read: %d, sessions written: %d, revisions written: %d (%s)\n",
					report.SessionsRead, report.SessionsWritten, report.RevisionsWritten, report.Elapsed.Round(time.Millisecond))
			}
			if err != nil {
				return err
			}

			color.Green("✅ Migration complete: %d sessions and %d revisions transferred.",
				report.SessionsWritten, report.RevisionsWritten)
			return nil
		},
	}

	cmd.Flags().StringVar(&sqlitePath, "sqlite-path", "", "path to the legacy SQLite archive")
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "target database DSN (overrides DATABASE_URL and MYSQL_*/POSTGRES_* variables)")
	_ = cmd.MarkFlagRequired("sqlite-path")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
