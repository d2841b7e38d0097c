package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"opinions-migrate/internal/config"
	"opinions-migrate/internal/knowledge"
	"opinions-migrate/internal/migrate"
	"opinions-migrate/internal/pkg/logger"
	"opinions-migrate/pkg/database"
)

func main() {
	var baseDir string
	var databaseURL string
	var purge bool

	cmd := &cobra.Command{
		Use:   "migrate-knowledge",
		Short: "Load the knowledge base JSON files into the target database",
		Long: "Loads every *.json file of the knowledge base directory into the " +
			"knowledge_resources table. Without --purge existing rows are replaced " +
			"by name; with --purge all rows are deleted first and the table is " +
			"rebuilt from the source files.",
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

			reader := knowledge.NewReader(baseDir)
			writer := migrate.NewWriter(db, log)
			report, err := migrate.NewKnowledgeMigrator(reader, writer, purge, log).Run(cmd.Context())
			if report != nil {
				fmt.Printf("resources read: %d, written: %d, failed: %d (%s)\n",
					report.ResourcesRead, report.ResourcesWritten, report.Failed, report.Elapsed.Round(time.Millisecond))
			}
			if err != nil {
				return err
			}

			color.Green("✅ Knowledge base migrated: %d resources transferred (from %s).",
				report.ResourcesWritten, baseDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&baseDir, "base-dir", "data/knowledge", "directory holding the knowledge base JSON files")
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "target database DSN (overrides DATABASE_URL and MYSQL_*/POSTGRES_* variables)")
	cmd.Flags().BoolVar(&purge, "purge", false, "delete existing knowledge resources before loading")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
