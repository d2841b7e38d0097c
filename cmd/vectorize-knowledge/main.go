package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/pgvector/pgvector-go"
	"github.com/spf13/cobra"

	"opinions-migrate/internal/config"
	"opinions-migrate/internal/model"
	"opinions-migrate/internal/pkg/logger"
	"opinions-migrate/internal/repository/implementation"
	"opinions-migrate/pkg/chunker"
	"opinions-migrate/pkg/database"
	"opinions-migrate/pkg/embedding"
)

const upsertBatchSize = 50

func main() {
	var databaseURL string
	var sources []string

	cmd := &cobra.Command{
		Use:   "vectorize-knowledge",
		Short: "Embed the migrated knowledge resources into the vectorized_knowledge table (PostgreSQL only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			log := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
			defer log.Sync()

			desc, err := cfg.ResolveDatabase(databaseURL)
			if err != nil {
				return err
			}
			if desc.Dialect != config.DialectPostgres {
				return fmt.Errorf("vector search requires a PostgreSQL target, got %s", desc.Dialect)
			}

			db, err := database.Open(desc)
			if err != nil {
				return err
			}
			defer database.Close(db)

			if err := database.EnsureSchema(db, desc.Dialect); err != nil {
				return err
			}

			provider, err := embedding.NewProvider(
				cfg.Ai.EmbeddingProvider, cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel, cfg.Ai.GeminiAPIKey)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			knowledgeRepo := implementation.NewKnowledgeResourceRepository(db)
			vectorRepo := implementation.NewVectorKnowledgeRepository(db)

			resources, err := knowledgeRepo.FindAll(ctx)
			if err != nil {
				return err
			}

			wanted := make(map[string]bool, len(sources))
			for _, source := range sources {
				wanted[source] = true
			}

			var embedded int
			var pending []*model.VectorizedKnowledge
			flush := func() error {
				if len(pending) == 0 {
					return nil
				}
				if err := vectorRepo.UpsertChunks(ctx, pending); err != nil {
					return err
				}
				embedded += len(pending)
				pending = pending[:0]
				return nil
			}

			for _, resource := range resources {
				if len(wanted) > 0 && !wanted[resource.Name] {
					continue
				}
				chunks := chunker.ChunkResource(resource.Name, []byte(resource.Payload))
				log.Info("vectorize", "embedding resource", map[string]interface{}{
					"resource": resource.Name,
					"chunks":   len(chunks),
				})

				for _, chunk := range chunks {
					response, err := provider.Generate(chunk.Content, "RETRIEVAL_DOCUMENT")
					if err != nil {
						return fmt.Errorf("embed %s/%s: %w", chunk.Source, chunk.Key, err)
					}
					pending = append(pending, &model.VectorizedKnowledge{
						Source:    chunk.Source,
						Key:       chunk.Key,
						Content:   chunk.Content,
						Embedding: pgvector.NewVector(response.Embedding.Values),
					})
					if len(pending) >= upsertBatchSize {
						if err := flush(); err != nil {
							return err
						}
					}
				}
			}
			if err := flush(); err != nil {
				return err
			}

			color.Green("✅ Vectorized %d chunks from %d knowledge resources.", embedded, len(resources))
			return nil
		},
	}

	cmd.Flags().StringVar(&databaseURL, "database-url", "", "target database DSN (overrides DATABASE_URL and POSTGRES_* variables)")
	cmd.Flags().StringArrayVar(&sources, "source", nil, "only vectorize the named resources (repeatable)")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
