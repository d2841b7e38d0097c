package integration

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"opinions-migrate/internal/config"
	"opinions-migrate/internal/knowledge"
	"opinions-migrate/internal/legacy"
	"opinions-migrate/internal/migrate"
	"opinions-migrate/internal/model"
	"opinions-migrate/internal/pkg/logger"
	"opinions-migrate/internal/repository/implementation"
	"opinions-migrate/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// buildArchive writes a throwaway legacy archive with two sessions. Session
// ids carry a per-run suffix so repeated runs against the same target stay
// distinguishable, and revision ids start from a per-run base for the same
// reason.
func buildArchive(t *testing.T, dir, suffix string, idBase int64) string {
	t.Helper()
	path := filepath.Join(dir, "archive.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE saved_sessions (
			session_id TEXT PRIMARY KEY,
			project_name TEXT,
			summary TEXT,
			data_json TEXT,
			updated_at TEXT
		);
		CREATE TABLE session_revisions (
			id INTEGER PRIMARY KEY,
			session_id TEXT,
			requirement_id TEXT,
			filename TEXT,
			file_path TEXT,
			mime_type TEXT,
			note TEXT,
			uploaded_at TEXT
		);`)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		sessionId := fmt.Sprintf("it-%s-%d", suffix, i)
		_, err = db.Exec(
			`INSERT INTO saved_sessions VALUES (?, ?, ?, ?, ?)`,
			sessionId, "integration project", "summary",
			fmt.Sprintf(`{"session":%d}`, i), "2025-03-01T10:00:00Z")
		require.NoError(t, err)

		for j := 0; j < 2; j++ {
			_, err = db.Exec(
				`INSERT INTO session_revisions VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				idBase+int64(i*2+j), sessionId, fmt.Sprintf("REQ-%d", j),
				fmt.Sprintf("rev-%d.pdf", j), "/uploads/rev.pdf", "application/pdf",
				"", fmt.Sprintf("2025-03-01T1%d:00:00Z", j))
			require.NoError(t, err)
		}
	}
	return path
}

func buildKnowledgeDir(t *testing.T, dir string) string {
	t.Helper()
	base := filepath.Join(dir, "knowledge")
	require.NoError(t, os.Mkdir(base, 0o755))

	files := map[string]string{
		"criteria.json": `{"title": "Criteria", "items": {"a": 1}}`,
		"glossary.json": `{"terms": [{"term": "x", "definition": "y"}]}`,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(base, name), []byte(content), 0o644))
	}
	return base
}

// axisVector builds a unit vector along one axis of the embedding space, so
// distances in the similarity tests are exact without an embedding service.
func axisVector(axis int) []float32 {
	v := make([]float32, 768)
	v[axis] = 1
	return v
}

func TestMigrationAgainstLiveDatabase(t *testing.T) {
	// Load .env from root
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	cfg := config.Load()
	desc, err := cfg.ResolveDatabase("")
	if err != nil {
		t.Skipf("Skipping integration test: no target database configured (%v)", err)
	}

	db, err := database.Open(desc)
	require.NoError(t, err)
	defer database.Close(db)
	require.NoError(t, database.EnsureSchema(db, desc.Dialect))

	ctx := context.Background()
	suffix := uuid.New().String()[:8]
	idBase := time.Now().UnixNano()
	archivePath := buildArchive(t, t.TempDir(), suffix, idBase)

	writer := migrate.NewWriter(db, logger.NopLogger{})
	sessionRepo := implementation.NewSavedSessionRepository(db)

	t.Run("Sessions Transfer", func(t *testing.T) {
		reader := legacy.NewReader(archivePath)
		report, err := migrate.NewSessionMigrator(reader, writer, logger.NopLogger{}).Run(ctx)
		require.NoError(t, err)

		assert.Equal(t, int64(2), report.SessionsRead)
		assert.Equal(t, int64(2), report.SessionsWritten)
		assert.Equal(t, int64(4), report.RevisionsWritten)

		found, err := sessionRepo.FindById(ctx, fmt.Sprintf("it-%s-0", suffix))
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.JSONEq(t, `{"session":0}`, string(found.Data))
	})

	t.Run("Sessions Rerun Is Idempotent", func(t *testing.T) {
		reader := legacy.NewReader(archivePath)
		report, err := migrate.NewSessionMigrator(reader, writer, logger.NopLogger{}).Run(ctx)
		require.NoError(t, err)

		assert.Equal(t, int64(2), report.SessionsRead)
		assert.Zero(t, report.SessionsWritten, "existing sessions must be left alone")
		assert.Zero(t, report.RevisionsWritten)
	})

	t.Run("Revisions Keep Upload Order", func(t *testing.T) {
		revisions, err := sessionRepo.FindRevisions(ctx, fmt.Sprintf("it-%s-1", suffix))
		require.NoError(t, err)
		require.Len(t, revisions, 2)

		assert.Equal(t, 1, revisions[0].Sequence)
		assert.Equal(t, 2, revisions[1].Sequence)
		assert.Equal(t, "REQ-0", revisions[0].RequirementId)
		assert.Equal(t, "REQ-1", revisions[1].RequirementId)
	})

	t.Run("Knowledge Transfer And Purge", func(t *testing.T) {
		baseDir := buildKnowledgeDir(t, t.TempDir())
		knowledgeRepo := implementation.NewKnowledgeResourceRepository(db)

		reader := knowledge.NewReader(baseDir)
		report, err := migrate.NewKnowledgeMigrator(reader, writer, false, logger.NopLogger{}).Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), report.ResourcesWritten)

		// Re-running with purge replaces the table contents and lands on the
		// same count.
		reader = knowledge.NewReader(baseDir)
		report, err = migrate.NewKnowledgeMigrator(reader, writer, true, logger.NopLogger{}).Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), report.ResourcesWritten)

		count, err := knowledgeRepo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		criteria, err := knowledgeRepo.FindByName(ctx, "criteria")
		require.NoError(t, err)
		require.NotNil(t, criteria)
		assert.Equal(t, "Criteria", criteria.Title)
	})

	t.Run("Vector Store Search And Delete", func(t *testing.T) {
		if desc.Dialect != config.DialectPostgres {
			t.Skip("Skipping vector store test: requires a PostgreSQL target")
		}

		vectorRepo := implementation.NewVectorKnowledgeRepository(db)
		source := "vec-" + suffix

		before, err := vectorRepo.Count(ctx)
		require.NoError(t, err)

		chunks := make([]*model.VectorizedKnowledge, 3)
		for i := range chunks {
			chunks[i] = &model.VectorizedKnowledge{
				Source:    source,
				Key:       fmt.Sprintf("k%d", i),
				Content:   fmt.Sprintf("chunk %d", i),
				Embedding: pgvector.NewVector(axisVector(i)),
			}
		}
		require.NoError(t, vectorRepo.UpsertChunks(ctx, chunks))

		after, err := vectorRepo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, before+3, after)

		// Query near the first axis: k0 is closest, k1 next.
		query := axisVector(0)
		query[0] = 0.9
		query[1] = 0.1

		results, err := vectorRepo.SearchSimilar(ctx, query, 2, []string{source})
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "k0", results[0].Key)
		assert.Equal(t, "k1", results[1].Key)
		assert.Greater(t, results[0].Similarity, results[1].Similarity)

		// Re-upserting the same (source, key) replaces the content in place.
		chunks[0].Content = "chunk 0 revised"
		require.NoError(t, vectorRepo.UpsertChunks(ctx, chunks[:1]))
		results, err = vectorRepo.SearchSimilar(ctx, query, 1, []string{source})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "chunk 0 revised", results[0].Content)

		require.NoError(t, vectorRepo.DeleteBySource(ctx, source))
		results, err = vectorRepo.SearchSimilar(ctx, query, 10, []string{source})
		require.NoError(t, err)
		assert.Empty(t, results)

		final, err := vectorRepo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, final)
	})
}
