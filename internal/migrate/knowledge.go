package migrate

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"opinions-migrate/internal/knowledge"
	"opinions-migrate/internal/model"
	"opinions-migrate/internal/pkg/logger"
)

// ResourceSink is the writer surface the knowledge migrator needs.
type ResourceSink interface {
	WriteResources(ctx context.Context, batch []model.KnowledgeResource, batchNo int) (int64, error)
	PurgeResources(ctx context.Context) (int64, error)
	BatchSize() int
}

// ResourceSource streams knowledge base resources.
type ResourceSource interface {
	Each(ctx context.Context, fn func(knowledge.Resource) error) error
	Failures() []*knowledge.ParseError
}

// KnowledgeMigrator loads the knowledge base files into the target database,
// optionally purging existing rows first.
type KnowledgeMigrator struct {
	source ResourceSource
	sink   ResourceSink
	purge  bool
	log    logger.Logger
}

func NewKnowledgeMigrator(source ResourceSource, sink ResourceSink, purge bool, log logger.Logger) *KnowledgeMigrator {
	return &KnowledgeMigrator{source: source, sink: sink, purge: purge, log: log}
}

func (m *KnowledgeMigrator) Run(ctx context.Context) (*Report, error) {
	report := &Report{RunId: uuid.New()}
	start := time.Now()

	if m.purge {
		purged, err := m.sink.PurgeResources(ctx)
		if err != nil {
			report.Elapsed = time.Since(start)
			return report, err
		}
		m.log.Info("migrate", "purged existing knowledge resources", map[string]interface{}{
			"run_id": report.RunId.String(),
			"purged": purged,
		})
	}

	batch := make([]model.KnowledgeResource, 0, m.sink.BatchSize())
	batchNo := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		batchNo++
		written, err := m.sink.WriteResources(ctx, batch, batchNo)
		report.ResourcesWritten += written
		batch = batch[:0]
		return err
	}

	err := m.source.Each(ctx, func(resource knowledge.Resource) error {
		report.ResourcesRead++
		batch = append(batch, toResourceModel(resource))
		if len(batch) >= m.sink.BatchSize() {
			return flush()
		}
		return nil
	})
	if err == nil {
		err = flush()
	}

	for _, failure := range m.source.Failures() {
		report.Failed++
		m.log.Warn("migrate", "skipped malformed knowledge file", map[string]interface{}{
			"run_id": report.RunId.String(),
			"path":   failure.Path,
			"error":  failure.Err.Error(),
		})
	}

	report.Elapsed = time.Since(start)
	if err != nil {
		m.log.Error("migrate", "knowledge migration aborted", map[string]interface{}{
			"run_id":            report.RunId.String(),
			"resources_read":    report.ResourcesRead,
			"resources_written": report.ResourcesWritten,
			"failed":            report.Failed,
			"error":             err.Error(),
		})
		return report, err
	}

	m.log.Info("migrate", "knowledge migration complete", map[string]interface{}{
		"run_id":            report.RunId.String(),
		"resources_read":    report.ResourcesRead,
		"resources_written": report.ResourcesWritten,
		"failed":            report.Failed,
		"elapsed":           report.Elapsed.String(),
	})
	return report, nil
}

func toResourceModel(resource knowledge.Resource) model.KnowledgeResource {
	return model.KnowledgeResource{
		Name:       resource.Name,
		Title:      resource.Title,
		Category:   resource.Category,
		Payload:    datatypes.JSON(resource.Payload),
		SourcePath: resource.SourcePath,
	}
}
