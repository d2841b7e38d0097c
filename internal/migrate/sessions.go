package migrate

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"opinions-migrate/internal/legacy"
	"opinions-migrate/internal/model"
	"opinions-migrate/internal/pkg/logger"
)

// Report summarises one migration run. Counts reflect what actually
// committed, so a fatal abort still reports the progress made before it.
type Report struct {
	RunId            uuid.UUID
	SessionsRead     int64
	SessionsWritten  int64
	RevisionsWritten int64
	ResourcesRead    int64
	ResourcesWritten int64
	Failed           int64
	Elapsed          time.Duration
}

// SessionSink is the writer surface the session migrator needs.
type SessionSink interface {
	WriteSessions(ctx context.Context, batch []SessionBatchItem, batchNo int) (int64, int64, error)
	BatchSize() int
}

// SessionSource streams legacy sessions with their revisions.
type SessionSource interface {
	EachSession(ctx context.Context, fn func(legacy.Session, []legacy.Revision) error) error
}

// SessionMigrator moves the legacy session archive into the target database.
type SessionMigrator struct {
	source SessionSource
	sink   SessionSink
	log    logger.Logger
}

func NewSessionMigrator(source SessionSource, sink SessionSink, log logger.Logger) *SessionMigrator {
	return &SessionMigrator{source: source, sink: sink, log: log}
}

func (m *SessionMigrator) Run(ctx context.Context) (*Report, error) {
	report := &Report{RunId: uuid.New()}
	start := time.Now()

	batch := make([]SessionBatchItem, 0, m.sink.BatchSize())
	batchNo := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		batchNo++
		sessions, revisions, err := m.sink.WriteSessions(ctx, batch, batchNo)
		report.SessionsWritten += sessions
		report.RevisionsWritten += revisions
		batch = batch[:0]
		return err
	}

	err := m.source.EachSession(ctx, func(s legacy.Session, revisions []legacy.Revision) error {
		report.SessionsRead++
		batch = append(batch, SessionBatchItem{
			Session:   toSessionModel(s),
			Revisions: toRevisionModels(revisions),
		})
		if len(batch) >= m.sink.BatchSize() {
			return flush()
		}
		return nil
	})
	if err == nil {
		err = flush()
	}

	report.Elapsed = time.Since(start)
	if err != nil {
		m.log.Error("migrate", "session migration aborted", map[string]interface{}{
			"run_id":            report.RunId.String(),
			"sessions_read":     report.SessionsRead,
			"sessions_written":  report.SessionsWritten,
			"revisions_written": report.RevisionsWritten,
			"error":             err.Error(),
		})
		return report, err
	}

	m.log.Info("migrate", "session migration complete", map[string]interface{}{
		"run_id":            report.RunId.String(),
		"sessions_read":     report.SessionsRead,
		"sessions_written":  report.SessionsWritten,
		"revisions_written": report.RevisionsWritten,
		"elapsed":           report.Elapsed.String(),
	})
	return report, nil
}

func toSessionModel(s legacy.Session) model.SavedSession {
	data := s.Data
	if len(data) == 0 || !json.Valid(data) {
		data = []byte("{}")
	}
	return model.SavedSession{
		SessionId:   s.SessionId,
		ProjectName: s.ProjectName,
		Summary:     s.Summary,
		Data:        datatypes.JSON(data),
		UpdatedAt:   s.UpdatedAt,
	}
}

func toRevisionModels(revisions []legacy.Revision) []model.SessionRevision {
	if len(revisions) == 0 {
		return nil
	}
	models := make([]model.SessionRevision, len(revisions))
	for i, rev := range revisions {
		models[i] = model.SessionRevision{
			Id:            rev.Id,
			SessionId:     rev.SessionId,
			Sequence:      rev.Sequence,
			RequirementId: rev.RequirementId,
			Filename:      rev.Filename,
			FilePath:      rev.FilePath,
			MimeType:      rev.MimeType,
			Note:          rev.Note,
			UploadedAt:    rev.UploadedAt,
		}
	}
	return models
}
