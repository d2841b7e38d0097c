package migrate

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opinions-migrate/internal/legacy"
	"opinions-migrate/internal/pkg/logger"
)

type fakeSessionSource struct {
	items []sourceItem
}

type sourceItem struct {
	session   legacy.Session
	revisions []legacy.Revision
}

func (f *fakeSessionSource) EachSession(ctx context.Context, fn func(legacy.Session, []legacy.Revision) error) error {
	for _, item := range f.items {
		if err := fn(item.session, item.revisions); err != nil {
			return err
		}
	}
	return nil
}

type fakeSessionSink struct {
	batchSize   int
	batches     [][]SessionBatchItem
	failAtBatch int // 0 = never
}

func (f *fakeSessionSink) BatchSize() int { return f.batchSize }

func (f *fakeSessionSink) WriteSessions(_ context.Context, batch []SessionBatchItem, batchNo int) (int64, int64, error) {
	if f.failAtBatch != 0 && batchNo == f.failAtBatch {
		return 0, 0, &PersistError{Op: "sessions", Batch: batchNo, Err: assert.AnError}
	}
	copied := make([]SessionBatchItem, len(batch))
	copy(copied, batch)
	f.batches = append(f.batches, copied)

	var revisions int64
	for _, item := range batch {
		revisions += int64(len(item.Revisions))
	}
	return int64(len(batch)), revisions, nil
}

func sourceOf(n int) *fakeSessionSource {
	source := &fakeSessionSource{}
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("sess-%03d", i)
		source.items = append(source.items, sourceItem{
			session: legacy.Session{SessionId: id, Data: []byte(`{}`), UpdatedAt: time.Now()},
			revisions: []legacy.Revision{
				{Id: int64(i*10 + 1), SessionId: id, Sequence: 1},
				{Id: int64(i*10 + 2), SessionId: id, Sequence: 2},
			},
		})
	}
	return source
}

func TestSessionMigratorTransfersEverything(t *testing.T) {
	sink := &fakeSessionSink{batchSize: 2}
	migrator := NewSessionMigrator(sourceOf(5), sink, logger.NopLogger{})

	report, err := migrator.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(5), report.SessionsRead)
	assert.Equal(t, int64(5), report.SessionsWritten)
	assert.Equal(t, int64(10), report.RevisionsWritten)
	assert.NotZero(t, report.RunId)
	// 5 sessions at batch size 2: two full batches plus the tail flush.
	assert.Len(t, sink.batches, 3)
}

func TestSessionMigratorReportsPartialProgressOnFailure(t *testing.T) {
	sink := &fakeSessionSink{batchSize: 2, failAtBatch: 2}
	migrator := NewSessionMigrator(sourceOf(5), sink, logger.NopLogger{})

	report, err := migrator.Run(context.Background())

	var persistErr *PersistError
	require.ErrorAs(t, err, &persistErr)
	assert.Equal(t, 2, persistErr.Batch)

	// The first batch committed before the failure; its counts survive.
	require.NotNil(t, report)
	assert.Equal(t, int64(2), report.SessionsWritten)
	assert.Equal(t, int64(4), report.RevisionsWritten)
	assert.Equal(t, int64(4), report.SessionsRead)
}

func TestSessionMigratorEmptyArchive(t *testing.T) {
	sink := &fakeSessionSink{batchSize: 2}
	report, err := NewSessionMigrator(&fakeSessionSource{}, sink, logger.NopLogger{}).Run(context.Background())

	require.NoError(t, err)
	assert.Zero(t, report.SessionsRead)
	assert.Empty(t, sink.batches)
}

func TestToSessionModelNormalizesPayload(t *testing.T) {
	m := toSessionModel(legacy.Session{SessionId: "s", Data: []byte("not json")})
	assert.JSONEq(t, `{}`, string(m.Data))

	m = toSessionModel(legacy.Session{SessionId: "s"})
	assert.JSONEq(t, `{}`, string(m.Data))

	m = toSessionModel(legacy.Session{SessionId: "s", Data: []byte(`{"zahteve": []}`)})
	assert.JSONEq(t, `{"zahteve": []}`, string(m.Data))
}

func TestToRevisionModelsKeepsArchiveIds(t *testing.T) {
	models := toRevisionModels([]legacy.Revision{
		{Id: 42, SessionId: "s", Sequence: 1, Filename: "a.pdf"},
		{Id: 43, SessionId: "s", Sequence: 2, Filename: "b.pdf"},
	})

	require.Len(t, models, 2)
	assert.Equal(t, int64(42), models[0].Id)
	assert.Equal(t, 2, models[1].Sequence)
	assert.Nil(t, toRevisionModels(nil))
}
