package migrate

import (
	"context"

	"github.com/cenkalti/backoff/v5"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"opinions-migrate/internal/model"
	"opinions-migrate/internal/pkg/logger"
)

const (
	defaultBatchSize = 200
	maxWriteAttempts = 4
)

// SessionBatchItem pairs one session with its revisions so both commit in
// the same transaction.
type SessionBatchItem struct {
	Session   model.SavedSession
	Revisions []model.SessionRevision
}

// Writer performs batched, transactional writes into the target database.
// Each batch either commits whole or not at all; transient connectivity
// failures are retried with bounded backoff, everything else surfaces as a
// PersistError.
type Writer struct {
	db        *gorm.DB
	log       logger.Logger
	batchSize int
}

func NewWriter(db *gorm.DB, log logger.Logger) *Writer {
	return &Writer{db: db, log: log, batchSize: defaultBatchSize}
}

func (w *Writer) BatchSize() int { return w.batchSize }

func (w *Writer) retryTx(ctx context.Context, op string, batch int, fn func(tx *gorm.DB) error) error {
	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := w.db.WithContext(ctx).Transaction(fn)
		if err == nil {
			return struct{}{}, nil
		}
		if isTransient(err) {
			w.log.Warn("writer", "transient database error, retrying", map[string]interface{}{
				"op":      op,
				"batch":   batch,
				"attempt": attempt,
				"error":   err.Error(),
			})
			return struct{}{}, err
		}
		return struct{}{}, backoff.Permanent(err)
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(maxWriteAttempts))
	if err != nil {
		return &PersistError{Op: op, Batch: batch, Err: err}
	}
	return nil
}

// WriteSessions commits one batch of sessions and their revisions
// atomically. Both insert with ignore-on-conflict by primary key (revisions
// keep their archive ids), so re-running a migration is a no-op for rows
// that already landed.
func (w *Writer) WriteSessions(ctx context.Context, batch []SessionBatchItem, batchNo int) (int64, int64, error) {
	if len(batch) == 0 {
		return 0, 0, nil
	}

	var sessions, revisions int64
	err := w.retryTx(ctx, "sessions", batchNo, func(tx *gorm.DB) error {
		sessions, revisions = 0, 0
		for i := range batch {
			item := &batch[i]
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&item.Session)
			if res.Error != nil {
				return res.Error
			}
			sessions += res.RowsAffected

			if len(item.Revisions) == 0 {
				continue
			}
			res = tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&item.Revisions)
			if res.Error != nil {
				return res.Error
			}
			revisions += res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return sessions, revisions, nil
}

// WriteResources upserts one batch of knowledge resources keyed by name:
// existing rows are replaced, new rows inserted.
func (w *Writer) WriteResources(ctx context.Context, batch []model.KnowledgeResource, batchNo int) (int64, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	err := w.retryTx(ctx, "knowledge_resources", batchNo, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			UpdateAll: true,
		}).Create(&batch).Error
	})
	if err != nil {
		return 0, err
	}
	return int64(len(batch)), nil
}

// PurgeResources deletes every knowledge resource in a single transaction,
// before any reload begins.
func (w *Writer) PurgeResources(ctx context.Context) (int64, error) {
	var purged int64
	err := w.retryTx(ctx, "purge knowledge_resources", 0, func(tx *gorm.DB) error {
		res := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.KnowledgeResource{})
		purged = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, err
	}
	return purged, nil
}
