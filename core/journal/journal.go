package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"roster-sync/core/database"
	"roster-sync/core/reconcile"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrRunNotFound is returned when a run ID is unknown.
var ErrRunNotFound = errors.New("run not found")

// Journal persists run summaries and failed chunk payloads.
type Journal struct {
	db     *gorm.DB
	logger *zap.Logger
}

// New creates a journal on db.
func New(db *gorm.DB, logger *zap.Logger) *Journal {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Journal{db: db, logger: logger}
}

// Migrate creates or updates the journal tables.
func (j *Journal) Migrate() error {
	if err := j.db.AutoMigrate(&Run{}, &FailedChunk{}); err != nil {
		return fmt.Errorf("failed to migrate journal: %w", err)
	}
	return nil
}

// Verify checks that the journal tables carry every expected column.
func (j *Journal) Verify() error {
	checks := map[string][]string{
		Run{}.TableName():         {"id", "status", "started_at", "finished_at", "inserted", "updated", "failed_chunks"},
		FailedChunk{}.TableName(): {"id", "run_id", "kind", "payload", "retried_at"},
	}
	for table, cols := range checks {
		missing, err := database.MissingColumns(j.db, table, cols...)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return fmt.Errorf("journal table %s is missing columns: %s", table, strings.Join(missing, ", "))
		}
	}
	return nil
}

// payloadOp is the stored form of an insert or update op. Keys are kept so
// retries log the same identities as the original run.
type payloadOp struct {
	ID     string           `json:"id,omitempty"`
	Key    string           `json:"key"`
	Fields reconcile.Fields `json:"fields"`
}

// RecordRun stores run and the payloads of its failed chunks in one transaction.
func (j *Journal) RecordRun(ctx context.Context, run *Run, failures []reconcile.ChunkFailure) error {
	rows := make([]FailedChunk, 0, len(failures))
	for _, f := range failures {
		payload, err := encodePayload(f)
		if err != nil {
			return err
		}
		rows = append(rows, FailedChunk{
			RunID:      run.ID,
			Kind:       string(f.Kind),
			ChunkIndex: f.Chunk,
			Size:       f.Size(),
			Payload:    payload,
			Error:      f.Error,
		})
	}

	err := j.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(run).Error; err != nil {
			return err
		}
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.ID, err)
	}

	j.logger.Debug("Run journaled", zap.String("run_id", run.ID), zap.Int("failed_chunks", len(rows)))
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (j *Journal) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []Run
	if err := j.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// GetRun returns a run by ID.
func (j *Journal) GetRun(ctx context.Context, id string) (*Run, error) {
	var run Run
	err := j.db.WithContext(ctx).Where("id = ?", id).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}
	return &run, nil
}

// PendingChunks returns the failed chunks of runID that were not retried yet.
func (j *Journal) PendingChunks(ctx context.Context, runID string) ([]FailedChunk, error) {
	var chunks []FailedChunk
	err := j.db.WithContext(ctx).
		Where("run_id = ? AND retried_at IS NULL", runID).
		Order("id ASC").
		Find(&chunks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load failed chunks of run %s: %w", runID, err)
	}
	return chunks, nil
}

// MarkRetried stamps chunks as retried by retryRunID.
func (j *Journal) MarkRetried(ctx context.Context, ids []uint, retryRunID string) error {
	if len(ids) == 0 {
		return nil
	}
	now := time.Now().UTC()
	err := j.db.WithContext(ctx).Model(&FailedChunk{}).
		Where("id IN ?", ids).
		Updates(map[string]any{"retried_at": now, "retry_run_id": retryRunID}).Error
	if err != nil {
		return fmt.Errorf("failed to mark chunks retried: %w", err)
	}
	return nil
}

// Failure decodes the stored payload back into a chunk failure.
func (c FailedChunk) Failure() (reconcile.ChunkFailure, error) {
	f := reconcile.ChunkFailure{
		Kind:  reconcile.OpKind(c.Kind),
		Chunk: c.ChunkIndex,
		Error: c.Error,
	}

	var ops []payloadOp
	if err := json.Unmarshal([]byte(c.Payload), &ops); err != nil {
		return f, fmt.Errorf("failed to decode payload of chunk %d: %w", c.ID, err)
	}

	switch f.Kind {
	case reconcile.OpInsert:
		for _, op := range ops {
			f.Inserts = append(f.Inserts, reconcile.InsertOp{Key: op.Key, Fields: op.Fields})
		}
	case reconcile.OpUpdate:
		for _, op := range ops {
			f.Updates = append(f.Updates, reconcile.UpdateOp{ID: op.ID, Key: op.Key, Fields: op.Fields})
		}
	default:
		return f, fmt.Errorf("chunk %d has unknown kind %q", c.ID, c.Kind)
	}
	return f, nil
}

func encodePayload(f reconcile.ChunkFailure) (string, error) {
	ops := make([]payloadOp, 0, f.Size())
	for _, op := range f.Inserts {
		ops = append(ops, payloadOp{Key: op.Key, Fields: op.Fields})
	}
	for _, op := range f.Updates {
		ops = append(ops, payloadOp{ID: op.ID, Key: op.Key, Fields: op.Fields})
	}
	data, err := json.Marshal(ops)
	if err != nil {
		return "", fmt.Errorf("failed to encode chunk payload: %w", err)
	}
	return string(data), nil
}
