package sync

import (
	"fmt"
	"time"

	"roster-sync/core/journal"
	"roster-sync/core/reconcile"

	"go.uber.org/zap"
)

// Summary holds the counters of one run.
type Summary struct {
	Local          int `json:"local"`
	Fetched        int `json:"fetched"`
	PlannedInserts int `json:"planned_inserts"`
	PlannedUpdates int `json:"planned_updates"`
	Inserted       int `json:"inserted"`
	Updated        int `json:"updated"`
	Unchanged      int `json:"unchanged"`
	Skipped        int `json:"skipped"`
	FailedChunks   int `json:"failed_chunks"`
	NotAttempted   int `json:"not_attempted_chunks"`
}

// RunReport is the outcome of one run, returned to callers and archived as JSON.
type RunReport struct {
	RunID      string    `json:"run_id"`
	Trigger    string    `json:"trigger"`
	Source     string    `json:"source"`
	Status     string    `json:"status"`
	DryRun     bool      `json:"dry_run"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Summary    Summary   `json:"summary"`

	DuplicateKeys []string                  `json:"duplicate_keys,omitempty"`
	Skipped       []reconcile.SkippedRecord `json:"skipped,omitempty"`
	Failures      []reconcile.ChunkFailure  `json:"failures,omitempty"`
	RetryOf       string                    `json:"retry_of,omitempty"`
	ArchiveKey    string                    `json:"archive_key,omitempty"`
	Error         string                    `json:"error,omitempty"`

	apply *reconcile.ApplyReport
}

// Err returns reconcile.ErrPartialApply when chunks failed, or nil.
func (r *RunReport) Err() error {
	if r == nil || r.apply == nil {
		return nil
	}
	return r.apply.Err()
}

// Fields renders the summary for structured logs.
func (r *RunReport) Fields() []zap.Field {
	s := r.Summary
	return []zap.Field{
		zap.String("run_id", r.RunID),
		zap.String("status", r.Status),
		zap.Bool("dry_run", r.DryRun),
		zap.Int("local", s.Local),
		zap.Int("fetched", s.Fetched),
		zap.Int("inserted", s.Inserted),
		zap.Int("updated", s.Updated),
		zap.Int("unchanged", s.Unchanged),
		zap.Int("skipped", s.Skipped),
		zap.Int("failed_chunks", s.FailedChunks),
		zap.Int("planned_inserts", s.PlannedInserts),
		zap.Int("planned_updates", s.PlannedUpdates),
		zap.Duration("duration", r.FinishedAt.Sub(r.StartedAt)),
	}
}

// String renders the summary on one line for terminals.
func (r *RunReport) String() string {
	s := r.Summary
	return fmt.Sprintf("run %s %s: fetched=%d inserted=%d updated=%d unchanged=%d skipped=%d failed_chunks=%d",
		r.RunID, r.Status, s.Fetched, s.Inserted, s.Updated, s.Unchanged, s.Skipped, s.FailedChunks)
}

func (r *RunReport) journalRun() *journal.Run {
	s := r.Summary
	return &journal.Run{
		ID:           r.RunID,
		Trigger:      r.Trigger,
		Source:       r.Source,
		Status:       r.Status,
		DryRun:       r.DryRun,
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
		Local:        s.Local,
		Fetched:      s.Fetched,
		Inserted:     s.Inserted,
		Updated:      s.Updated,
		Unchanged:    s.Unchanged,
		Skipped:      s.Skipped,
		FailedChunks: s.FailedChunks,
		Error:        r.Error,
		ArchiveKey:   r.ArchiveKey,
	}
}
