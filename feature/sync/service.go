package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	gosync "sync"
	"time"

	"roster-sync/core/journal"
	"roster-sync/core/logger"
	"roster-sync/core/reconcile"
	"roster-sync/core/storage"
	"roster-sync/feature/roster"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrNoSource is returned when neither a file nor a storage object is configured.
	ErrNoSource = errors.New("no roster source configured: set roster.file or roster.object")
	// ErrStorageDisabled is returned when a storage object is requested without storage.
	ErrStorageDisabled = errors.New("storage is disabled")
	// ErrJournalDisabled is returned by operations that need the run journal.
	ErrJournalDisabled = errors.New("run journal is disabled")
	// ErrRunInProgress is returned when a run with different parameters is in flight.
	ErrRunInProgress = errors.New("a different sync run is in progress")
)

// Triggers identify what started a run.
const (
	TriggerCLI      = "cli"
	TriggerHTTP     = "http"
	TriggerSchedule = "schedule"
	TriggerRetry    = "retry"
)

// Journal is the subset of the run journal used by the service.
type Journal interface {
	RecordRun(ctx context.Context, run *journal.Run, failures []reconcile.ChunkFailure) error
	ListRuns(ctx context.Context, limit int) ([]journal.Run, error)
	GetRun(ctx context.Context, id string) (*journal.Run, error)
	PendingChunks(ctx context.Context, runID string) ([]journal.FailedChunk, error)
	MarkRetried(ctx context.Context, ids []uint, retryRunID string) error
}

// Options carries the configuration sections the service reads.
type Options struct {
	Sync    reconcile.Config
	Roster  roster.Config
	Storage storage.Config
}

// Request describes one run.
type Request struct {
	// Trigger names what started the run.
	Trigger string
	// File overrides the configured local export path.
	File string
	// Object overrides the configured storage object or prefix.
	Object string
	// DryRun plans without writing. The configured dry_run also forces it.
	DryRun bool
	// Confirmed allows remote writes. Unattended triggers set it.
	Confirmed bool
}

// Service runs roster reconciliations end to end.
type Service struct {
	opts       Options
	remote     reconcile.Remote
	normalizer *roster.Normalizer
	store      storage.Client
	journal    Journal
	logger     *zap.Logger

	group singleflight.Group
	// writer is held by every run and retry while it executes.
	writer gosync.Mutex
	wg     gosync.WaitGroup
	mu     gosync.RWMutex
	active string
	last   *RunReport
	now    func() time.Time
}

// NewService creates a sync service. store and j may be nil to disable
// archiving and journaling.
func NewService(opts Options, remote reconcile.Remote, store storage.Client, j Journal, l *zap.Logger) (*Service, error) {
	if l == nil {
		l = zap.NewNop()
	}
	if err := opts.Sync.Validate(); err != nil {
		return nil, err
	}
	normalizer, err := roster.NewNormalizer(opts.Roster, l)
	if err != nil {
		return nil, err
	}

	return &Service{
		opts:       opts,
		remote:     remote,
		normalizer: normalizer,
		store:      store,
		journal:    j,
		logger:     l,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

// Last returns the report of the most recent run, or nil.
func (s *Service) Last() *RunReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Runs lists journaled runs, newest first.
func (s *Service) Runs(ctx context.Context, limit int) ([]journal.Run, error) {
	if s.journal == nil {
		return nil, ErrJournalDisabled
	}
	return s.journal.ListRuns(ctx, limit)
}

// Start runs req in the background. Wait blocks until background runs finish.
func (s *Service) Start(req Request) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_, _ = s.Run(context.Background(), req)
	}()
}

// Wait blocks until every run started with Start has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Conflicts returns ErrRunInProgress when a run with different parameters than
// req is in flight. A matching run in flight is not a conflict: Run joins it.
func (s *Service) Conflicts(req Request) error {
	key := s.runKey(req)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active != "" && s.active != key {
		return ErrRunInProgress
	}
	return nil
}

// Run performs one reconciliation. A call matching the run in flight (same
// source, dry-run and confirmation) shares it and receives its report; a call
// with different parameters fails with ErrRunInProgress. The trigger does not
// take part in the match.
//
// A non-nil error means the run failed before or during apply (source, fetch,
// cancellation); the report is still returned with whatever was known.
// Chunk failures are not errors: check RunReport.Err.
func (s *Service) Run(ctx context.Context, req Request) (*RunReport, error) {
	if err := s.Conflicts(req); err != nil {
		s.logger.Warn("Sync run rejected, a different run is in progress", zap.String("trigger", req.Trigger))
		return nil, err
	}

	key := s.runKey(req)
	v, err, shared := s.group.Do(key, func() (any, error) {
		s.writer.Lock()
		defer s.writer.Unlock()

		s.setActive(key)
		defer s.setActive("")
		return s.run(ctx, req)
	})
	if shared {
		s.logger.Info("Joined run already in progress", zap.String("trigger", req.Trigger))
	}
	report, _ := v.(*RunReport)
	return report, err
}

// runKey identifies the effective parameters of req.
func (s *Service) runKey(req Request) string {
	file, object := req.File, req.Object
	if file == "" && object == "" {
		file, object = s.opts.Roster.File, s.opts.Roster.Object
	}
	return fmt.Sprintf("run|%s|%s|%t|%t", file, object, req.DryRun || s.opts.Sync.DryRun, req.Confirmed)
}

func (s *Service) setActive(key string) {
	s.mu.Lock()
	s.active = key
	s.mu.Unlock()
}

func (s *Service) run(ctx context.Context, req Request) (report *RunReport, err error) {
	report = s.newReport(req.Trigger)
	report.DryRun = req.DryRun || s.opts.Sync.DryRun
	l := logger.WithRun(s.logger, report.RunID, report.Trigger)
	l.Info("Sync run started", zap.Bool("dry_run", report.DryRun))

	defer func() {
		s.finish(ctx, l, report, err, nil)
	}()

	source, data, err := s.resolveSource(ctx, req)
	if err != nil {
		return report, err
	}
	report.Source = source
	s.archiveSource(ctx, l, report, source, data)

	records, err := s.normalizer.NormalizeBytes(data)
	if err != nil {
		return report, fmt.Errorf("failed to normalize %s: %w", source, err)
	}
	report.Summary.Local = len(records)

	spec := s.opts.Sync.Spec(l)
	remote, err := reconcile.FetchAll(ctx, spec, s.remote)
	if err != nil {
		return report, err
	}
	report.Summary.Fetched = len(remote)

	index := reconcile.BuildIndex(remote, spec.KeyField)
	if len(index.Duplicates) > 0 {
		l.Warn("Remote table has duplicate natural keys, last record wins",
			zap.Strings("keys", index.Duplicates))
		report.DuplicateKeys = index.Duplicates
	}
	if index.Unkeyed > 0 {
		l.Info("Remote records without a natural key are ignored", zap.Int("count", index.Unkeyed))
	}

	plan := reconcile.Reconcile(records, index, spec)
	report.Summary.PlannedInserts = plan.Summary.Inserts
	report.Summary.PlannedUpdates = plan.Summary.Updates
	report.Summary.Unchanged = plan.Summary.Unchanged
	report.Summary.Skipped = plan.Summary.Skipped
	report.Skipped = plan.Skipped

	apply, err := reconcile.ApplyPlan(ctx, spec, s.remote, plan, reconcile.ReconcileOptions{
		DryRun:    report.DryRun,
		Confirmed: req.Confirmed,
	})
	s.absorb(report, apply)
	if apply != nil && apply.DryRun {
		report.DryRun = true
	}
	return report, err
}

// Retry re-sends the pending failed chunks of runID, one stored chunk at a time.
// Every attempted chunk is marked retried on runID; chunks that fail again are
// journaled as failures of the retry run, so they can be retried from there.
func (s *Service) Retry(ctx context.Context, runID string) (*RunReport, error) {
	if s.journal == nil {
		return nil, ErrJournalDisabled
	}
	if _, err := s.journal.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	// Retries of one run share a call; any other run or retry waits for the writer.
	v, err, _ := s.group.Do("retry|"+runID, func() (any, error) {
		s.writer.Lock()
		defer s.writer.Unlock()
		return s.retry(ctx, runID)
	})
	report, _ := v.(*RunReport)
	return report, err
}

func (s *Service) retry(ctx context.Context, runID string) (report *RunReport, err error) {
	report = s.newReport(TriggerRetry)
	report.RetryOf = runID
	report.Source = "run:" + runID
	l := logger.WithRun(s.logger, report.RunID, report.Trigger).With(zap.String("retry_of", runID))

	var retried []uint
	defer func() {
		s.finish(ctx, l, report, err, retried)
	}()

	chunks, err := s.journal.PendingChunks(ctx, runID)
	if err != nil {
		return report, err
	}
	l.Info("Retrying failed chunks", zap.Int("chunks", len(chunks)))

	spec := s.opts.Sync.Spec(l)
	total := &reconcile.ApplyReport{}
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			total.Aborted = true
			return report, err
		}

		failure, decodeErr := chunk.Failure()
		if decodeErr != nil {
			l.Error("Stored chunk is unreadable, leaving it pending", zap.Uint("chunk_id", chunk.ID), zap.Error(decodeErr))
			continue
		}

		apply, applyErr := reconcile.RetryChunks(ctx, spec, s.remote, []reconcile.ChunkFailure{failure})
		mergeApply(total, apply)
		s.absorb(report, total)
		if applyErr != nil {
			return report, applyErr
		}
		retried = append(retried, chunk.ID)
	}
	s.absorb(report, total)
	return report, nil
}

// finish computes the status, logs the summary and persists the report.
// It runs on every exit path so the summary is emitted regardless of failure.
func (s *Service) finish(ctx context.Context, l *zap.Logger, report *RunReport, runErr error, retried []uint) {
	report.FinishedAt = s.now()
	switch {
	case runErr != nil:
		report.Status = journal.StatusFailed
		report.Error = runErr.Error()
	case report.DryRun:
		report.Status = journal.StatusDryRun
	case report.Summary.FailedChunks > 0:
		report.Status = journal.StatusPartial
	default:
		report.Status = journal.StatusSuccess
	}

	switch report.Status {
	case journal.StatusFailed:
		l.Error("Sync run failed", append(report.Fields(), zap.Error(runErr))...)
	case journal.StatusPartial:
		l.Warn("Sync run completed with failed chunks", report.Fields()...)
	default:
		l.Info("Sync run completed", report.Fields()...)
	}

	// Persistence must not be skipped because the run context was cancelled.
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	s.archiveReport(persistCtx, l, report)

	if s.journal != nil {
		if err := s.journal.RecordRun(persistCtx, report.journalRun(), report.Failures); err != nil {
			l.Error("Failed to journal run", zap.Error(err))
		}
		if len(retried) > 0 {
			if err := s.journal.MarkRetried(persistCtx, retried, report.RunID); err != nil {
				l.Error("Failed to mark chunks retried", zap.Error(err))
			}
		}
	}

	s.mu.Lock()
	s.last = report
	s.mu.Unlock()
}

func (s *Service) newReport(trigger string) *RunReport {
	if trigger == "" {
		trigger = TriggerCLI
	}
	started := s.now()
	return &RunReport{
		RunID:     started.Format("20060102T150405Z") + "-" + uuid.NewString()[:8],
		Trigger:   trigger,
		StartedAt: started,
	}
}

func (s *Service) absorb(report *RunReport, apply *reconcile.ApplyReport) {
	if apply == nil {
		return
	}
	report.apply = apply
	report.Summary.Inserted = apply.Inserted
	report.Summary.Updated = apply.Updated
	report.Summary.FailedChunks = apply.Failed()
	report.Summary.NotAttempted = apply.NotAttempted
	report.Failures = apply.Failures
}

func mergeApply(total, part *reconcile.ApplyReport) {
	if part == nil {
		return
	}
	total.InsertChunks += part.InsertChunks
	total.UpdateChunks += part.UpdateChunks
	total.Succeeded += part.Succeeded
	total.NotAttempted += part.NotAttempted
	total.Inserted += part.Inserted
	total.Updated += part.Updated
	total.Aborted = total.Aborted || part.Aborted
	total.Failures = append(total.Failures, part.Failures...)
}

// resolveSource loads the export from a local path or the storage bucket.
func (s *Service) resolveSource(ctx context.Context, req Request) (string, []byte, error) {
	file, object := req.File, req.Object
	if file == "" && object == "" {
		file, object = s.opts.Roster.File, s.opts.Roster.Object
	}

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return file, nil, fmt.Errorf("failed to read roster export: %w", err)
		}
		return file, data, nil
	}

	if object == "" {
		return "", nil, ErrNoSource
	}
	if s.store == nil {
		return object, nil, fmt.Errorf("roster object %s: %w", object, ErrStorageDisabled)
	}

	bucket := s.opts.Storage.Bucket
	if strings.HasSuffix(object, "/") {
		latest, err := storage.Latest(ctx, s.store, bucket, object)
		if err != nil {
			return object, nil, fmt.Errorf("failed to find roster export: %w", err)
		}
		object = latest.Key
	}

	data, err := storage.Download(ctx, s.store, bucket, object)
	if err != nil {
		return object, nil, fmt.Errorf("failed to download roster export: %w", err)
	}
	return "s3://" + bucket + "/" + object, data, nil
}

func (s *Service) archiveSource(ctx context.Context, l *zap.Logger, report *RunReport, source string, data []byte) {
	if s.store == nil {
		return
	}
	bucket := s.opts.Storage.Bucket
	if err := storage.EnsureBucket(ctx, s.store, bucket); err != nil {
		l.Warn("Archive bucket unavailable, source not archived", zap.Error(err))
		return
	}

	ext := strings.ToLower(filepath.Ext(path.Base(source)))
	if ext == "" {
		ext = ".xlsx"
	}
	key := storage.ArchiveKey(s.opts.Storage.ArchivePrefix, report.RunID, "source"+ext)
	if err := storage.PutBytes(ctx, s.store, bucket, key, data, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"); err != nil {
		l.Warn("Failed to archive source", zap.Error(err))
		return
	}
	report.ArchiveKey = key
}

func (s *Service) archiveReport(ctx context.Context, l *zap.Logger, report *RunReport) {
	if s.store == nil {
		return
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		l.Warn("Failed to encode run report", zap.Error(err))
		return
	}

	bucket := s.opts.Storage.Bucket
	key := storage.ArchiveKey(s.opts.Storage.ArchivePrefix, report.RunID, "report.json")
	if err := storage.PutBytes(ctx, s.store, bucket, key, data, "application/json"); err != nil {
		l.Warn("Failed to archive run report", zap.Error(err))
		return
	}

	if n, err := storage.Prune(ctx, s.store, bucket, s.opts.Storage.ArchivePrefix, s.opts.Storage.ArchiveKeep); err != nil {
		l.Warn("Failed to prune archive", zap.Error(err))
	} else if n > 0 {
		l.Info("Pruned archived runs", zap.Int("objects", n))
	}
}
