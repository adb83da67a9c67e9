package reconcile

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ApplyReport describes the outcome of applying a plan.
// Partial application is an expected end state: remote writes are not
// transactional and nothing is rolled back.
type ApplyReport struct {
	// DryRun is set when the plan was not applied because of the options.
	DryRun bool `json:"dry_run"`

	// Aborted is set when the context was cancelled between chunk calls.
	Aborted bool `json:"aborted"`

	// InsertChunks is the number of insert chunks planned.
	InsertChunks int `json:"insert_chunks"`

	// UpdateChunks is the number of update chunks planned.
	UpdateChunks int `json:"update_chunks"`

	// Succeeded counts chunk calls that succeeded.
	Succeeded int `json:"succeeded_chunks"`

	// NotAttempted counts chunks left unsent after an abort.
	NotAttempted int `json:"not_attempted_chunks"`

	// Inserted counts records created by successful chunks.
	Inserted int `json:"inserted"`

	// Updated counts records patched by successful chunks.
	Updated int `json:"updated"`

	// Failures holds every failed chunk with its payload, for manual retry.
	Failures []ChunkFailure `json:"failures"`
}

// ChunkFailure is a failed chunk write and the payload it carried.
type ChunkFailure struct {
	// Kind is the chunk's operation.
	Kind OpKind `json:"kind"`

	// Chunk is the 0-based chunk index within its batch.
	Chunk int `json:"chunk"`

	// Inserts is the payload of a failed insert chunk.
	Inserts []InsertOp `json:"inserts,omitempty"`

	// Updates is the payload of a failed update chunk.
	Updates []UpdateOp `json:"updates,omitempty"`

	// Error is the failure message.
	Error string `json:"error"`

	err error
}

// Size returns the number of records in the failed chunk.
func (f ChunkFailure) Size() int {
	return len(f.Inserts) + len(f.Updates)
}

// Err returns the failure as an *ApplyChunkError.
func (f ChunkFailure) Err() error {
	cause := f.err
	if cause == nil {
		cause = errors.New(f.Error)
	}
	return &ApplyChunkError{Kind: f.Kind, Chunk: f.Chunk, Size: f.Size(), Err: cause}
}

// Failed returns the number of failed chunks.
func (r *ApplyReport) Failed() int {
	return len(r.Failures)
}

// Err returns nil when every attempted chunk succeeded, and otherwise an error
// matching ErrPartialApply that joins each chunk's *ApplyChunkError.
func (r *ApplyReport) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, f.Err())
	}
	return fmt.Errorf("%w: %w", ErrPartialApply, errors.Join(errs...))
}

// Chunk splits items into consecutive slices of at most size elements,
// preserving order. A non-positive size yields a single chunk.
func Chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 {
		size = len(items)
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end:end])
	}
	return chunks
}

// ApplyPlan writes the plan's inserts, then its updates, one chunk per call.
//
// Requires opts.Confirmed=true and opts.DryRun=false to actually execute;
// otherwise it returns a report marked DryRun without calling the mutator.
//
// A failed chunk is recorded in the report and the next chunk is sent anyway.
// Cancellation is honoured between chunk calls only: remaining chunks are counted
// as not attempted and the context error is returned with the report.
func ApplyPlan(ctx context.Context, spec *Spec, mutator Mutator, plan *ReconcilePlan, opts ReconcileOptions) (*ApplyReport, error) {
	log := spec.logger()

	insertChunks := Chunk(plan.Inserts, spec.chunkSize())
	updateChunks := Chunk(plan.Updates, spec.chunkSize())

	report := &ApplyReport{
		InsertChunks: len(insertChunks),
		UpdateChunks: len(updateChunks),
		Failures:     []ChunkFailure{},
	}

	// Safety check: do not execute if not confirmed or dry-run
	if !opts.Confirmed || opts.DryRun {
		report.DryRun = true
		log.Info("Plan not applied",
			zap.Bool("dry_run", opts.DryRun),
			zap.Bool("confirmed", opts.Confirmed),
			zap.Int("insert_chunks", report.InsertChunks),
			zap.Int("update_chunks", report.UpdateChunks),
		)
		return report, nil
	}

	total := len(insertChunks) + len(updateChunks)
	sent := 0

	for i, chunk := range insertChunks {
		if err := ctx.Err(); err != nil {
			return abort(log, report, total-sent, err)
		}
		sent++

		_, err := callWithTimeout(ctx, spec, func(ctx context.Context) ([]RemoteRecord, error) {
			return mutator.CreateRecords(ctx, chunk)
		})
		if err != nil {
			report.Failures = append(report.Failures, ChunkFailure{
				Kind: OpInsert, Chunk: i, Inserts: chunk, Error: err.Error(), err: err,
			})
			log.Warn("Insert chunk failed, continuing",
				zap.Int("chunk", i),
				zap.Int("records", len(chunk)),
				zap.Error(err),
			)
			continue
		}
		report.Succeeded++
		report.Inserted += len(chunk)
		log.Debug("Insert chunk applied", zap.Int("chunk", i), zap.Int("records", len(chunk)))
	}

	for i, chunk := range updateChunks {
		if err := ctx.Err(); err != nil {
			return abort(log, report, total-sent, err)
		}
		sent++

		_, err := callWithTimeout(ctx, spec, func(ctx context.Context) ([]RemoteRecord, error) {
			return mutator.UpdateRecords(ctx, chunk)
		})
		if err != nil {
			report.Failures = append(report.Failures, ChunkFailure{
				Kind: OpUpdate, Chunk: i, Updates: chunk, Error: err.Error(), err: err,
			})
			log.Warn("Update chunk failed, continuing",
				zap.Int("chunk", i),
				zap.Int("records", len(chunk)),
				zap.Error(err),
			)
			continue
		}
		report.Succeeded++
		report.Updated += len(chunk)
		log.Debug("Update chunk applied", zap.Int("chunk", i), zap.Int("records", len(chunk)))
	}

	log.Info("Plan applied",
		zap.Int("inserted", report.Inserted),
		zap.Int("updated", report.Updated),
		zap.Int("succeeded_chunks", report.Succeeded),
		zap.Int("failed_chunks", report.Failed()),
	)
	return report, nil
}

// RetryChunks re-sends the payloads of previously failed chunks, re-chunked with
// Spec.ChunkSize, under the same log-and-continue policy as ApplyPlan.
func RetryChunks(ctx context.Context, spec *Spec, mutator Mutator, failures []ChunkFailure) (*ApplyReport, error) {
	plan := &ReconcilePlan{}
	for _, f := range failures {
		plan.Inserts = append(plan.Inserts, f.Inserts...)
		plan.Updates = append(plan.Updates, f.Updates...)
	}
	plan.Summary.Inserts = len(plan.Inserts)
	plan.Summary.Updates = len(plan.Updates)

	return ApplyPlan(ctx, spec, mutator, plan, ReconcileOptions{Confirmed: true})
}

func abort(log *zap.Logger, report *ApplyReport, remaining int, err error) (*ApplyReport, error) {
	report.Aborted = true
	report.NotAttempted = remaining
	log.Warn("Apply aborted between chunks",
		zap.Int("not_attempted_chunks", remaining),
		zap.Error(err),
	)
	return report, err
}

func callWithTimeout(ctx context.Context, spec *Spec, call func(context.Context) ([]RemoteRecord, error)) ([]RemoteRecord, error) {
	if spec.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.CallTimeout)
		defer cancel()
	}
	return call(ctx)
}
