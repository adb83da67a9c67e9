// Package journal records sync runs for audit and manual retry.
//
// Each run stores its summary counters and status; every chunk the remote store
// rejected is stored with its full payload so the retry command can re-send it.
// The journal is write-mostly: reconciliation never reads it, the remote table
// stays the only source of truth.
//
// # Tables
//
//   - sync_runs: one row per run (id, trigger, source, status, counters).
//   - sync_failed_chunks: one row per failed chunk (kind, index, JSON payload).
//
// # Usage
//
//	j := journal.New(db, log)
//	_ = j.Migrate()
//	_ = j.RecordRun(ctx, run, report.Failures)
//	chunks, _ := j.PendingChunks(ctx, run.ID)
package journal
