// Package sync orchestrates roster reconciliation runs.
//
// A run resolves the roster export (local file or storage object), archives it,
// normalizes it, fetches the remote snapshot, reconciles, applies the plan in
// chunks, and finally logs, archives and journals the RunReport. The summary is
// emitted on every exit path, including failures.
//
// # Architecture
//
//	Service: run pipeline, retry of journaled chunk failures, last-report cache.
//	Handler: Fiber routes under /sync.
//	Feature: loader.Feature wiring for the start command.
//
// # Concurrency
//
// The remote table must have a single writer. Run and Retry share one
// singleflight key, so a scheduled run, an HTTP trigger and a CLI retry inside
// the same process collapse into one run in flight; late callers receive the
// report of that run.
//
// # Routes
//
//	POST /sync                  start a run (?dry_run=true, ?wait=true)
//	GET  /sync/last             report of the last run
//	GET  /sync/runs             journaled runs (?limit=20)
//	POST /sync/runs/:id/retry   re-send the failed chunks of a run
//
// # Status
//
//	success   every chunk applied
//	partial   some chunks failed; see RunReport.Failures
//	failed    the run stopped (source, fetch, cancellation)
//	dry_run   planned only
package sync
