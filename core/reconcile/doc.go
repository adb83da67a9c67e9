// Package reconcile converges a remote table with a locally produced record set.
//
// A run compares a full snapshot of the remote table against the normalized local
// records and emits the minimal set of batched writes: inserts for records the
// remote table does not have, full-record patches for records whose fields differ.
// Nothing is ever deleted remotely.
//
// # Architecture
//
// The package consists of four components, used in order:
//
// 1. FetchAll: reads the remote table through a Lister, following continuation
//    cursors. Any failed page fails the whole fetch with a *FetchError; a partial
//    snapshot is never returned.
//
// 2. BuildIndex: indexes the snapshot by natural key. Duplicate keys keep the last
//    record and are reported on Index.Duplicates.
//
// 3. Reconcile: the pure classification step. Each local record is skipped (no
//    natural key), inserted (no match), updated (some field differs) or dropped as
//    unchanged. Fields the remote store omits compare as the zero value of the
//    local field's kind, so empty local values do not cause spurious updates.
//
// 4. ApplyPlan: splits each batch into chunks of Spec.ChunkSize and issues one
//    Mutator call per chunk. A failed chunk is recorded in the ApplyReport and the
//    run continues; there is no rollback and no automatic retry.
//
// # Values
//
// Field values are a tagged variant (String, Number, Bool, StringArray, Empty, and
// Raw for shapes the variant does not model). Fields keeps field order so payloads
// and logs are reproducible.
//
// # Usage Example
//
//	spec := &reconcile.Spec{
//	    KeyField:  "LiQ - Payroll Number",
//	    ChunkSize: 10,
//	    Logger:    log,
//	}
//
//	remote, err := reconcile.FetchAll(ctx, spec, client)
//	if err != nil {
//	    return err // nothing has been written
//	}
//	plan := reconcile.Reconcile(local, reconcile.BuildIndex(remote, spec.KeyField), spec)
//	report, err := reconcile.ApplyPlan(ctx, spec, client, plan, reconcile.ReconcileOptions{Confirmed: true})
//
// # Concurrency
//
// Everything runs sequentially with one call in flight. No optimistic-concurrency
// check is made before patching: a concurrent external writer can be overwritten.
package reconcile
