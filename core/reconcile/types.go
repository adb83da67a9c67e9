package reconcile

import (
	"time"

	"go.uber.org/zap"
)

// DefaultChunkSize is the number of records sent per create/patch call.
const DefaultChunkSize = 10

// RemoteRecord is a record as stored in the remote table.
type RemoteRecord struct {
	// ID is the remote-assigned, stable record identifier.
	ID string `json:"id"`

	// Fields holds the record's field values. The remote store omits empty fields.
	Fields Fields `json:"fields"`

	// CreatedTime is the remote creation timestamp, when the API reports one.
	CreatedTime string `json:"createdTime,omitempty"`
}

// LocalRecord is a normalized record produced from the source export.
type LocalRecord struct {
	// Fields holds the canonical field values, in schema order.
	Fields Fields `json:"fields"`

	// Row is the 1-based row in the source file, or 0 when unknown.
	Row int `json:"row,omitempty"`
}

// InsertOp creates a new remote record.
type InsertOp struct {
	// Key is the natural key of the record.
	Key string `json:"-"`

	// Fields is the full local field set.
	Fields Fields `json:"fields"`
}

// UpdateOp patches an existing remote record.
type UpdateOp struct {
	// ID is the matched remote record's identifier.
	ID string `json:"id"`

	// Key is the natural key of the record.
	Key string `json:"-"`

	// Fields is the full local field set, not only the differing fields.
	Fields Fields `json:"fields"`

	// Changed names the differing fields that triggered the update.
	// Holds only the first difference unless Spec.ReportAllDiffs is set.
	Changed []string `json:"-"`
}

// SkippedRecord is a local record that carried no natural key.
type SkippedRecord struct {
	// Row is the source row of the record.
	Row int `json:"row"`

	// Identity holds the values of Spec.IdentityFields for manual follow-up.
	Identity map[string]string `json:"identity"`
}

// Spec carries the per-run constants and the event sink shared by every component.
type Spec struct {
	// KeyField is the name of the natural-key field (e.g. a payroll number).
	KeyField string

	// ChunkSize caps the number of records per remote write.
	// Zero or negative means DefaultChunkSize.
	ChunkSize int

	// CallTimeout bounds each network call (page fetch, chunk write).
	// Zero disables the per-call timeout.
	CallTimeout time.Duration

	// ReportAllDiffs collects every differing field of an update instead of
	// stopping at the first one. Classification is the same either way.
	ReportAllDiffs bool

	// IdentityFields are logged alongside skipped records.
	IdentityFields []string

	// Logger receives structured run events. Nil discards them.
	Logger *zap.Logger
}

func (s *Spec) chunkSize() int {
	if s.ChunkSize <= 0 {
		return DefaultChunkSize
	}
	return s.ChunkSize
}

func (s *Spec) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// ReconcilePlan is the classified output of a reconciliation.
type ReconcilePlan struct {
	// Inserts holds records absent from the remote snapshot, in input order.
	Inserts []InsertOp `json:"inserts"`

	// Updates holds records that differ from their remote match, in input order.
	Updates []UpdateOp `json:"updates"`

	// Skipped holds records without a natural key.
	Skipped []SkippedRecord `json:"skipped"`

	// Summary provides aggregate counts.
	Summary PlanSummary `json:"summary"`
}

// PlanSummary provides aggregate statistics for a reconcile plan.
// Inserts + Updates + Unchanged + Skipped always equals Local.
type PlanSummary struct {
	// Local is the number of local records considered.
	Local int `json:"local"`

	// Inserts counts records classified as new.
	Inserts int `json:"inserts"`

	// Updates counts records classified as modified.
	Updates int `json:"updates"`

	// Unchanged counts matched records with no differing field.
	Unchanged int `json:"unchanged"`

	// Skipped counts records without a natural key.
	Skipped int `json:"skipped"`
}

// ReconcileOptions controls whether a plan is applied.
type ReconcileOptions struct {
	// DryRun prevents execution of any mutations if true.
	DryRun bool

	// Confirmed indicates the caller has approved the writes.
	// If false, mutations will not execute regardless of DryRun.
	Confirmed bool
}
