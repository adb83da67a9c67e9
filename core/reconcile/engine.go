package reconcile

import (
	"go.uber.org/zap"
)

// Reconcile classifies each local record against the remote index.
//
// Records without a natural key are skipped. Records whose key is absent from the
// index become inserts. Matched records become updates when any of their fields
// differs from the remote record, and are dropped otherwise. Every update and
// insert carries the full local field set.
//
// Reconcile performs no I/O and is deterministic for a given input.
func Reconcile(local []LocalRecord, index *Index, spec *Spec) *ReconcilePlan {
	log := spec.logger()
	plan := &ReconcilePlan{
		Inserts: []InsertOp{},
		Updates: []UpdateOp{},
		Skipped: []SkippedRecord{},
	}
	plan.Summary.Local = len(local)

	for _, rec := range local {
		v, _ := rec.Fields.Get(spec.KeyField)
		key := KeyString(v)

		if key == "" {
			skipped := SkippedRecord{Row: rec.Row, Identity: identity(rec.Fields, spec.IdentityFields)}
			plan.Skipped = append(plan.Skipped, skipped)
			plan.Summary.Skipped++
			log.Warn("Record missing natural key, skipped",
				zap.String("key_field", spec.KeyField),
				zap.Int("row", rec.Row),
				zap.Any("identity", skipped.Identity),
			)
			continue
		}

		match, ok := index.Lookup(key)
		if !ok {
			plan.Inserts = append(plan.Inserts, InsertOp{Key: key, Fields: rec.Fields.Clone()})
			plan.Summary.Inserts++
			continue
		}

		changed := diffFields(rec.Fields, match.Fields, spec.ReportAllDiffs)
		if len(changed) == 0 {
			plan.Summary.Unchanged++
			continue
		}

		plan.Updates = append(plan.Updates, UpdateOp{
			ID:      match.ID,
			Key:     key,
			Fields:  rec.Fields.Clone(),
			Changed: changed,
		})
		plan.Summary.Updates++
		log.Debug("Record differs from remote",
			zap.String("key", key),
			zap.String("id", match.ID),
			zap.Strings("changed", changed),
		)
	}

	return plan
}

// diffFields compares every local field with the remote one, in local order.
// A field the remote omits is compared against the zero value of the local kind.
// Unless all is set, the scan stops at the first difference.
func diffFields(local, remote Fields, all bool) []string {
	var changed []string
	local.Each(func(name string, lv Value) bool {
		rv, ok := remote.Get(name)
		if !ok {
			rv = Zero(lv.Kind())
		}
		if lv.Equal(rv) {
			return true
		}
		changed = append(changed, name)
		return all
	})
	return changed
}

// Diff returns the names of every local field that differs from remote,
// using the same missing-field rule as Reconcile.
func Diff(local, remote Fields) []string {
	return diffFields(local, remote, true)
}

func identity(fields Fields, names []string) map[string]string {
	out := make(map[string]string, len(names))
	for _, name := range names {
		if v, ok := fields.Get(name); ok {
			if s, isStr := v.Str(); isStr {
				out[name] = s
			} else {
				out[name] = v.String()
			}
		}
	}
	return out
}
