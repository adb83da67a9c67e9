package reconcile

import "sort"

// Index maps natural-key values to remote records.
//
// Keys are assumed unique. When two remote records share a key the later one
// wins, matching the listing order; the key is recorded in Duplicates so the
// caller can report it. This is a known limitation, not a resolution strategy.
type Index struct {
	byKey map[string]RemoteRecord

	// Duplicates lists keys carried by more than one remote record, sorted.
	Duplicates []string

	// Unkeyed counts remote records without a usable natural key.
	Unkeyed int
}

// BuildIndex indexes records by the value of keyField.
func BuildIndex(records []RemoteRecord, keyField string) *Index {
	idx := &Index{byKey: make(map[string]RemoteRecord, len(records))}
	dups := make(map[string]struct{})

	for _, rec := range records {
		v, _ := rec.Fields.Get(keyField)
		key := KeyString(v)
		if key == "" {
			idx.Unkeyed++
			continue
		}
		if _, exists := idx.byKey[key]; exists {
			dups[key] = struct{}{}
		}
		idx.byKey[key] = rec
	}

	for key := range dups {
		idx.Duplicates = append(idx.Duplicates, key)
	}
	sort.Strings(idx.Duplicates)

	return idx
}

// Lookup returns the remote record for key.
func (i *Index) Lookup(key string) (RemoteRecord, bool) {
	if i == nil {
		return RemoteRecord{}, false
	}
	rec, ok := i.byKey[key]
	return rec, ok
}

// Len returns the number of distinct keys.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.byKey)
}
