package reconcile

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const keyField = "key"

func local(pairs ...Field) LocalRecord {
	return LocalRecord{Fields: NewFields(pairs...)}
}

func remote(id string, pairs ...Field) RemoteRecord {
	return RemoteRecord{ID: id, Fields: NewFields(pairs...)}
}

// TestReconcile_Scenario tests the reference scenario: one changed record and one new one.
func TestReconcile_Scenario(t *testing.T) {
	index := BuildIndex([]RemoteRecord{
		remote("rec1", F("Name", String("Alice")), F("Pay", String("100")), F(keyField, String("E1"))),
	}, keyField)

	records := []LocalRecord{
		local(F("Name", String("Alice")), F("Pay", String("150")), F(keyField, String("E1"))),
		local(F("Name", String("Bob")), F("Pay", String("200")), F(keyField, String("E2"))),
	}

	plan := Reconcile(records, index, &Spec{KeyField: keyField})

	require.Len(t, plan.Updates, 1)
	assert.Equal(t, "rec1", plan.Updates[0].ID)
	assert.True(t, plan.Updates[0].Fields.Equal(records[0].Fields))
	assert.Equal(t, []string{"Name", "Pay", keyField}, plan.Updates[0].Fields.Names())
	assert.Equal(t, []string{"Pay"}, plan.Updates[0].Changed)

	require.Len(t, plan.Inserts, 1)
	assert.Equal(t, "E2", plan.Inserts[0].Key)
	assert.True(t, plan.Inserts[0].Fields.Equal(records[1].Fields))

	assert.Equal(t, PlanSummary{Local: 2, Inserts: 1, Updates: 1}, plan.Summary)
}

// TestReconcile_Coverage tests that every local record lands in exactly one class.
func TestReconcile_Coverage(t *testing.T) {
	var remotes []RemoteRecord
	var records []LocalRecord
	for i := 0; i < 57; i++ {
		key := fmt.Sprintf("E%d", i)
		switch i % 4 {
		case 0: // unchanged
			remotes = append(remotes, remote("rec"+key, F(keyField, String(key)), F("n", Number(float64(i)))))
			records = append(records, local(F(keyField, String(key)), F("n", Number(float64(i)))))
		case 1: // updated
			remotes = append(remotes, remote("rec"+key, F(keyField, String(key)), F("n", Number(-1))))
			records = append(records, local(F(keyField, String(key)), F("n", Number(float64(i)))))
		case 2: // inserted
			records = append(records, local(F(keyField, String(key)), F("n", Number(float64(i)))))
		case 3: // skipped
			records = append(records, local(F(keyField, String("")), F("n", Number(float64(i)))))
		}
	}

	plan := Reconcile(records, BuildIndex(remotes, keyField), &Spec{KeyField: keyField})
	s := plan.Summary

	assert.Equal(t, len(records), s.Inserts+s.Updates+s.Unchanged+s.Skipped)
	assert.Equal(t, len(records), s.Local)
	assert.Equal(t, s.Inserts, len(plan.Inserts))
	assert.Equal(t, s.Updates, len(plan.Updates))
	assert.Equal(t, s.Skipped, len(plan.Skipped))
	assert.Equal(t, 15, s.Unchanged)
	assert.Equal(t, 14, s.Updates)
	assert.Equal(t, 14, s.Inserts)
	assert.Equal(t, 14, s.Skipped)
}

// TestReconcile_NoOpIdempotence tests that reconciling against a snapshot built
// from the same records yields no writes.
func TestReconcile_NoOpIdempotence(t *testing.T) {
	records := []LocalRecord{
		local(F(keyField, String("E1")), F("Name", String("Alice")), F("Salaried", Bool(true)), F("Position", StringArray("Crew"))),
		local(F(keyField, String("E2")), F("Name", String("Bob")), F("Hours", Number(37.5))),
		local(F(keyField, String("")), F("Name", String("Nobody"))),
	}

	var remotes []RemoteRecord
	for i, r := range records {
		remotes = append(remotes, RemoteRecord{ID: fmt.Sprintf("rec%d", i), Fields: r.Fields.Clone()})
	}

	plan := Reconcile(records, BuildIndex(remotes, keyField), &Spec{KeyField: keyField})

	assert.Empty(t, plan.Inserts)
	assert.Empty(t, plan.Updates)
	assert.Equal(t, 2, plan.Summary.Unchanged)
	assert.Equal(t, 1, plan.Summary.Skipped)
}

// TestReconcile_InsertCarriesFullFieldSet tests that unmatched records are inserted whole.
func TestReconcile_InsertCarriesFullFieldSet(t *testing.T) {
	index := BuildIndex([]RemoteRecord{remote("rec1", F(keyField, String("E1")))}, keyField)
	rec := local(F(keyField, String("E9")), F("Name", String("")), F("Position", StringArray()), F("Salaried", Bool(false)))

	plan := Reconcile([]LocalRecord{rec}, index, &Spec{KeyField: keyField})

	require.Len(t, plan.Inserts, 1)
	assert.True(t, plan.Inserts[0].Fields.Equal(rec.Fields))
	assert.Empty(t, plan.Updates)
}

// TestReconcile_SingleFieldDifference tests that one differing field triggers an update
// addressed to the matched remote id.
func TestReconcile_SingleFieldDifference(t *testing.T) {
	tests := []struct {
		name   string
		local  Value
		remote Value
	}{
		{"string", String("new"), String("old")},
		{"number", Number(2), Number(1)},
		{"bool", Bool(true), Bool(false)},
		{"array", StringArray("Crew", "Manager"), StringArray("Crew")},
		{"kind change", String("1"), Number(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index := BuildIndex([]RemoteRecord{
				remote("recX", F(keyField, String("E1")), F("a", String("same")), F("b", tt.remote)),
			}, keyField)
			rec := local(F(keyField, String("E1")), F("a", String("same")), F("b", tt.local))

			plan := Reconcile([]LocalRecord{rec}, index, &Spec{KeyField: keyField})

			require.Len(t, plan.Updates, 1)
			assert.Equal(t, "recX", plan.Updates[0].ID)
			assert.Equal(t, []string{"b"}, plan.Updates[0].Changed)
			assert.Empty(t, plan.Inserts)
		})
	}
}

// TestReconcile_SkipSafety tests that records without a natural key are never written.
func TestReconcile_SkipSafety(t *testing.T) {
	index := BuildIndex([]RemoteRecord{
		remote("rec1", F(keyField, String("E1"))),
	}, keyField)

	records := []LocalRecord{
		{Fields: NewFields(F("Name", String("No key field")), F("First", String("Ann"))), Row: 7},
		{Fields: NewFields(F(keyField, String("")), F("First", String("Ben"))), Row: 8},
		{Fields: NewFields(F(keyField, String("  ")), F("First", String("Cy"))), Row: 9},
		{Fields: NewFields(F(keyField, Empty()), F("First", String("Di"))), Row: 10},
		{Fields: NewFields(F(keyField, Bool(true)), F("First", String("Ed"))), Row: 11},
	}

	core, logs := observer.New(zap.WarnLevel)
	spec := &Spec{KeyField: keyField, IdentityFields: []string{"First"}, Logger: zap.New(core)}

	plan := Reconcile(records, index, spec)

	assert.Empty(t, plan.Inserts)
	assert.Empty(t, plan.Updates)
	require.Len(t, plan.Skipped, len(records))
	assert.Equal(t, 7, plan.Skipped[0].Row)
	assert.Equal(t, map[string]string{"First": "Ann"}, plan.Skipped[0].Identity)
	assert.Equal(t, len(records), logs.FilterMessage("Record missing natural key, skipped").Len())
}

// TestReconcile_MissingRemoteFieldUsesZero tests that fields the remote store omits
// compare as the zero value of the local kind.
func TestReconcile_MissingRemoteFieldUsesZero(t *testing.T) {
	index := BuildIndex([]RemoteRecord{
		remote("rec1", F(keyField, String("E1"))),
	}, keyField)

	unchanged := local(
		F(keyField, String("E1")),
		F("Address Line 2", String("")),
		F("Hours", Number(0)),
		F("Salaried", Bool(false)),
		F("Position", StringArray()),
		F("Note", Empty()),
	)
	plan := Reconcile([]LocalRecord{unchanged}, index, &Spec{KeyField: keyField})
	assert.Empty(t, plan.Updates)
	assert.Equal(t, 1, plan.Summary.Unchanged)

	changed := local(F(keyField, String("E1")), F("Salaried", Bool(true)))
	plan = Reconcile([]LocalRecord{changed}, index, &Spec{KeyField: keyField})
	require.Len(t, plan.Updates, 1)
	assert.Equal(t, []string{"Salaried"}, plan.Updates[0].Changed)
}

// TestReconcile_ExtraRemoteFieldsIgnored tests that only local fields are compared.
func TestReconcile_ExtraRemoteFieldsIgnored(t *testing.T) {
	index := BuildIndex([]RemoteRecord{
		remote("rec1", F(keyField, String("E1")), F("Name", String("A")), F("Manager Notes", String("keep"))),
	}, keyField)

	plan := Reconcile([]LocalRecord{local(F(keyField, String("E1")), F("Name", String("A")))}, index, &Spec{KeyField: keyField})

	assert.Equal(t, 1, plan.Summary.Unchanged)
}

// TestReconcile_ReportAllDiffs tests short-circuit versus full difference reporting.
func TestReconcile_ReportAllDiffs(t *testing.T) {
	index := BuildIndex([]RemoteRecord{
		remote("rec1", F(keyField, String("E1")), F("a", String("1")), F("b", String("1")), F("c", String("1"))),
	}, keyField)
	rec := local(F(keyField, String("E1")), F("a", String("2")), F("b", String("1")), F("c", String("2")))

	first := Reconcile([]LocalRecord{rec}, index, &Spec{KeyField: keyField})
	require.Len(t, first.Updates, 1)
	assert.Equal(t, []string{"a"}, first.Updates[0].Changed)

	all := Reconcile([]LocalRecord{rec}, index, &Spec{KeyField: keyField, ReportAllDiffs: true})
	require.Len(t, all.Updates, 1)
	assert.Equal(t, []string{"a", "c"}, all.Updates[0].Changed)

	assert.Equal(t, []string{"a", "c"}, Diff(rec.Fields, index.byKey["E1"].Fields))
}

// TestReconcile_NumericKeyMatchesExactly tests that keys match by exact rendering only.
func TestReconcile_NumericKeyMatchesExactly(t *testing.T) {
	index := BuildIndex([]RemoteRecord{
		remote("rec1", F(keyField, Number(1042))),
		remote("rec2", F(keyField, String("0043"))),
	}, keyField)

	plan := Reconcile([]LocalRecord{
		local(F(keyField, String("1042"))),
		local(F(keyField, String("43"))),
	}, index, &Spec{KeyField: keyField})

	require.Len(t, plan.Updates, 1, "string key 1042 matches numeric remote key but kinds differ")
	assert.Equal(t, "rec1", plan.Updates[0].ID)
	require.Len(t, plan.Inserts, 1)
	assert.Equal(t, "43", plan.Inserts[0].Key)
}

// TestReconcile_PreservesInputOrder tests that batches keep the input order.
func TestReconcile_PreservesInputOrder(t *testing.T) {
	var records []LocalRecord
	for i := 0; i < 25; i++ {
		records = append(records, local(F(keyField, String(fmt.Sprintf("K%02d", i)))))
	}

	plan := Reconcile(records, BuildIndex(nil, keyField), &Spec{KeyField: keyField})

	require.Len(t, plan.Inserts, 25)
	for i, op := range plan.Inserts {
		assert.Equal(t, fmt.Sprintf("K%02d", i), op.Key)
	}
}

// TestBuildIndex_Duplicates tests that duplicate keys keep the last record and are reported.
func TestBuildIndex_Duplicates(t *testing.T) {
	index := BuildIndex([]RemoteRecord{
		remote("rec1", F(keyField, String("E1"))),
		remote("rec2", F(keyField, String("E2"))),
		remote("rec3", F(keyField, String("E1"))),
		remote("rec4", F("Name", String("no key"))),
		remote("rec5", F(keyField, String(""))),
	}, keyField)

	assert.Equal(t, 2, index.Len())
	assert.Equal(t, []string{"E1"}, index.Duplicates)
	assert.Equal(t, 2, index.Unkeyed)

	rec, ok := index.Lookup("E1")
	assert.True(t, ok)
	assert.Equal(t, "rec3", rec.ID)

	_, ok = index.Lookup("missing")
	assert.False(t, ok)
}

func TestIndex_NilSafe(t *testing.T) {
	var index *Index
	_, ok := index.Lookup("E1")
	assert.False(t, ok)
	assert.Equal(t, 0, index.Len())

	plan := Reconcile([]LocalRecord{local(F(keyField, String("E1")))}, nil, &Spec{KeyField: keyField})
	assert.Len(t, plan.Inserts, 1)
}
