package reconcile

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFields_PreservesOrder tests that decoding keeps the document's key order
// and encoding writes it back unchanged.
func TestFields_PreservesOrder(t *testing.T) {
	input := `{"Zeta":"z","Alpha":1,"Mid":true,"List":["a","b"],"Gone":null}`

	var f Fields
	require.NoError(t, json.Unmarshal([]byte(input), &f))

	assert.Equal(t, []string{"Zeta", "Alpha", "Mid", "List", "Gone"}, f.Names())

	out, err := json.Marshal(f)
	require.NoError(t, err)
	assert.Equal(t, input, string(out))
}

func TestFields_SetKeepsPosition(t *testing.T) {
	f := NewFields(F("a", String("1")), F("b", String("2")))
	f.Set("a", String("3"))
	f.Set("c", String("4"))

	assert.Equal(t, []string{"a", "b", "c"}, f.Names())
	v, ok := f.Get("a")
	assert.True(t, ok)
	assert.True(t, v.Equal(String("3")))
}

func TestFields_CloneIsIndependent(t *testing.T) {
	f := NewFields(F("a", String("1")))
	c := f.Clone()
	c.Set("a", String("2"))
	c.Set("b", String("3"))

	v, _ := f.Get("a")
	assert.True(t, v.Equal(String("1")))
	assert.Equal(t, 1, f.Len())
}

func TestFields_Equal(t *testing.T) {
	a := NewFields(F("x", Number(1)), F("y", String("b")))
	b := NewFields(F("y", String("b")), F("x", Number(1)))
	c := NewFields(F("x", Number(2)), F("y", String("b")))

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(NewFields(F("x", Number(1)))))
}

func TestFields_UnmarshalRejectsNonObject(t *testing.T) {
	var f Fields
	assert.Error(t, json.Unmarshal([]byte(`["a"]`), &f))

	require.NoError(t, json.Unmarshal([]byte(`null`), &f))
	assert.Equal(t, 0, f.Len())
}

func TestRemoteRecord_Decode(t *testing.T) {
	input := `{"id":"rec1","createdTime":"2024-01-01T00:00:00.000Z","fields":{"Name":"Alice","Pay":"100"}}`

	var rec RemoteRecord
	require.NoError(t, json.Unmarshal([]byte(input), &rec))

	assert.Equal(t, "rec1", rec.ID)
	assert.Equal(t, []string{"Name", "Pay"}, rec.Fields.Names())
}
