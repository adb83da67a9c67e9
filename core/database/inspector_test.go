package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTableColumns(t *testing.T) {
	db, err := Connect(Config{Driver: DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)

	err = db.Exec("CREATE TABLE sync_items (id INTEGER PRIMARY KEY, name TEXT, Payload TEXT)").Error
	require.NoError(t, err)

	columns, err := GetTableColumns(db, "sync_items")
	require.NoError(t, err)
	require.Len(t, columns, 3)

	colMap := make(map[string]string)
	for _, col := range columns {
		colMap[col.Field] = col.Type
	}
	assert.Equal(t, "integer", colMap["id"])
	assert.Equal(t, "text", colMap["name"])
	assert.Equal(t, "text", colMap["payload"], "names are lowercased")

	cols, err := GetTableColumns(db, "non_existent")
	assert.NoError(t, err)
	assert.Empty(t, cols)
}

func TestMissingColumns(t *testing.T) {
	db, err := Connect(Config{Driver: DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE TABLE runs (id TEXT, status TEXT)").Error)

	missing, err := MissingColumns(db, "runs", "id", "status", "summary", "finished_at")
	require.NoError(t, err)
	assert.Equal(t, []string{"finished_at", "summary"}, missing)

	missing, err = MissingColumns(db, "absent", "id")
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, missing)
}
