package database

import (
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
)

// ColumnInfo describes one column of a table.
type ColumnInfo struct {
	Field string
	Type  string
}

// GetTableColumns retrieves the column definitions for a given table.
// A table that does not exist yields no columns and no error.
func GetTableColumns(db *gorm.DB, tableName string) ([]ColumnInfo, error) {
	if !db.Migrator().HasTable(tableName) {
		return nil, nil
	}

	types, err := db.Migrator().ColumnTypes(tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to get columns for table %s: %w", tableName, err)
	}

	columns := make([]ColumnInfo, 0, len(types))
	for _, ct := range types {
		columns = append(columns, ColumnInfo{
			Field: strings.ToLower(ct.Name()),
			Type:  strings.ToLower(ct.DatabaseTypeName()),
		})
	}
	return columns, nil
}

// MissingColumns returns the expected columns absent from tableName, sorted.
func MissingColumns(db *gorm.DB, tableName string, expected ...string) ([]string, error) {
	columns, err := GetTableColumns(db, tableName)
	if err != nil {
		return nil, err
	}

	present := make(map[string]bool, len(columns))
	for _, col := range columns {
		present[col.Field] = true
	}

	var missing []string
	for _, name := range expected {
		if !present[strings.ToLower(name)] {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing, nil
}
