package roster

import (
	"fmt"

	"roster-sync/core/reconcile"
)

// Config holds configuration for reading the roster export.
type Config struct {
	// File is a local path to the export. It takes precedence over Object.
	File string `mapstructure:"file" default:""`
	// Object is a storage key of the export, or a prefix ending in "/" to pick the newest object.
	Object string `mapstructure:"object" default:""`
	// Sheet is the worksheet name. Empty selects the first sheet.
	Sheet string `mapstructure:"sheet" default:""`
	// HeaderRow is the 1-based row holding the column headers.
	HeaderRow int `mapstructure:"header_row" default:"6"`
	// SkipRows is the number of rows after the header that are not data.
	SkipRows int `mapstructure:"skip_rows" default:"5"`
	// SkipColumns is the number of leading columns ignored when matching headers.
	SkipColumns int `mapstructure:"skip_columns" default:"1"`
	// ListSeparator splits string_array cells. Empty keeps the whole cell as one item.
	ListSeparator string `mapstructure:"list_separator" default:""`
	// Columns maps export headers to remote fields. Empty means DefaultColumns.
	Columns []Column `mapstructure:"columns"`
}

// KindID marks a string column holding an identifier. Spreadsheet renderings
// such as "4.16555E+09" or "1234.0" are folded back to their digits.
const KindID = "id"

// Column maps one export header to one remote field.
type Column struct {
	// Source is the header text in the export.
	Source string `mapstructure:"source" json:"source"`
	// Target is the remote field name.
	Target string `mapstructure:"target" json:"target"`
	// Kind is the value kind: string, id, number, bool or string_array.
	Kind string `mapstructure:"kind" json:"kind"`
}

// DefaultColumns is the mapping of the LiveIQ employee export.
func DefaultColumns() []Column {
	return []Column{
		{Source: "Payroll Number*", Target: "LiQ - Payroll Number", Kind: KindID},
		{Source: "First Name*", Target: "LiQ - First Name", Kind: "string"},
		{Source: "Last Name*", Target: "LiQ - Last Name", Kind: "string"},
		{Source: "Address Line 1", Target: "LiQ - Address Line 1", Kind: "string"},
		{Source: "Address Line 2", Target: "LiQ - Address Line 2", Kind: "string"},
		{Source: "Address Town", Target: "LiQ - Address Town", Kind: "string"},
		{Source: "State", Target: "LiQ - Province", Kind: "string"},
		{Source: "Address Post Code", Target: "LiQ - Address Post Code", Kind: "string"},
		{Source: "Home Phone", Target: "LiQ - Home Phone", Kind: KindID},
		{Source: "Cell Phone", Target: "LiQ - Cell Phone", Kind: KindID},
		{Source: "Email", Target: "LiQ - Email", Kind: "string"},
		{Source: "Position*", Target: "LiQ - Position", Kind: "string_array"},
		{Source: "Subway Id", Target: "LiQ - Subway Id", Kind: KindID},
		{Source: "Salaried Employee", Target: "LiQ - Salaried Employee", Kind: "bool"},
	}
}

// ResolvedColumns returns Columns, or DefaultColumns when none are configured.
func (c Config) ResolvedColumns() []Column {
	if len(c.Columns) == 0 {
		return DefaultColumns()
	}
	return c.Columns
}

// Validate checks the layout and the column mapping.
func (c Config) Validate() error {
	if c.HeaderRow < 1 {
		return fmt.Errorf("roster header_row must be >= 1, got %d", c.HeaderRow)
	}
	if c.SkipRows < 0 || c.SkipColumns < 0 {
		return fmt.Errorf("roster skip_rows and skip_columns must not be negative")
	}

	targets := make(map[string]bool)
	for i, col := range c.ResolvedColumns() {
		if col.Source == "" || col.Target == "" {
			return fmt.Errorf("roster column %d needs both source and target", i)
		}
		if _, err := columnKind(col.Kind); err != nil {
			return fmt.Errorf("roster column %q: %w", col.Source, err)
		}
		if targets[col.Target] {
			return fmt.Errorf("roster target %q is mapped twice", col.Target)
		}
		targets[col.Target] = true
	}
	return nil
}

// columnKind resolves a configured kind. KindID is stored as a string.
func columnKind(kind string) (reconcile.Kind, error) {
	if kind == KindID {
		return reconcile.KindString, nil
	}
	return reconcile.ParseKind(kind)
}
