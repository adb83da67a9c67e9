// Package roster reads the employee roster export and normalizes it into
// reconcile.LocalRecord values.
//
// The export is an xlsx workbook with a banner above the header row, a block of
// non-data rows below it, and a leading selection column. The layout is
// configurable; the defaults match the LiveIQ employee export (header on row 6,
// five rows dropped, first column ignored).
//
// # Column Mapping
//
// Each Column maps an export header to a remote field with a kind:
//
//   - string: trimmed text, kept as written.
//   - id: trimmed text; numeric renderings such as 4.16555E+09 are folded to digits.
//   - number: parsed as float64, blank is 0.
//   - bool: blank, 0, false, no, n and off are false; anything else is true.
//   - string_array: the cell as one item, or split on ListSeparator. Blank is an empty list.
//
// Fields are emitted in mapping order. Rows whose mapped cells are all blank are
// dropped. Every record keeps its 1-based spreadsheet row for diagnostics.
//
// # Usage
//
//	n, err := roster.NewNormalizer(cfg.Roster, log)
//	records, err := n.NormalizeFile("export.xlsx")
package roster
