package roster

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"roster-sync/core/reconcile"
	"roster-sync/core/utils"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ErrSheetNotFound is returned when the configured worksheet does not exist.
var ErrSheetNotFound = errors.New("worksheet not found")

// MissingColumnsError lists mapped headers absent from the header row.
type MissingColumnsError struct {
	HeaderRow int
	Missing   []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("header row %d is missing columns: %s", e.HeaderRow, strings.Join(e.Missing, ", "))
}

// CellError is a cell whose text does not convert to its column kind.
type CellError struct {
	Row    int
	Column string
	Err    error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("row %d, column %q: %v", e.Row, e.Column, e.Err)
}

func (e *CellError) Unwrap() error {
	return e.Err
}

type boundColumn struct {
	Column
	kind reconcile.Kind
	fold bool
	pos  int
}

// Normalizer turns a roster export into local records.
type Normalizer struct {
	cfg     Config
	columns []boundColumn
	logger  *zap.Logger
}

// NewNormalizer validates cfg and returns a normalizer.
func NewNormalizer(cfg Config, logger *zap.Logger) (*Normalizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cols := cfg.ResolvedColumns()
	bound := make([]boundColumn, len(cols))
	for i, col := range cols {
		kind, _ := columnKind(col.Kind)
		bound[i] = boundColumn{Column: col, kind: kind, fold: col.Kind == KindID, pos: -1}
	}

	return &Normalizer{cfg: cfg, columns: bound, logger: logger}, nil
}

// Targets returns the remote field names in mapping order.
func (n *Normalizer) Targets() []string {
	out := make([]string, len(n.columns))
	for i, col := range n.columns {
		out[i] = col.Target
	}
	return out
}

// NormalizeFile reads the export at path.
func (n *Normalizer) NormalizeFile(path string) ([]reconcile.LocalRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return n.normalize(f)
}

// NormalizeBytes reads an export held in memory.
func (n *Normalizer) NormalizeBytes(data []byte) ([]reconcile.LocalRecord, error) {
	return n.Normalize(bytes.NewReader(data))
}

// Normalize reads an export from r.
func (n *Normalizer) Normalize(r io.Reader) ([]reconcile.LocalRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read spreadsheet: %w", err)
	}
	defer f.Close()
	return n.normalize(f)
}

func (n *Normalizer) normalize(f *excelize.File) ([]reconcile.LocalRecord, error) {
	sheet := n.cfg.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrSheetNotFound
		}
		sheet = sheets[0]
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%s: %w", sheet, ErrSheetNotFound)
	}

	// Raw values keep phone numbers and ids out of display formatting.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	return n.NormalizeRows(rows)
}

// NormalizeRows maps already-read rows. rows[0] is spreadsheet row 1.
func (n *Normalizer) NormalizeRows(rows [][]string) ([]reconcile.LocalRecord, error) {
	headerIdx := n.cfg.HeaderRow - 1
	if headerIdx >= len(rows) {
		return nil, fmt.Errorf("header row %d not found, sheet has %d rows", n.cfg.HeaderRow, len(rows))
	}

	columns, err := n.bind(rows[headerIdx])
	if err != nil {
		return nil, err
	}

	start := headerIdx + 1 + n.cfg.SkipRows
	records := make([]reconcile.LocalRecord, 0, max(len(rows)-start, 0))
	blank := 0

	for r := start; r < len(rows); r++ {
		row := rows[r]
		rowNum := r + 1

		if isBlank(row, columns) {
			blank++
			continue
		}

		fields := reconcile.NewFields()
		for _, col := range columns {
			v, err := n.convert(cell(row, col.pos), col)
			if err != nil {
				return nil, &CellError{Row: rowNum, Column: col.Source, Err: err}
			}
			fields.Set(col.Target, v)
		}
		records = append(records, reconcile.LocalRecord{Fields: fields, Row: rowNum})
	}

	n.logger.Debug("Roster normalized",
		zap.Int("records", len(records)),
		zap.Int("blank_rows", blank),
		zap.Int("first_data_row", start+1),
	)
	return records, nil
}

func (n *Normalizer) bind(header []string) ([]boundColumn, error) {
	positions := make(map[string]int)
	for i := n.cfg.SkipColumns; i < len(header); i++ {
		name := utils.CleanCell(header[i])
		if _, seen := positions[name]; name != "" && !seen {
			positions[name] = i
		}
	}

	columns := make([]boundColumn, len(n.columns))
	var missing []string
	for i, col := range n.columns {
		pos, ok := positions[col.Source]
		if !ok {
			missing = append(missing, col.Source)
			continue
		}
		col.pos = pos
		columns[i] = col
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{HeaderRow: n.cfg.HeaderRow, Missing: missing}
	}
	return columns, nil
}

func (n *Normalizer) convert(text string, col boundColumn) (reconcile.Value, error) {
	switch col.kind {
	case reconcile.KindNumber:
		f, err := utils.ToNumber(text)
		if err != nil {
			return reconcile.Value{}, err
		}
		return reconcile.Number(f), nil
	case reconcile.KindBool:
		return reconcile.Bool(utils.ToBool(text)), nil
	case reconcile.KindStringArray:
		return reconcile.StringArray(utils.ToList(text, n.cfg.ListSeparator)...), nil
	default:
		if col.fold {
			return reconcile.String(utils.ToString(text)), nil
		}
		return reconcile.String(utils.CleanCell(text)), nil
	}
}

func cell(row []string, pos int) string {
	if pos < 0 || pos >= len(row) {
		return ""
	}
	return row[pos]
}

func isBlank(row []string, columns []boundColumn) bool {
	for _, col := range columns {
		if utils.CleanCell(cell(row, col.pos)) != "" {
			return false
		}
	}
	return true
}
