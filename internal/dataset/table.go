package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultNAValues are the cell tokens treated as missing in addition to the
// empty string.
var DefaultNAValues = []string{"NA", "N/A", "n/a", "NaN", "nan", "NULL", "null", "None", "<NA>", "#N/A", "."}

// ErrEmpty is returned (wrapped in a DataAccessError) when a file has no header row.
var ErrEmpty = errors.New("no header row")

// LoadOptions controls how a delimited file is read.
type LoadOptions struct {
	// Delimiter for the file. If 0, uses tab for .tsv and otherwise sniffs the
	// header line among ',', ';', '\t'.
	Delimiter rune
	// NAValues overrides DefaultNAValues when non-nil.
	NAValues []string
	// DecimalComma parses "1,5" as 1.5 and treats '.' as a thousands separator.
	DecimalComma bool
	// Sheet selects the worksheet of an .xlsx file; empty means the first.
	Sheet string
}

// Table is an in-memory observation table: ordered column names and ordered
// rows of raw cells. Tables are never mutated after construction; every
// transformation returns a new Table.
type Table struct {
	name         string
	columns      []string
	index        map[string]int
	rows         [][]string
	na           map[string]struct{}
	decimalComma bool
}

// New builds a table from a header and rows. Every row must have exactly
// len(columns) cells.
func New(columns []string, rows [][]string) (*Table, error) {
	return build("", columns, rows, LoadOptions{})
}

func build(name string, columns []string, rows [][]string, opt LoadOptions) (*Table, error) {
	cols := make([]string, len(columns))
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		c = strings.TrimSpace(strings.TrimPrefix(c, "\ufeff"))
		if c == "" {
			c = fmt.Sprintf("column_%d", i+1)
		}
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("duplicate column %q", c)
		}
		cols[i] = c
		index[c] = i
	}
	for i, r := range rows {
		if len(r) != len(cols) {
			return nil, fmt.Errorf("row %d: expected %d fields, got %d", i+1, len(cols), len(r))
		}
	}
	nav := opt.NAValues
	if nav == nil {
		nav = DefaultNAValues
	}
	na := make(map[string]struct{}, len(nav))
	for _, v := range nav {
		na[v] = struct{}{}
	}
	return &Table{name: name, columns: cols, index: index, rows: rows, na: na, decimalComma: opt.DecimalComma}, nil
}

// Load reads a delimited file, or one worksheet of an .xlsx
// workbook, with a header row into a Table.
func Load(path string, opt LoadOptions) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &DataAccessError{Path: path, Err: err}
	}
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		header, rows, err := readXLSX(data, opt.Sheet)
		if err != nil {
			return nil, &DataAccessError{Path: path, Err: err}
		}
		t, err := build(filepath.Base(path), header, rows, opt)
		if err != nil {
			return nil, &DataAccessError{Path: path, Err: err}
		}
		return t, nil
	}
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path, data)
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.TrimLeadingSpace = true
	// FieldsPerRecord 0: every record must match the header width.
	r.FieldsPerRecord = 0

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &DataAccessError{Path: path, Err: ErrEmpty}
		}
		return nil, &DataAccessError{Path: path, Err: fmt.Errorf("read header: %w", err)}
	}
	header = append([]string(nil), header...)

	var rows [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &DataAccessError{Path: path, Err: fmt.Errorf("read row %d: %w", len(rows)+1, err)}
		}
		rows = append(rows, rec)
	}
	t, err := build(filepath.Base(path), header, rows, opt)
	if err != nil {
		return nil, &DataAccessError{Path: path, Err: err}
	}
	return t, nil
}

func sniffDelimiter(path string, data []byte) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestN := ',', 0
	for _, d := range []rune{',', ';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}

// Name is the base name of the file the table was loaded from, if any.
func (t *Table) Name() string { return t.name }

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string { return append([]string(nil), t.columns...) }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Row returns a copy of row i.
func (t *Table) Row(i int) []string { return append([]string(nil), t.rows[i]...) }

// Has reports whether the table has the named column.
func (t *Table) Has(col string) bool {
	_, ok := t.lookup(col)
	return ok
}

func (t *Table) lookup(col string) (int, bool) {
	name := strings.TrimSpace(col)
	if i, ok := t.index[name]; ok {
		return i, true
	}
	for i, c := range t.columns {
		if strings.EqualFold(c, name) {
			return i, true
		}
	}
	return 0, false
}

// IsMissing reports whether a raw cell value counts as missing.
func (t *Table) IsMissing(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return true
	}
	_, ok := t.na[v]
	return ok
}

// Require returns a SchemaError naming every absent column.
func (t *Table) Require(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}
	return nil
}

// Strings returns the raw cells of a column.
func (t *Table) Strings(col string) ([]string, error) {
	j, ok := t.lookup(col)
	if !ok {
		return nil, &SchemaError{Missing: []string{col}}
	}
	out := make([]string, len(t.rows))
	for i, r := range t.rows {
		out[i] = strings.TrimSpace(r[j])
	}
	return out, nil
}

// Floats parses a column as numbers. Missing or non-numeric cells are a
// SchemaError; clean the table first.
func (t *Table) Floats(col string) ([]float64, error) {
	j, ok := t.lookup(col)
	if !ok {
		return nil, &SchemaError{Missing: []string{col}}
	}
	out := make([]float64, len(t.rows))
	for i, r := range t.rows {
		x, ok := parseNumeric(r[j], t.decimalComma)
		if !ok || t.IsMissing(r[j]) {
			return nil, &SchemaError{Column: t.columns[j], Row: i + 1, Value: r[j]}
		}
		out[i] = x
	}
	return out, nil
}

func parseNumeric(s string, decimalComma bool) (float64, bool) {
	raw := strings.TrimSpace(strings.ReplaceAll(s, "\u00A0", " "))
	if raw == "" {
		return 0, false
	}
	if decimalComma {
		raw = strings.ReplaceAll(raw, ".", "")
		raw = strings.ReplaceAll(raw, ",", ".")
	} else {
		raw = strings.ReplaceAll(raw, ",", "")
	}
	raw = strings.ReplaceAll(raw, " ", "")
	// Scientific notation is accepted as-is.
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// WriteCSV writes the header and rows as comma-separated text.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(t.rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}
