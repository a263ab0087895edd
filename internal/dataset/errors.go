package dataset

import (
	"fmt"
	"strings"
)

// DataAccessError indicates the input file is missing, unreadable, or not
// delimited tabular text.
type DataAccessError struct {
	Path string
	Err  error
}

func (e *DataAccessError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("data access: %v", e.Err)
	}
	return fmt.Sprintf("data access %s: %v", e.Path, e.Err)
}

func (e *DataAccessError) Unwrap() error { return e.Err }

// SchemaError indicates required columns are absent, or a column holds
// values of the wrong kind for how it is used.
type SchemaError struct {
	Missing []string
	Column  string
	Row     int // 1-based data row, 0 when not row specific
	Value   string
	Reason  string
}

func (e *SchemaError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("schema: missing column(s): %s", strings.Join(e.Missing, ", "))
	}
	if e.Row > 0 {
		return fmt.Sprintf("schema: column %q row %d: %q is not numeric", e.Column, e.Row, e.Value)
	}
	if e.Reason != "" {
		return fmt.Sprintf("schema: column %q: %s", e.Column, e.Reason)
	}
	return fmt.Sprintf("schema: column %q: invalid", e.Column)
}
