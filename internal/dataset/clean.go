package dataset

import (
	"sort"
	"strconv"
)

// Select projects the table onto cols, in the given order. Row order is kept.
func (t *Table) Select(cols ...string) (*Table, error) {
	if err := t.Require(cols...); err != nil {
		return nil, err
	}
	idx := make([]int, len(cols))
	names := make([]string, len(cols))
	seen := make(map[int]bool, len(cols))
	for i, c := range cols {
		j, _ := t.lookup(c)
		if seen[j] {
			return nil, &SchemaError{Column: t.columns[j], Reason: "selected more than once"}
		}
		seen[j] = true
		idx[i] = j
		names[i] = t.columns[j]
	}
	rows := make([][]string, len(t.rows))
	for i, r := range t.rows {
		out := make([]string, len(idx))
		for k, j := range idx {
			out[k] = r[j]
		}
		rows[i] = out
	}
	return t.derive(names, rows)
}

// DropMissing returns a table without the rows that have a missing value in
// any column. Relative order of the remaining rows is preserved.
func (t *Table) DropMissing() *Table {
	rows := make([][]string, 0, len(t.rows))
	for _, r := range t.rows {
		if !t.rowMissing(r) {
			rows = append(rows, r)
		}
	}
	// Same columns, so derive cannot fail.
	out, _ := t.derive(t.columns, rows)
	return out
}

// Clean selects cols and drops rows with missing values. Cleaning a clean
// table returns an equal table.
func Clean(t *Table, cols []string) (*Table, error) {
	sel, err := t.Select(cols...)
	if err != nil {
		return nil, err
	}
	return sel.DropMissing(), nil
}

// CountMissing returns the number of missing cells in col.
func (t *Table) CountMissing(col string) (int, error) {
	j, ok := t.lookup(col)
	if !ok {
		return 0, &SchemaError{Missing: []string{col}}
	}
	n := 0
	for _, r := range t.rows {
		if t.IsMissing(r[j]) {
			n++
		}
	}
	return n, nil
}

func (t *Table) rowMissing(r []string) bool {
	for _, v := range r {
		if t.IsMissing(v) {
			return true
		}
	}
	return false
}

func (t *Table) derive(columns []string, rows [][]string) (*Table, error) {
	nav := make([]string, 0, len(t.na))
	for v := range t.na {
		nav = append(nav, v)
	}
	sort.Strings(nav)
	out, err := build(t.name, columns, rows, LoadOptions{NAValues: nav, DecimalComma: t.decimalComma})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ValueCount is the number of rows holding a value.
type ValueCount struct {
	Value string
	Count int
}

// Balance is the per-value row count of one column.
type Balance struct {
	Column string
	Counts []ValueCount
	Total  int
}

// Count returns the number of rows with value v.
func (b Balance) Count(v string) int {
	for _, c := range b.Counts {
		if c.Value == v {
			return c.Count
		}
	}
	return 0
}

// Share returns the fraction of rows with value v, or 0 for an empty column.
func (b Balance) Share(v string) float64 {
	if b.Total == 0 {
		return 0
	}
	return float64(b.Count(v)) / float64(b.Total)
}

// CountBy counts rows per distinct value of col. Missing cells are counted
// under the empty string. Values are ordered numerically when every value
// parses as a number, otherwise lexically.
func (t *Table) CountBy(col string) (Balance, error) {
	vals, err := t.Strings(col)
	if err != nil {
		return Balance{}, err
	}
	name := col
	if j, ok := t.lookup(col); ok {
		name = t.columns[j]
	}
	counts := map[string]int{}
	for _, v := range vals {
		if t.IsMissing(v) {
			v = ""
		}
		counts[v]++
	}
	b := Balance{Column: name, Total: len(vals)}
	numeric := true
	for v := range counts {
		b.Counts = append(b.Counts, ValueCount{Value: v, Count: counts[v]})
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			numeric = false
		}
	}
	sort.Slice(b.Counts, func(i, j int) bool {
		a, c := b.Counts[i].Value, b.Counts[j].Value
		if numeric {
			x, _ := strconv.ParseFloat(a, 64)
			y, _ := strconv.ParseFloat(c, 64)
			if x != y {
				return x < y
			}
		}
		return a < c
	})
	return b, nil
}
