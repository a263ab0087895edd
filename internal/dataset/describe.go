package dataset

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ColumnSummary captures inferred kind and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    string // numeric|binary|categorical|empty
	NonNull int
	Missing int
	Unique  int
	// Numeric stats
	Min  float64
	Max  float64
	Mean float64
	Std  float64
	// Categorical top values
	TopValues []ValueCount
}

// Describe summarizes every column of the table.
func (t *Table) Describe() []ColumnSummary {
	out := make([]ColumnSummary, 0, len(t.columns))
	for j, name := range t.columns {
		s := ColumnSummary{Name: name}
		var nums []float64
		cats := map[string]int{}
		for _, r := range t.rows {
			v := r[j]
			if t.IsMissing(v) {
				s.Missing++
				continue
			}
			s.NonNull++
			cats[v]++
			if x, ok := parseNumeric(v, t.decimalComma); ok {
				nums = append(nums, x)
			}
		}
		s.Unique = len(cats)
		switch {
		case s.NonNull == 0:
			s.Kind = "empty"
		case len(nums) == s.NonNull:
			s.Kind = "numeric"
			if isBinary(nums) {
				s.Kind = "binary"
			}
			s.Min, s.Max = math.Inf(1), math.Inf(-1)
			for _, x := range nums {
				s.Min = math.Min(s.Min, x)
				s.Max = math.Max(s.Max, x)
			}
			s.Mean = stat.Mean(nums, nil)
			if len(nums) > 1 {
				s.Std = stat.StdDev(nums, nil)
			}
		default:
			s.Kind = "categorical"
			tops := make([]ValueCount, 0, len(cats))
			for k, v := range cats {
				tops = append(tops, ValueCount{Value: k, Count: v})
			}
			sort.Slice(tops, func(i, j int) bool {
				if tops[i].Count == tops[j].Count {
					return tops[i].Value < tops[j].Value
				}
				return tops[i].Count > tops[j].Count
			})
			if len(tops) > 8 {
				tops = tops[:8]
			}
			s.TopValues = tops
		}
		out = append(out, s)
	}
	return out
}

func isBinary(xs []float64) bool {
	for _, x := range xs {
		if x != 0 && x != 1 {
			return false
		}
	}
	return true
}
