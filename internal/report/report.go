// Package report renders pipeline results as plain text with bracketed
// section headers.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/regress-cli/internal/dataset"
	"github.com/KaramelBytes/regress-cli/internal/model"
	"github.com/KaramelBytes/regress-cli/internal/pipeline"
	"github.com/KaramelBytes/regress-cli/internal/summary"
)

// Options controls report detail.
type Options struct {
	// TopN bounds the ranked probability table; 0 hides it.
	TopN int
	// CurvePoints is the number of grid values in the fitted-curve chart.
	CurvePoints int
	// BarWidth is the width in characters of a probability of 1.
	BarWidth int
}

// DefaultOptions returns the settings used by the CLI.
func DefaultOptions() Options {
	return Options{TopN: 10, CurvePoints: 11, BarWidth: 40}
}

// Report is a renderable view over a pipeline result.
type Report struct {
	res *pipeline.Result
	opt Options
}

// New wraps res for rendering.
func New(res *pipeline.Result, opt Options) *Report {
	if opt.CurvePoints < 2 {
		opt.CurvePoints = DefaultOptions().CurvePoints
	}
	if opt.BarWidth <= 0 {
		opt.BarWidth = DefaultOptions().BarWidth
	}
	return &Report{res: res, opt: opt}
}

// Markdown renders every section of the report.
func (r *Report) Markdown() string {
	var b strings.Builder
	res := r.res
	b.WriteString("[DATASET SUMMARY]\n")
	b.WriteString(fmt.Sprintf("Run: %s\n", res.RunID))
	if res.Source != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", res.Source))
	}
	b.WriteString(fmt.Sprintf("Rows: %d raw, %d clean (%d dropped for missing values)\n", res.RawRows, res.Table.Len(), res.Dropped))
	b.WriteString(fmt.Sprintf("Columns: %s\n\n", strings.Join(res.Columns, ", ")))

	b.WriteString(Schema(res.Table.Describe()))
	if res.Balance.Column != "" {
		b.WriteString("\n")
		b.WriteString(Balance(res.Balance))
	}
	if len(res.Linear) > 0 {
		b.WriteString("\n[LINEAR MODELS]\n")
		for _, m := range res.Linear {
			b.WriteString(Linear(m))
		}
	}
	if len(res.Fits) > 0 {
		b.WriteString("\n[LOGIT MODELS]\n")
		for _, f := range res.Fits {
			b.WriteString(r.logit(f))
		}
	}
	if len(res.Failures) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, f := range res.Failures {
			b.WriteString(fmt.Sprintf("- %s skipped: %v\n", f.Formula, f.Err))
		}
	}
	return b.String()
}

// Schema renders per-column summaries.
func Schema(cols []dataset.ColumnSummary) string {
	var b strings.Builder
	b.WriteString("[SCHEMA]\n")
	for _, c := range cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", safeName(c.Name), c.Kind, c.NonNull, missPct))
		switch c.Kind {
		case "numeric", "binary":
			b.WriteString(fmt.Sprintf(": min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
		case "categorical":
			if len(c.TopValues) > 0 {
				b.WriteString(": top ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
				if c.Unique > len(c.TopValues) {
					b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
				}
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Balance renders outcome counts and shares, and the outcome odds when the
// column is a 0/1 outcome.
func Balance(bal dataset.Balance) string {
	var b strings.Builder
	b.WriteString("[OUTCOME BALANCE]\n")
	b.WriteString(fmt.Sprintf("Column: %s (n=%d)\n", bal.Column, bal.Total))
	for _, c := range bal.Counts {
		v := c.Value
		if v == "" {
			v = "(missing)"
		}
		b.WriteString(fmt.Sprintf("- %s: %d (%.1f%%)\n", safeVal(v), c.Count, 100*bal.Share(c.Value)))
	}
	if odds, logOdds, ok := summary.OutcomeOdds(bal); ok {
		b.WriteString(fmt.Sprintf("Odds of 1: %.4f (log-odds %.4f)\n", odds, logOdds))
	}
	return b.String()
}

// Linear renders an OLS fit.
func Linear(m *model.Linear) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("- %s (n=%d, df=%d)\n", m.Formula, m.N, m.DF))
	b.WriteString(fmt.Sprintf("  %-14s %12s %12s %9s %10s\n", "term", "estimate", "std.err", "t", "p"))
	for _, c := range m.Coefficients {
		b.WriteString(fmt.Sprintf("  %-14s %12.6f %12.6f %9.3f %10s\n", c.Term, c.Estimate, c.StdErr, c.Stat, pval(c.P)))
	}
	b.WriteString(fmt.Sprintf("  R²=%.4f, adj. R²=%.4f, residual SE=%.4f\n", m.RSquared, m.AdjRSquared, m.ResidualStdErr))
	if m.OutOfRange > 0 {
		b.WriteString(fmt.Sprintf("  %d of %d fitted values fall outside [0, 1]\n", m.OutOfRange, m.N))
	}
	return b.String()
}

// Logit renders a logit fit with its ranked probabilities and, for a single
// predictor, the fitted curve.
func Logit(f summary.Fit, opt Options) string {
	return New(nil, opt).logit(f)
}

func (r *Report) logit(f summary.Fit) string {
	var b strings.Builder
	m := f.Model
	b.WriteString(fmt.Sprintf("- %s (n=%d, iterations=%d)\n", m.Formula, m.N, m.Iterations))
	b.WriteString(fmt.Sprintf("  %-14s %12s %12s %9s %10s %10s %21s\n", "term", "estimate", "std.err", "z", "p", "odds", "95% CI"))
	for _, c := range m.Coefficients {
		b.WriteString(fmt.Sprintf("  %-14s %12.6f %12.6f %9.3f %10s %10.4g [%9.4g, %9.4g]\n",
			c.Term, c.Estimate, c.StdErr, c.Stat, pval(c.P), c.OddsRatio, c.ORLow, c.ORHigh))
	}
	b.WriteString(fmt.Sprintf("  deviance=%.4f, null deviance=%.4f, AIC=%.4f, log-lik=%.4f\n", m.Deviance, m.NullDeviance, m.AIC, m.LogLik))
	b.WriteString(fmt.Sprintf("  McFadden R²=%.4f, LR χ²=%.4f (df=%d, p=%s)\n", f.McFadden, f.LR.Statistic, f.LR.DF, pval(f.LR.P)))
	if m.Formula.IsNull() {
		b.WriteString(fmt.Sprintf("  baseline odds=%.4f, probability=%.4f\n", f.BaselineOdds, summary.ProbFromOdds(f.BaselineOdds)))
	}
	if r.opt.TopN > 0 && !m.Formula.IsNull() {
		b.WriteString(r.ranked(m))
	}
	if len(m.Formula.Predictors) == 1 {
		b.WriteString(r.curve(m))
	}
	return b.String()
}

// ranked lists the rows with the highest fitted probability.
func (r *Report) ranked(m *model.Logit) string {
	idx := make([]int, len(m.Fitted))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return m.Fitted[idx[a]] > m.Fitted[idx[b]] })
	n := r.opt.TopN
	if n > len(idx) {
		n = len(idx)
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("  top %d fitted probabilities:\n", n))
	for rank, i := range idx[:n] {
		parts := make([]string, 0, len(m.Formula.Predictors))
		for _, p := range m.Formula.Predictors {
			parts = append(parts, fmt.Sprintf("%s=%g", p, m.Predictors[p][i]))
		}
		b.WriteString(fmt.Sprintf("  %3d. row %-6d p=%.4f %s=%g  %s\n",
			rank+1, i+1, m.Fitted[i], m.Formula.Response, m.Response[i], strings.Join(parts, " ")))
	}
	return b.String()
}

// curve charts the fitted probability across the observed predictor range.
func (r *Report) curve(m *model.Logit) string {
	name := m.Formula.Predictors[0]
	xs := m.Predictors[name]
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, x := range xs {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	grid := CurveGrid(lo, hi, r.opt.CurvePoints)
	var b strings.Builder
	b.WriteString(fmt.Sprintf("  fitted P(%s=1) by %s:\n", m.Formula.Response, name))
	for _, x := range grid {
		p, err := m.Predict(map[string]float64{name: x})
		if err != nil {
			continue
		}
		b.WriteString(fmt.Sprintf("  %10.4g | %-*s %.3f\n", x, r.opt.BarWidth, bar(p, r.opt.BarWidth), p))
	}
	return b.String()
}

// CurveGrid returns n evenly spaced values over [lo, hi]. A binary range
// yields just its two values.
func CurveGrid(lo, hi float64, n int) []float64 {
	if hi <= lo {
		return []float64{lo}
	}
	if lo == 0 && hi == 1 {
		return []float64{0, 1}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}

func bar(p float64, width int) string {
	n := int(math.Round(p * float64(width)))
	if n < 0 {
		n = 0
	}
	if n > width {
		n = width
	}
	return strings.Repeat("#", n)
}

func pval(p float64) string {
	if p < 1e-4 {
		return "<1e-4"
	}
	return fmt.Sprintf("%.4f", p)
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
