// Package pipeline runs the load → clean → balance → fit → summarize
// sequence over one input file.
package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/KaramelBytes/regress-cli/internal/config"
	"github.com/KaramelBytes/regress-cli/internal/dataset"
	"github.com/KaramelBytes/regress-cli/internal/model"
	"github.com/KaramelBytes/regress-cli/internal/summary"
)

// Stage names reported in StageError.
const (
	StageLoad      = "load"
	StageClean     = "clean"
	StageBalance   = "balance"
	StageFit       = "fit"
	StageSummarize = "summarize"
)

// StageError reports the step that stopped a run and its cause.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

// Options describes one analysis run.
type Options struct {
	Path    string
	Load    dataset.LoadOptions
	Columns []string
	Outcome string
	// Models are fitted as logistic regressions, LinearModels by OLS.
	Models       []model.Formula
	LinearModels []model.Formula
	Fit          model.FitOptions
	// KeepGoing records model-level fit errors instead of stopping the run.
	KeepGoing bool
}

// Failure is a model that could not be fitted in a keep-going run.
type Failure struct {
	Formula model.Formula
	Err     error
}

// Result holds everything a run produced.
type Result struct {
	RunID   string
	Source  string
	RawRows int
	Dropped int
	Columns []string
	Table   *dataset.Table
	Balance dataset.Balance
	Linear  []*model.Linear
	Fits    []summary.Fit
	// Failures is only populated when Options.KeepGoing is set.
	Failures []Failure
}

// OptionsFromConfig turns configuration values into run options for path.
func OptionsFromConfig(c *config.Global, path string) (Options, error) {
	opt := Options{
		Path:    path,
		Columns: append([]string(nil), c.Columns...),
		Outcome: c.Outcome,
		Fit:     model.FitOptions{MaxIter: c.MaxIter, Tolerance: c.Tolerance},
		Load:    dataset.LoadOptions{NAValues: c.NAValues, DecimalComma: c.DecimalComma},
	}
	d, err := ParseDelimiter(c.Delimiter)
	if err != nil {
		return Options{}, err
	}
	opt.Load.Delimiter = d
	for _, s := range c.Models {
		f, err := model.ParseFormula(s)
		if err != nil {
			return Options{}, err
		}
		opt.Models = append(opt.Models, f)
	}
	for _, s := range c.LinearModels {
		f, err := model.ParseFormula(s)
		if err != nil {
			return Options{}, err
		}
		opt.LinearModels = append(opt.LinearModels, f)
	}
	return opt, nil
}

// ParseDelimiter maps a flag or config value to a delimiter rune; "" means auto.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case ",", "comma":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";", "semicolon":
		return ';', nil
	default:
		return 0, fmt.Errorf("unsupported delimiter: %q (use ','|';'|'tab')", s)
	}
}

// retained returns the configured columns plus the outcome and any column a
// model uses, in first-seen order. Names differing only in case count once,
// matching how tables resolve column names.
func (o Options) retained() []string {
	seen := map[string]bool{}
	var out []string
	add := func(c string) {
		key := strings.ToLower(strings.TrimSpace(c))
		if key != "" && !seen[key] {
			seen[key] = true
			out = append(out, c)
		}
	}
	add(o.Outcome)
	for _, c := range o.Columns {
		add(c)
	}
	for _, f := range append(append([]model.Formula(nil), o.Models...), o.LinearModels...) {
		for _, c := range f.Columns() {
			add(c)
		}
	}
	return out
}

// Prepare loads and cleans the input file and counts the outcome classes.
func Prepare(opt Options) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), Source: opt.Path}
	logger := log.WithField("run_id", res.RunID)

	raw, err := dataset.Load(opt.Path, opt.Load)
	if err != nil {
		return nil, &StageError{Stage: StageLoad, Err: err}
	}
	res.RawRows = raw.Len()
	logger.WithFields(log.Fields{"stage": StageLoad, "path": opt.Path, "rows": raw.Len(), "columns": len(raw.Columns())}).Info("loaded table")

	cols := opt.retained()
	clean, err := dataset.Clean(raw, cols)
	if err != nil {
		return nil, &StageError{Stage: StageClean, Err: err}
	}
	res.Table = clean
	res.Columns = clean.Columns()
	res.Dropped = raw.Len() - clean.Len()
	logger.WithFields(log.Fields{"stage": StageClean, "kept": clean.Len(), "dropped": res.Dropped}).Info("cleaned table")

	if opt.Outcome != "" {
		b, err := clean.CountBy(opt.Outcome)
		if err != nil {
			return nil, &StageError{Stage: StageBalance, Err: err}
		}
		res.Balance = b
		fields := log.Fields{"stage": StageBalance, "column": b.Column}
		for _, c := range b.Counts {
			fields["n_"+c.Value] = c.Count
		}
		logger.WithFields(fields).Info("outcome balance")
	}
	return res, nil
}

// Run executes the whole pipeline.
func Run(opt Options) (*Result, error) {
	res, err := Prepare(opt)
	if err != nil {
		return nil, err
	}
	logger := log.WithField("run_id", res.RunID)

	for _, f := range opt.LinearModels {
		m, err := model.FitOLS(res.Table, f)
		if err != nil {
			if err := res.fail(opt, f, err); err != nil {
				return nil, err
			}
			continue
		}
		logger.WithFields(log.Fields{"stage": StageFit, "formula": f.String(), "r2": m.RSquared, "out_of_range": m.OutOfRange}).Debug("fitted linear model")
		res.Linear = append(res.Linear, m)
	}
	for _, f := range opt.Models {
		m, err := model.FitLogit(res.Table, f, opt.Fit)
		if err != nil {
			if err := res.fail(opt, f, err); err != nil {
				return nil, err
			}
			continue
		}
		logger.WithFields(log.Fields{"stage": StageFit, "formula": f.String(), "iterations": m.Iterations, "deviance": m.Deviance}).Debug("fitted logit model")
		fit := summary.Describe(m)
		logger.WithFields(log.Fields{"stage": StageSummarize, "formula": f.String(), "mcfadden": fit.McFadden, "lr_p": fit.LR.P}).Debug("summarized model")
		res.Fits = append(res.Fits, fit)
	}
	return res, nil
}

// fail records a model failure in keep-going mode and otherwise returns the
// terminal StageError.
func (r *Result) fail(opt Options, f model.Formula, err error) error {
	var fe *model.FitError
	if opt.KeepGoing && errors.As(err, &fe) {
		log.WithFields(log.Fields{"run_id": r.RunID, "stage": StageFit, "formula": f.String()}).Warnf("model skipped: %v", err)
		r.Failures = append(r.Failures, Failure{Formula: f, Err: err})
		return nil
	}
	return &StageError{Stage: StageFit, Err: err}
}
