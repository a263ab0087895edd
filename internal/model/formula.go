package model

import (
	"fmt"
	"strings"
)

// Formula names the response column and the predictor columns of a fit.
// A formula without predictors is the intercept-only (null) model.
type Formula struct {
	Response   string
	Predictors []string
}

// ParseFormula parses R-style text such as "ticket ~ mphpct + age".
// "ticket ~ 1" and "ticket ~" both describe the null model.
func ParseFormula(s string) (Formula, error) {
	lhs, rhs, ok := strings.Cut(s, "~")
	if !ok {
		return Formula{}, fmt.Errorf("formula %q: missing '~'", s)
	}
	f := Formula{Response: strings.TrimSpace(lhs)}
	if f.Response == "" {
		return Formula{}, fmt.Errorf("formula %q: missing response", s)
	}
	seen := map[string]bool{}
	for _, term := range strings.Split(rhs, "+") {
		term = strings.TrimSpace(term)
		switch {
		case term == "" || term == "1":
			continue
		case strings.ContainsAny(term, "~*:()^-"):
			return Formula{}, fmt.Errorf("formula %q: unsupported term %q", s, term)
		case term == f.Response:
			return Formula{}, fmt.Errorf("formula %q: response %q used as predictor", s, term)
		case seen[term]:
			return Formula{}, fmt.Errorf("formula %q: duplicate term %q", s, term)
		}
		seen[term] = true
		f.Predictors = append(f.Predictors, term)
	}
	return f, nil
}

// MustParseFormula is ParseFormula for literals known to be valid.
func MustParseFormula(s string) Formula {
	f, err := ParseFormula(s)
	if err != nil {
		panic(err)
	}
	return f
}

// Columns returns the response followed by the predictors.
func (f Formula) Columns() []string {
	return append([]string{f.Response}, f.Predictors...)
}

// IsNull reports whether the formula has no predictors.
func (f Formula) IsNull() bool { return len(f.Predictors) == 0 }

func (f Formula) String() string {
	if f.IsNull() {
		return f.Response + " ~ 1"
	}
	return f.Response + " ~ " + strings.Join(f.Predictors, " + ")
}
