// Package summary derives odds, log-odds and goodness-of-fit statistics from
// fitted models. Nothing here refits a model.
package summary

import (
	"math"

	"github.com/KaramelBytes/regress-cli/internal/dataset"
	"github.com/KaramelBytes/regress-cli/internal/model"
	"gonum.org/v1/gonum/stat/distuv"
)

// Odds converts a probability to odds p/(1−p).
func Odds(p float64) float64 { return p / (1 - p) }

// ProbFromOdds converts odds back to a probability o/(1+o).
func ProbFromOdds(o float64) float64 { return o / (1 + o) }

// Logit is the log-odds log(p/(1−p)).
func Logit(p float64) float64 { return math.Log(p / (1 - p)) }

// Sigmoid is the inverse logit 1/(1+e^−η).
func Sigmoid(eta float64) float64 {
	if eta >= 0 {
		return 1 / (1 + math.Exp(-eta))
	}
	e := math.Exp(eta)
	return e / (1 + e)
}

// ExpCoefficients maps each term to e^β, its multiplicative effect on the odds
// per unit increase.
func ExpCoefficients(m *model.Logit) map[string]float64 {
	out := make(map[string]float64, len(m.Coefficients))
	for _, c := range m.Coefficients {
		out[c.Term] = math.Exp(c.Estimate)
	}
	return out
}

// McFadden is the pseudo-R² 1 − ll/ll_null, with ll = deviance / −2.
func McFadden(m *model.Logit) float64 {
	ll := m.Deviance / -2
	llNull := m.NullDeviance / -2
	if llNull == 0 || m.Formula.IsNull() {
		return 0
	}
	return 1 - ll/llNull
}

// LRTest is the likelihood-ratio test of a model against the null model.
type LRTest struct {
	Statistic float64
	DF        int
	P         float64
}

// LikelihoodRatio computes 2(ll − ll_null) and its chi-squared p-value with
// one degree of freedom per non-intercept coefficient.
func LikelihoodRatio(m *model.Logit) LRTest {
	ll := m.Deviance / -2
	llNull := m.NullDeviance / -2
	t := LRTest{Statistic: 2 * (ll - llNull), DF: len(m.Coefficients) - 1}
	if t.DF <= 0 {
		t.P = 1
		return t
	}
	stat := math.Max(t.Statistic, 0)
	t.P = distuv.ChiSquared{K: float64(t.DF)}.Survival(stat)
	return t
}

// OutcomeOdds returns the odds and log-odds of the "1" class of a binary
// balance. ok is false when either class is empty.
func OutcomeOdds(b dataset.Balance) (odds, logOdds float64, ok bool) {
	pos, neg := b.Count("1"), b.Count("0")
	if pos == 0 || neg == 0 {
		return 0, 0, false
	}
	odds = float64(pos) / float64(neg)
	return odds, math.Log(odds), true
}

// Fit bundles the derived statistics of one logit model.
type Fit struct {
	Model           *model.Logit
	McFadden        float64
	LR              LRTest
	ExpCoefficients map[string]float64
	// BaselineOdds is e^β₀, the odds when every predictor is zero.
	BaselineOdds float64
}

// Describe computes every derived statistic of m.
func Describe(m *model.Logit) Fit {
	return Fit{
		Model:           m,
		McFadden:        McFadden(m),
		LR:              LikelihoodRatio(m),
		ExpCoefficients: ExpCoefficients(m),
		BaselineOdds:    math.Exp(m.Coefficients[0].Estimate),
	}
}

// OddsAt returns the fitted probability and odds at the given predictor values.
func OddsAt(m *model.Logit, values map[string]float64) (p, odds float64, err error) {
	eta, err := m.LinearPredictor(values)
	if err != nil {
		return 0, 0, err
	}
	p = Sigmoid(eta)
	return p, math.Exp(eta), nil
}
