package summary

import (
	"math"
	"strconv"
	"testing"

	"github.com/KaramelBytes/regress-cli/internal/dataset"
	"github.com/KaramelBytes/regress-cli/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stops(t *testing.T) *dataset.Table {
	t.Helper()
	rows := make([][]string, 0, 400)
	for i := 0; i < 400; i++ {
		pct := float64(i%40) + 0.5
		ticket := "0"
		// ticket probability rises with pct; deterministic interleaving
		if float64(i%10) < pct/4 {
			ticket = "1"
		}
		rows = append(rows, []string{ticket, strconv.FormatFloat(pct, 'f', 1, 64)})
	}
	tbl, err := dataset.New([]string{"ticket", "mphpct"}, rows)
	require.NoError(t, err)
	return tbl
}

func TestOddsConversions(t *testing.T) {
	for _, p := range []float64{0.01, 0.25, 0.5, 0.833, 0.99} {
		o := Odds(p)
		assert.InDelta(t, p, ProbFromOdds(o), 1e-12)
		assert.InDelta(t, math.Log(o), Logit(p), 1e-12)
		assert.InDelta(t, p, Sigmoid(Logit(p)), 1e-12)
	}
	assert.Equal(t, 1.0, Odds(0.5))
	assert.InDelta(t, 0.0, Sigmoid(-800), 1e-300)
	assert.Equal(t, 1.0, Sigmoid(800))
}

func TestMcFadden_NullModelIsZero(t *testing.T) {
	m, err := model.FitLogit(stops(t), model.MustParseFormula("ticket ~ 1"), model.DefaultFitOptions())
	require.NoError(t, err)
	assert.InDelta(t, 0, McFadden(m), 1e-9)
	// The intercept-only fit itself must reach the null deviance.
	assert.InDelta(t, m.NullDeviance, m.Deviance, 1e-6)
	assert.InDelta(t, 0, 1-m.Deviance/m.NullDeviance, 1e-9)

	lr := LikelihoodRatio(m)
	assert.Equal(t, 0, lr.DF)
	assert.Equal(t, 1.0, lr.P)
}

func TestDescribe_SinglePredictor(t *testing.T) {
	m, err := model.FitLogit(stops(t), model.MustParseFormula("ticket ~ mphpct"), model.DefaultFitOptions())
	require.NoError(t, err)
	fit := Describe(m)

	assert.Greater(t, fit.McFadden, 0.0)
	assert.Less(t, fit.McFadden, 1.0)
	assert.InDelta(t, 1-m.Deviance/m.NullDeviance, fit.McFadden, 1e-12)
	assert.Equal(t, 1, fit.LR.DF)
	assert.InDelta(t, m.NullDeviance-m.Deviance, fit.LR.Statistic, 1e-9)
	assert.Less(t, fit.LR.P, 0.001)
	assert.InDelta(t, math.Exp(m.Coefficients[1].Estimate), fit.ExpCoefficients["mphpct"], 1e-12)
	assert.InDelta(t, math.Exp(m.Coefficients[0].Estimate), fit.BaselineOdds, 1e-12)

	p, odds, err := OddsAt(m, map[string]float64{"mphpct": 25})
	require.NoError(t, err)
	assert.InDelta(t, Odds(p), odds, 1e-9)
	assert.InDelta(t, p, ProbFromOdds(odds), 1e-12)
}

func TestOutcomeOdds(t *testing.T) {
	b := dataset.Balance{Column: "ticket", Total: 3000, Counts: []dataset.ValueCount{{Value: "0", Count: 1400}, {Value: "1", Count: 1600}}}
	odds, logOdds, ok := OutcomeOdds(b)
	require.True(t, ok)
	assert.InDelta(t, 1600.0/1400, odds, 1e-12)
	assert.InDelta(t, math.Log(1600.0/1400), logOdds, 1e-12)

	_, _, ok = OutcomeOdds(dataset.Balance{Counts: []dataset.ValueCount{{Value: "1", Count: 3}}, Total: 3})
	assert.False(t, ok)
}
