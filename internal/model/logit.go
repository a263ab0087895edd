package model

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/regress-cli/internal/dataset"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// FitOptions controls the iterative fit.
type FitOptions struct {
	// MaxIter bounds IRLS iterations.
	MaxIter int
	// Tolerance on the relative change in deviance between iterations.
	Tolerance float64
}

// DefaultFitOptions matches the usual GLM defaults.
func DefaultFitOptions() FitOptions {
	return FitOptions{MaxIter: 25, Tolerance: 1e-8}
}

// boundaryEps clamps probabilities when forming IRLS weights.
const boundaryEps = 10 * 2.220446049250313e-16

// separationTol is the relative slack allowed when comparing linear
// predictors across classes in separates.
const separationTol = 1e-8

// separationEps bounds how close a final fitted probability may sit to 0 or 1.
// Rows driven past it belong to a separated subset whose coefficient diverges.
const separationEps = 1e-6

// Coefficient is one estimated term of a fitted model.
type Coefficient struct {
	Term     string
	Estimate float64
	StdErr   float64
	// Stat is the z statistic for logit fits and t for linear fits.
	Stat float64
	P    float64
	// Odds ratio and its 95% interval; logit fits only.
	OddsRatio float64
	ORLow     float64
	ORHigh    float64
}

// Logit is a binomial GLM with logit link fitted by maximum likelihood.
type Logit struct {
	Formula      Formula
	Coefficients []Coefficient
	Deviance     float64
	NullDeviance float64
	LogLik       float64
	AIC          float64
	Iterations   int
	N            int
	// Eta and Fitted hold the linear predictor and probability per input row.
	Eta    []float64
	Fitted []float64
	// Response and Predictors hold the data the model was fitted on.
	Response   []float64
	Predictors map[string][]float64
}

// FitLogit fits a logistic regression of f.Response on f.Predictors by
// iteratively reweighted least squares.
func FitLogit(t *dataset.Table, f Formula, opt FitOptions) (*Logit, error) {
	if opt.MaxIter <= 0 {
		opt.MaxIter = DefaultFitOptions().MaxIter
	}
	if opt.Tolerance <= 0 {
		opt.Tolerance = DefaultFitOptions().Tolerance
	}
	d, err := newDesign(t, f)
	if err != nil {
		return nil, err
	}
	y := d.y
	var ones int
	for i, v := range y {
		if v != 0 && v != 1 {
			return nil, fitErr(f, fmt.Errorf("%w: row %d has %g", ErrNonBinaryResponse, i+1, v))
		}
		ones += int(v)
	}
	if ones == 0 || ones == len(y) {
		return nil, fitErr(f, ErrSingleClass)
	}

	n, k := d.dims()
	eta := make([]float64, n)
	mu := make([]float64, n)
	for i := range y {
		mu[i] = (y[i] + 0.5) / 2
		eta[i] = math.Log(mu[i] / (1 - mu[i]))
	}
	beta := mat.NewVecDense(k, nil)
	devOld := binomialDeviance(y, eta)
	dev := devOld
	converged := false
	iter := 0
	for iter < opt.MaxIter {
		iter++
		g, rhs := weightedNormalEquations(d, y, eta, mu)
		var chol mat.Cholesky
		if ok := chol.Factorize(g); !ok {
			// The starting eta is built from y, so it orders the classes trivially.
			if dev < 1e-6 || (iter > 1 && (separates(y, eta) || nearBoundary(mu) >= 0)) {
				return nil, fitErr(f, ErrSeparation)
			}
			return nil, fitErr(f, ErrSingular)
		}
		if err := chol.SolveVecTo(beta, rhs); err != nil {
			return nil, fitErr(f, fmt.Errorf("%w: %v", ErrSingular, err))
		}
		var lp mat.VecDense
		lp.MulVec(d.x, beta)
		for i := range eta {
			eta[i] = lp.AtVec(i)
			mu[i] = sigmoid(eta[i])
		}
		dev = binomialDeviance(y, eta)
		if math.IsNaN(dev) || math.IsInf(dev, 0) {
			return nil, fitErr(f, fmt.Errorf("%w: deviance is %v", ErrNotConverged, dev))
		}
		if math.Abs(dev-devOld)/(math.Abs(dev)+0.1) < opt.Tolerance {
			converged = true
			break
		}
		devOld = dev
	}
	if dev < 1e-6 || separates(y, eta) {
		return nil, fitErr(f, ErrSeparation)
	}
	if i := nearBoundary(mu); i >= 0 {
		return nil, fitErr(f, fmt.Errorf("%w: fitted probability %g at row %d", ErrSeparation, mu[i], i+1))
	}
	if !converged {
		return nil, fitErr(f, fmt.Errorf("%w after %d iterations", ErrNotConverged, iter))
	}

	// Covariance of the estimates is the inverse information at the optimum.
	g, _ := weightedNormalEquations(d, y, eta, mu)
	var chol mat.Cholesky
	if ok := chol.Factorize(g); !ok {
		return nil, fitErr(f, ErrSingular)
	}
	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		return nil, fitErr(f, fmt.Errorf("%w: %v", ErrSingular, err))
	}

	zcrit := distuv.UnitNormal.Quantile(0.975)
	coefs := make([]Coefficient, k)
	for j := range coefs {
		b := beta.AtVec(j)
		se := math.Sqrt(cov.At(j, j))
		z := b / se
		coefs[j] = Coefficient{
			Term:      d.terms[j],
			Estimate:  b,
			StdErr:    se,
			Stat:      z,
			P:         2 * distuv.UnitNormal.Survival(math.Abs(z)),
			OddsRatio: math.Exp(b),
			ORLow:     math.Exp(b - zcrit*se),
			ORHigh:    math.Exp(b + zcrit*se),
		}
	}

	fitted := make([]float64, n)
	copy(fitted, mu)
	return &Logit{
		Formula:      f,
		Coefficients: coefs,
		Deviance:     dev,
		NullDeviance: nullDeviance(y),
		LogLik:       -dev / 2,
		AIC:          dev + 2*float64(k),
		Iterations:   iter,
		N:            n,
		Eta:          append([]float64(nil), eta...),
		Fitted:       fitted,
		Response:     y,
		Predictors:   d.predictors,
	}, nil
}

// weightedNormalEquations builds XᵀWX and XᵀWz for the current iterate.
func weightedNormalEquations(d *design, y, eta, mu []float64) (*mat.SymDense, *mat.VecDense) {
	_, k := d.dims()
	g := mat.NewSymDense(k, nil)
	rhs := mat.NewVecDense(k, nil)
	for i := range y {
		m := math.Min(math.Max(mu[i], boundaryEps), 1-boundaryEps)
		w := m * (1 - m)
		z := eta[i] + (y[i]-m)/w
		xi := d.row(i)
		g.SymRankOne(g, w, xi)
		rhs.AddScaledVec(rhs, w*z, xi)
	}
	return g, rhs
}

// separates reports whether the linear predictor orders the classes without
// overlap: every y=0 row at or below every y=1 row while eta is not constant.
// Such an eta is a (quasi-)separating direction, so no finite MLE exists.
func separates(y, eta []float64) bool {
	max0, min1 := math.Inf(-1), math.Inf(1)
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, v := range eta {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
		if y[i] == 0 {
			max0 = math.Max(max0, v)
		} else {
			min1 = math.Min(min1, v)
		}
	}
	scale := math.Max(1, math.Max(math.Abs(lo), math.Abs(hi)))
	if hi-lo <= separationTol*scale {
		return false
	}
	return max0 <= min1+separationTol*scale
}

// nearBoundary returns the first row whose probability is within separationEps
// of 0 or 1, or -1.
func nearBoundary(mu []float64) int {
	for i, m := range mu {
		if m < separationEps || m > 1-separationEps {
			return i
		}
	}
	return -1
}

// Coefficient returns the named term, if present.
func (m *Logit) Coefficient(term string) (Coefficient, bool) {
	for _, c := range m.Coefficients {
		if c.Term == term {
			return c, true
		}
	}
	return Coefficient{}, false
}

// LinearPredictor returns η = β₀ + Σ βᵢxᵢ at the given predictor values.
func (m *Logit) LinearPredictor(values map[string]float64) (float64, error) {
	eta := m.Coefficients[0].Estimate
	for _, c := range m.Coefficients[1:] {
		x, ok := values[c.Term]
		if !ok {
			return 0, fmt.Errorf("predict %s: no value for %q", m.Formula, c.Term)
		}
		eta += c.Estimate * x
	}
	return eta, nil
}

// Predict returns the fitted probability at the given predictor values.
func (m *Logit) Predict(values map[string]float64) (float64, error) {
	eta, err := m.LinearPredictor(values)
	if err != nil {
		return 0, err
	}
	return sigmoid(eta), nil
}

// MeanResponse is the observed share of positive outcomes.
func (m *Logit) MeanResponse() float64 { return stat.Mean(m.Response, nil) }

func sigmoid(eta float64) float64 {
	if eta >= 0 {
		return 1 / (1 + math.Exp(-eta))
	}
	e := math.Exp(eta)
	return e / (1 + e)
}

// softplus computes log(1+e^x) without overflow.
func softplus(x float64) float64 {
	return math.Max(x, 0) + math.Log1p(math.Exp(-math.Abs(x)))
}

// binomialDeviance is −2 × log-likelihood of 0/1 data under linear predictor eta.
func binomialDeviance(y, eta []float64) float64 {
	var s float64
	for i := range y {
		// −log p = softplus(−η); −log(1−p) = softplus(η)
		s += y[i]*softplus(-eta[i]) + (1-y[i])*softplus(eta[i])
	}
	return 2 * s
}

func nullDeviance(y []float64) float64 {
	p := stat.Mean(y, nil)
	var s float64
	for _, v := range y {
		s += v*math.Log(p) + (1-v)*math.Log(1-p)
	}
	return -2 * s
}
