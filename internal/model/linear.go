package model

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/regress-cli/internal/dataset"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Linear is an ordinary least squares fit. On a 0/1 response it is the
// linear probability model, whose fitted values can leave [0, 1].
type Linear struct {
	Formula        Formula
	Coefficients   []Coefficient
	RSquared       float64
	AdjRSquared    float64
	ResidualStdErr float64
	DF             int
	N              int
	Fitted         []float64
	// OutOfRange counts fitted values below 0 or above 1.
	OutOfRange int
	Response   []float64
	Predictors map[string][]float64
}

// FitOLS fits f by least squares using a QR decomposition of the design matrix.
func FitOLS(t *dataset.Table, f Formula) (*Linear, error) {
	d, err := newDesign(t, f)
	if err != nil {
		return nil, err
	}
	n, k := d.dims()
	if n <= k {
		return nil, fitErr(f, fmt.Errorf("%w: %d rows for %d coefficients", ErrNoObservations, n, k))
	}
	ybar := stat.Mean(d.y, nil)
	var tss float64
	for _, v := range d.y {
		tss += (v - ybar) * (v - ybar)
	}
	if tss == 0 {
		return nil, fitErr(f, fmt.Errorf("%w: %s", ErrZeroVariance, f.Response))
	}

	var qr mat.QR
	qr.Factorize(d.x)
	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, mat.NewDense(n, 1, d.y)); err != nil {
		return nil, fitErr(f, fmt.Errorf("%w: %v", ErrSingular, err))
	}

	var yhat mat.Dense
	yhat.Mul(d.x, &beta)
	fitted := make([]float64, n)
	var rss float64
	out := 0
	for i := range fitted {
		fitted[i] = yhat.At(i, 0)
		r := d.y[i] - fitted[i]
		rss += r * r
		if fitted[i] < 0 || fitted[i] > 1 {
			out++
		}
	}
	df := n - k
	sigma2 := rss / float64(df)

	var xtx mat.SymDense
	xtx.SymOuterK(1, d.x.T())
	var chol mat.Cholesky
	if ok := chol.Factorize(&xtx); !ok {
		return nil, fitErr(f, ErrSingular)
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, fitErr(f, fmt.Errorf("%w: %v", ErrSingular, err))
	}

	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}
	coefs := make([]Coefficient, k)
	for j := range coefs {
		b := beta.At(j, 0)
		se := math.Sqrt(sigma2 * inv.At(j, j))
		tv := b / se
		coefs[j] = Coefficient{
			Term:     d.terms[j],
			Estimate: b,
			StdErr:   se,
			Stat:     tv,
			P:        2 * tdist.Survival(math.Abs(tv)),
		}
	}
	r2 := 1 - rss/tss
	return &Linear{
		Formula:        f,
		Coefficients:   coefs,
		RSquared:       r2,
		AdjRSquared:    1 - (1-r2)*float64(n-1)/float64(df),
		ResidualStdErr: math.Sqrt(sigma2),
		DF:             df,
		N:              n,
		Fitted:         fitted,
		OutOfRange:     out,
		Response:       d.y,
		Predictors:     d.predictors,
	}, nil
}

// Predict returns the fitted value at the given predictor values.
func (m *Linear) Predict(values map[string]float64) (float64, error) {
	v := m.Coefficients[0].Estimate
	for _, c := range m.Coefficients[1:] {
		x, ok := values[c.Term]
		if !ok {
			return 0, fmt.Errorf("predict %s: no value for %q", m.Formula, c.Term)
		}
		v += c.Estimate * x
	}
	return v, nil
}
