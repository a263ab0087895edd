package model

import (
	"fmt"

	"github.com/KaramelBytes/regress-cli/internal/dataset"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// InterceptTerm is the coefficient name of the constant column.
const InterceptTerm = "(Intercept)"

// maxCondition is the largest design-matrix condition number accepted
// before columns are treated as collinear.
const maxCondition = 1e12

// design is the numeric view of a table under a formula: an n×k matrix with
// a leading column of ones, the response vector, and the raw predictor values.
type design struct {
	terms      []string
	x          *mat.Dense
	y          []float64
	predictors map[string][]float64
}

func newDesign(t *dataset.Table, f Formula) (*design, error) {
	if err := t.Require(f.Columns()...); err != nil {
		return nil, err
	}
	y, err := t.Floats(f.Response)
	if err != nil {
		return nil, err
	}
	n, k := len(y), len(f.Predictors)+1
	if n == 0 {
		return nil, fitErr(f, ErrNoObservations)
	}
	if n < k {
		return nil, fitErr(f, fmt.Errorf("%w: %d rows for %d coefficients", ErrNoObservations, n, k))
	}

	d := &design{
		terms:      append([]string{InterceptTerm}, f.Predictors...),
		x:          mat.NewDense(n, k, nil),
		y:          y,
		predictors: make(map[string][]float64, len(f.Predictors)),
	}
	for i := 0; i < n; i++ {
		d.x.Set(i, 0, 1)
	}
	for j, p := range f.Predictors {
		col, err := t.Floats(p)
		if err != nil {
			return nil, err
		}
		if n > 1 && stat.Variance(col, nil) == 0 {
			return nil, fitErr(f, fmt.Errorf("%w: %s", ErrZeroVariance, p))
		}
		d.x.SetCol(j+1, col)
		d.predictors[p] = col
	}
	if k > 1 {
		var svd mat.SVD
		if ok := svd.Factorize(d.x, mat.SVDNone); !ok {
			return nil, fitErr(f, fmt.Errorf("%w: SVD failed", ErrSingular))
		}
		if c := svd.Cond(); c > maxCondition {
			return nil, fitErr(f, fmt.Errorf("%w: condition number %.3g", ErrCollinear, c))
		}
	}
	return d, nil
}

func (d *design) dims() (n, k int) { return d.x.Dims() }

// row returns row i of the design matrix as a vector sharing its storage.
func (d *design) row(i int) *mat.VecDense {
	_, k := d.x.Dims()
	return mat.NewVecDense(k, d.x.RawRowView(i))
}
