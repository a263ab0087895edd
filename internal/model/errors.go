package model

import (
	"errors"
	"fmt"
)

var (
	ErrNoObservations    = errors.New("not enough observations")
	ErrNonBinaryResponse = errors.New("response is not coded 0/1")
	ErrSingleClass       = errors.New("response has a single class")
	ErrZeroVariance      = errors.New("predictor has zero variance")
	ErrCollinear         = errors.New("design matrix columns are collinear")
	ErrSingular          = errors.New("information matrix is singular")
	ErrNotConverged      = errors.New("fit did not converge")
	ErrSeparation        = errors.New("perfect separation: coefficients diverge")
)

// FitError reports why fitting a formula failed. Err is one of the sentinel
// errors above, possibly wrapped with detail.
type FitError struct {
	Formula Formula
	Err     error
}

func (e *FitError) Error() string {
	return fmt.Sprintf("fit %s: %v", e.Formula, e.Err)
}

func (e *FitError) Unwrap() error { return e.Err }

func fitErr(f Formula, err error) *FitError { return &FitError{Formula: f, Err: err} }
