package forecast

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// MinPoints is the smallest history the solver accepts. Callers apply their
// own, usually much larger, threshold.
const MinPoints = 3

// initialNoiseVar seeds the first solve, in scaled units.
const initialNoiseVar = 0.01

// minNoiseVar floors the second-pass noise estimate so an exactly
// representable history still gets non-trivial penalties.
const minNoiseVar = initialNoiseVar * 1e-4

// Prediction is one forecast day.
type Prediction struct {
	DS     time.Time
	Yhat   float64
	Lower  float64
	Upper  float64
	Trend  float64
	Weekly float64
	Yearly float64
}

// Model is an additive seasonal forecaster. The zero value is not usable; call New.
type Model struct {
	opts Options

	design  *design
	beta    []float64
	yScale  float64
	sigma   float64 // residual std dev in original units
	z       float64
	history []time.Time
	n       int
}

// New returns an unfitted model.
func New(opts Options) *Model {
	return &Model{opts: opts.withDefaults()}
}

// Fit estimates the model from a daily history. Dates need not be sorted.
func (m *Model) Fit(ds []time.Time, y []float64) error {
	if len(ds) != len(y) {
		return fmt.Errorf("%w: %d dates, %d values", ErrLengthMismatch, len(ds), len(y))
	}
	if len(ds) < MinPoints {
		return fmt.Errorf("%w: have %d, need %d", ErrTooFewPoints, len(ds), MinPoints)
	}

	idx := make([]int, len(ds))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return ds[idx[a]].Before(ds[idx[b]]) })

	dates := make([]time.Time, len(ds))
	vals := make([]float64, len(ds))
	for i, j := range idx {
		dates[i] = ds[j]
		vals[i] = y[j]
	}

	start, end := dates[0], dates[len(dates)-1]
	tScale := daysBetween(start, end)
	if tScale <= 0 {
		tScale = 1
	}

	m.yScale = floats.Max(absAll(vals))
	if m.yScale == 0 {
		m.yScale = 1
	}
	scaled := make([]float64, len(vals))
	floats.ScaleTo(scaled, 1/m.yScale, vals)

	sortedT := make([]float64, len(dates))
	for i, d := range dates {
		sortedT[i] = daysBetween(start, d) / tScale
	}
	cps := placeChangepoints(sortedT, m.opts.Changepoints, m.opts.ChangepointRange)
	m.design = newDesign(start, tScale, cps, m.opts)

	X := m.matrix(dates)

	beta, err := solveRidge(X, scaled, m.design, initialNoiseVar)
	if err != nil {
		return err
	}
	resid := residuals(X, scaled, beta)
	noiseVar := max(floats.Dot(resid, resid)/float64(len(resid)), minNoiseVar)
	// Second pass with penalties matched to the observed noise level. The
	// first-pass coefficients stand if it fails.
	if refit, err := solveRidge(X, scaled, m.design, noiseVar); err == nil {
		beta = refit
		resid = residuals(X, scaled, beta)
	}

	m.beta = beta
	m.sigma = math.Sqrt(floats.Dot(resid, resid)/float64(len(resid))) * m.yScale
	m.z = distuv.UnitNormal.Quantile(0.5 + m.opts.IntervalWidth/2)
	m.history = uniqueSortedDays(dates)
	m.n = len(dates)
	return nil
}

// Fitted reports whether Fit has succeeded.
func (m *Model) Fitted() bool { return m.beta != nil }

// Sigma returns the in-sample residual standard deviation.
func (m *Model) Sigma() float64 { return m.sigma }

// History returns the unique fitted dates in ascending order.
func (m *Model) History() []time.Time { return m.history }

// MakeFuture returns the unique history dates followed by periods consecutive
// days after the last one.
func (m *Model) MakeFuture(periods int) []time.Time {
	if len(m.history) == 0 {
		return nil
	}
	out := make([]time.Time, 0, len(m.history)+periods)
	out = append(out, m.history...)
	last := m.history[len(m.history)-1]
	for i := 1; i <= periods; i++ {
		out = append(out, last.AddDate(0, 0, i))
	}
	return out
}

// Predict evaluates the model at each date, preserving input order.
func (m *Model) Predict(ds []time.Time) ([]Prediction, error) {
	if !m.Fitted() {
		return nil, ErrNotFitted
	}

	last := m.history[len(m.history)-1]
	row := make([]float64, m.design.width())
	out := make([]Prediction, len(ds))

	for i, d := range ds {
		m.design.row(d, row)
		var trend, weekly, yearly float64
		for c, v := range row {
			contrib := v * m.beta[c] * m.yScale
			switch m.design.terms[c] {
			case termWeekly:
				weekly += contrib
			case termYearly:
				yearly += contrib
			default:
				trend += contrib
			}
		}

		yhat := trend + weekly + yearly
		half := m.z * m.sigma * m.growth(daysBetween(last, d))
		out[i] = Prediction{
			DS:     d,
			Yhat:   yhat,
			Lower:  yhat - half,
			Upper:  yhat + half,
			Trend:  trend,
			Weekly: weekly,
			Yearly: yearly,
		}
	}
	return out, nil
}

// growth widens the interval with distance past the history end.
func (m *Model) growth(daysAhead float64) float64 {
	if daysAhead <= 0 {
		return 1
	}
	return math.Sqrt(1 + daysAhead/float64(m.n))
}

// InSampleMAE is the mean absolute residual on the fitted history.
func (m *Model) InSampleMAE(ds []time.Time, y []float64) (float64, error) {
	preds, err := m.Predict(ds)
	if err != nil {
		return 0, err
	}
	abs := make([]float64, len(preds))
	for i, p := range preds {
		abs[i] = math.Abs(y[i] - p.Yhat)
	}
	return stat.Mean(abs, nil), nil
}

func (m *Model) matrix(dates []time.Time) *mat.Dense {
	p := m.design.width()
	X := mat.NewDense(len(dates), p, nil)
	row := make([]float64, p)
	for i, d := range dates {
		m.design.row(d, row)
		X.SetRow(i, row)
	}
	return X
}

// solveRidge solves (X'X + L) b = X'y with L from the design's priors.
func solveRidge(X *mat.Dense, y []float64, d *design, noiseVar float64) ([]float64, error) {
	_, p := X.Dims()

	var xtx mat.Dense
	xtx.Mul(X.T(), X)
	sym := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			sym.SetSym(i, j, xtx.At(i, j))
		}
		sym.SetSym(i, i, sym.At(i, i)+d.penalty(i, noiseVar))
	}

	var xty mat.VecDense
	xty.MulVec(X.T(), mat.NewVecDense(len(y), y))

	var b mat.VecDense
	var chol mat.Cholesky
	if chol.Factorize(sym) {
		if err := chol.SolveVecTo(&b, &xty); usableSolution(err, &b) {
			return b.RawVector().Data, nil
		}
	}
	b.Reset()
	if err := b.SolveVec(sym, &xty); !usableSolution(err, &b) {
		return nil, fmt.Errorf("solving normal equations: %w", err)
	}
	return b.RawVector().Data, nil
}

// usableSolution accepts a solve that succeeded or only warned about
// conditioning, as long as every coefficient is finite.
func usableSolution(err error, b *mat.VecDense) bool {
	if err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return false
		}
	}
	if b.IsEmpty() {
		return false
	}
	for _, v := range b.RawVector().Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func residuals(X *mat.Dense, y, beta []float64) []float64 {
	var fitted mat.VecDense
	fitted.MulVec(X, mat.NewVecDense(len(beta), beta))
	out := make([]float64, len(y))
	floats.SubTo(out, y, fitted.RawVector().Data)
	return out
}

func absAll(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = math.Abs(x)
	}
	return out
}
