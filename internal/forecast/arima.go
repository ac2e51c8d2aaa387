package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/KaramelBytes/airwater-cli/internal/timeseries"
)

// z-score of a two-sided 95% interval.
const z95 = 1.959963984540054

// maxCond bounds the condition number of the normal equations.
const maxCond = 1e12

// Order is an ARIMA (p, d, q) order.
type Order struct {
	P int `json:"p" yaml:"p"`
	D int `json:"d" yaml:"d"`
	Q int `json:"q" yaml:"q"`
}

func (o Order) String() string {
	return fmt.Sprintf("ARIMA(%d,%d,%d)", o.P, o.D, o.Q)
}

// ARIMA fits an autoregressive model on the d-times differenced series by
// conditional least squares and integrates the projection back.
type ARIMA struct {
	Order Order
}

// NewARIMA returns a model of the given order.
func NewARIMA(p, d, q int) *ARIMA {
	return &ARIMA{Order: Order{P: p, D: d, Q: q}}
}

// MinPoints is the shortest series the model accepts.
func (m *ARIMA) MinPoints() int {
	return m.Order.P + m.Order.D + m.Order.Q + 10
}

// Forecast implements Forecaster.
func (m *ARIMA) Forecast(s *timeseries.Series, horizon int) (*Forecast, error) {
	o := m.Order
	if o.Q > 0 {
		return nil, fmt.Errorf("%s: %w", o, ErrUnsupportedOrder)
	}
	if o.P < 0 || o.D < 0 {
		return nil, fmt.Errorf("invalid order %s", o)
	}
	if horizon < 1 {
		return nil, fmt.Errorf("horizon must be at least 1, got %d", horizon)
	}
	if s.Len() < m.MinPoints() {
		return nil, fmt.Errorf("%d points, %s needs %d: %w", s.Len(), o, m.MinPoints(), ErrInsufficientData)
	}

	w := timeseries.Diff(s.Values, o.D)
	phi, c, sigma2, err := fitAR(w, o.P, o.D == 0)
	if err != nil {
		return nil, err
	}

	// recursion in the differenced space
	hist := append([]float64(nil), w...)
	lags := make([]float64, o.P)
	for h := 0; h < horizon; h++ {
		for i := 0; i < o.P; i++ {
			lags[i] = hist[len(hist)-1-i]
		}
		hist = append(hist, c+floats.Dot(phi, lags))
	}
	proj := hist[len(w):]

	for level := o.D - 1; level >= 0; level-- {
		base := timeseries.Diff(s.Values, level)
		prev := base[len(base)-1]
		for i := range proj {
			prev += proj[i]
			proj[i] = prev
		}
	}

	psi := psiWeights(phi, o.D, horizon)
	last := timeseries.Day(s.Last())
	out := &Forecast{
		Model:        o.String(),
		Horizon:      horizon,
		Coefficients: phi,
		Intercept:    c,
		Sigma2:       sigma2,
		Points:       make([]Point, horizon),
	}
	var cum float64
	for h := 0; h < horizon; h++ {
		cum += psi[h] * psi[h]
		half := z95 * math.Sqrt(sigma2*cum)
		v := proj[h]
		if !finite(v) || !finite(half) {
			return nil, fmt.Errorf("step %d: %w", h+1, ErrUnstable)
		}
		out.Points[h] = Point{
			Time:  last.AddDate(0, 0, h+1),
			Value: v,
			Lower: v - half,
			Upper: v + half,
		}
	}
	return out, nil
}

// fitAR solves the AR(p) normal equations for w. It returns the lag
// coefficients, the intercept and the residual variance.
func fitAR(w []float64, p int, intercept bool) ([]float64, float64, float64, error) {
	k := p
	if intercept {
		k++
	}
	rows := len(w) - p
	if k == 0 {
		// white noise around zero
		return nil, 0, meanSquare(w), nil
	}
	if rows <= k {
		return nil, 0, 0, fmt.Errorf("%d usable rows for %d parameters: %w", rows, k, ErrInsufficientData)
	}

	x := mat.NewDense(rows, k, nil)
	y := mat.NewVecDense(rows, nil)
	for t := 0; t < rows; t++ {
		for i := 0; i < p; i++ {
			x.Set(t, i, w[p+t-1-i])
		}
		if intercept {
			x.Set(t, p, 1)
		}
		y.SetVec(t, w[p+t])
	}

	var xtx mat.SymDense
	xtx.SymOuterK(1, x.T())
	var xty mat.VecDense
	xty.MulVec(x.T(), y)

	var chol mat.Cholesky
	if ok := chol.Factorize(&xtx); !ok || chol.Cond() > maxCond {
		return nil, 0, 0, ErrDegenerate
	}
	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &xty); err != nil {
		return nil, 0, 0, fmt.Errorf("solve normal equations: %v: %w", err, ErrDegenerate)
	}

	var fitted, resid mat.VecDense
	fitted.MulVec(x, &beta)
	resid.SubVec(y, &fitted)
	dof := rows - k
	sigma2 := mat.Dot(&resid, &resid) / float64(dof)

	coef := make([]float64, p)
	for i := range coef {
		coef[i] = beta.AtVec(i)
	}
	var c float64
	if intercept {
		c = beta.AtVec(p)
	}
	for _, v := range coef {
		if !finite(v) {
			return nil, 0, 0, ErrUnstable
		}
	}
	return coef, c, sigma2, nil
}

// psiWeights returns the first n MA(infinity) weights of phi(B)(1-B)^d.
func psiWeights(phi []float64, d, n int) []float64 {
	poly := make([]float64, len(phi)+1)
	poly[0] = 1
	for i, v := range phi {
		poly[i+1] = -v
	}
	for k := 0; k < d; k++ {
		next := make([]float64, len(poly)+1)
		for i, v := range poly {
			next[i] += v
			next[i+1] -= v
		}
		poly = next
	}
	psi := make([]float64, n)
	psi[0] = 1
	for j := 1; j < n; j++ {
		for i := 1; i < len(poly) && i <= j; i++ {
			psi[j] -= poly[i] * psi[j-i]
		}
	}
	return psi
}

func meanSquare(w []float64) float64 {
	if len(w) == 0 {
		return 0
	}
	return floats.Dot(w, w) / float64(len(w))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
