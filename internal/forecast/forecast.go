// Package forecast projects a daily series forward.
package forecast

import (
	"errors"
	"time"

	"github.com/KaramelBytes/airwater-cli/internal/timeseries"
)

// DefaultHorizon is the number of days projected when no horizon is configured.
const DefaultHorizon = 90

var (
	// ErrInsufficientData means the series is too short for the model order.
	ErrInsufficientData = errors.New("insufficient data for forecast")
	// ErrDegenerate means the model could not be fitted, e.g. a constant series.
	ErrDegenerate = errors.New("degenerate series: model cannot be fitted")
	// ErrUnstable means the fitted model produced non-finite values.
	ErrUnstable = errors.New("forecast diverged to non-finite values")
	// ErrUnsupportedOrder means the requested order has moving-average terms.
	ErrUnsupportedOrder = errors.New("moving-average terms are not supported")
)

// Point is a single projected day.
type Point struct {
	Time  time.Time `json:"time" yaml:"time"`
	Value float64   `json:"value" yaml:"value"`
	Lower float64   `json:"lower" yaml:"lower"`
	Upper float64   `json:"upper" yaml:"upper"`
}

// Forecast is the output of a Forecaster.
type Forecast struct {
	Model        string    `json:"model" yaml:"model"`
	Horizon      int       `json:"horizon" yaml:"horizon"`
	Coefficients []float64 `json:"coefficients" yaml:"coefficients"`
	Intercept    float64   `json:"intercept" yaml:"intercept"`
	Sigma2       float64   `json:"sigma2" yaml:"sigma2"`
	Points       []Point   `json:"points" yaml:"points"`
}

// Forecaster projects a gap-free daily series horizon days past its last day.
type Forecaster interface {
	Forecast(s *timeseries.Series, horizon int) (*Forecast, error)
}
