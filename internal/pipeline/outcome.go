package pipeline

import (
	"fmt"
	"time"

	"github.com/KaramelBytes/airwater-cli/internal/anomaly"
	"github.com/KaramelBytes/airwater-cli/internal/forecast"
	"github.com/KaramelBytes/airwater-cli/internal/timeseries"
)

// Outcome reports whether a model stage produced output. Reason explains an
// unavailable stage and is empty otherwise.
type Outcome struct {
	Available bool   `json:"available" yaml:"available"`
	Reason    string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

func available() Outcome { return Outcome{Available: true} }

func unavailable(err error) Outcome {
	return Outcome{Reason: err.Error()}
}

func (o Outcome) String() string {
	if o.Available {
		return "ok"
	}
	return "unavailable: " + o.Reason
}

// LabeledPoint is one day of the resampled series with its anomaly label.
type LabeledPoint struct {
	Time    time.Time     `json:"time" yaml:"time"`
	Value   float64       `json:"value" yaml:"value"`
	Imputed bool          `json:"imputed" yaml:"imputed"`
	Label   anomaly.Label `json:"label" yaml:"label"`
	Score   float64       `json:"score" yaml:"score"`
}

// SeriesAnalysis is the resampled series plus forecast and anomaly results.
// A failed stage leaves its output empty and records why in its Outcome.
type SeriesAnalysis struct {
	Name           string                   `json:"name" yaml:"name"`
	Observations   int                      `json:"observations" yaml:"observations"`
	Resample       Outcome                  `json:"resample" yaml:"resample"`
	Series         *timeseries.Series       `json:"series,omitempty" yaml:"series,omitempty"`
	Monthly        []timeseries.MonthlyMean `json:"monthly,omitempty" yaml:"monthly,omitempty"`
	ForecastStatus Outcome                  `json:"forecast_status" yaml:"forecast_status"`
	Forecast       *forecast.Forecast       `json:"forecast,omitempty" yaml:"forecast,omitempty"`
	AnomalyStatus  Outcome                  `json:"anomaly_status" yaml:"anomaly_status"`
	Anomalies      []LabeledPoint           `json:"anomalies,omitempty" yaml:"anomalies,omitempty"`
	AnomalyCount   int                      `json:"anomaly_count" yaml:"anomaly_count"`
}

// guard runs fn and converts a panic into an error.
func guard(stage string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s failed unexpectedly: %v", stage, r)
		}
	}()
	return fn()
}
