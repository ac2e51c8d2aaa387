// Package anomaly labels outlying values of a series.
package anomaly

import "errors"

// ErrInsufficientData is returned for fewer than two values.
var ErrInsufficientData = errors.New("insufficient data: need at least two values")

// Label marks one value as normal or anomalous.
type Label int

const (
	Normal    Label = 1
	Anomalous Label = -1
)

func (l Label) String() string {
	if l == Anomalous {
		return "anomalous"
	}
	return "normal"
}

// Result holds one label and score per input value.
type Result struct {
	Labels    []Label   `json:"labels" yaml:"labels"`
	Scores    []float64 `json:"scores" yaml:"scores"`
	Threshold float64   `json:"threshold" yaml:"threshold"`
	Count     int       `json:"count" yaml:"count"`
}

// Detector labels each value of a series.
type Detector interface {
	Detect(values []float64) (*Result, error)
}
