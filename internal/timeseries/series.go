// Package timeseries holds the series type shared by the resampler, the
// forecaster and the anomaly detector.
package timeseries

import (
	"errors"
	"time"
)

// ErrInsufficientData is returned when a series has fewer than two distinct days.
var ErrInsufficientData = errors.New("insufficient data: need at least two distinct days")

// Series is a sequence of timestamped values. Imputed, when set, has the same
// length as Values and marks entries filled in by interpolation.
type Series struct {
	Name       string      `json:"name" yaml:"name"`
	Timestamps []time.Time `json:"timestamps" yaml:"timestamps"`
	Values     []float64   `json:"values" yaml:"values"`
	Imputed    []bool      `json:"imputed,omitempty" yaml:"imputed,omitempty"`
}

// New creates a named series from parallel timestamp and value slices.
func New(name string, timestamps []time.Time, values []float64) (*Series, error) {
	if len(timestamps) != len(values) {
		return nil, errors.New("timestamps and values must have the same length")
	}
	return &Series{Name: name, Timestamps: timestamps, Values: values}, nil
}

// Len returns the number of points.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Values)
}

// Last returns the final timestamp, or the zero time for an empty series.
func (s *Series) Last() time.Time {
	if s.Len() == 0 || len(s.Timestamps) == 0 {
		return time.Time{}
	}
	return s.Timestamps[len(s.Timestamps)-1]
}

// ImputedCount returns how many points were filled in.
func (s *Series) ImputedCount() int {
	n := 0
	for _, b := range s.Imputed {
		if b {
			n++
		}
	}
	return n
}

// Diff returns the d-th order difference of values.
func Diff(values []float64, d int) []float64 {
	out := append([]float64(nil), values...)
	for k := 0; k < d; k++ {
		if len(out) < 2 {
			return nil
		}
		next := make([]float64, len(out)-1)
		for i := 1; i < len(out); i++ {
			next[i-1] = out[i] - out[i-1]
		}
		out = next
	}
	return out
}
