// Package analysis selects and aggregates loaded dataset records.
package analysis

import (
	"errors"
	"fmt"
	"slices"

	"github.com/KaramelBytes/airwater-cli/internal/dataset"
)

// ErrUnknownPollutant is returned when a selection names a pollutant that is
// not one of dataset.Pollutants.
var ErrUnknownPollutant = errors.New("unknown pollutant")

// AirSelection narrows the air-quality table. Empty City and zero Year leave
// those dimensions unconstrained.
type AirSelection struct {
	Country   string `json:"country" yaml:"country"`
	City      string `json:"city,omitempty" yaml:"city,omitempty"`
	Year      int    `json:"year,omitempty" yaml:"year,omitempty"`
	Pollutant string `json:"pollutant" yaml:"pollutant"`
}

// Validate checks that the pollutant is known.
func (s AirSelection) Validate() error {
	if !dataset.ValidPollutant(s.Pollutant) {
		return fmt.Errorf("%w %q (choose one of %v)", ErrUnknownPollutant, s.Pollutant, dataset.Pollutants)
	}
	return nil
}

// WaterSelection narrows the water-quality table. A nil Regions slice applies
// no region constraint; an empty non-nil slice matches nothing.
type WaterSelection struct {
	Country string   `json:"country" yaml:"country"`
	Regions []string `json:"regions" yaml:"regions"`
}

// FilterAir returns the records matching sel in source order.
func FilterAir(records []dataset.AirRecord, sel AirSelection) []dataset.AirRecord {
	var out []dataset.AirRecord
	for _, r := range records {
		if r.Country != sel.Country {
			continue
		}
		if sel.City != "" && r.City != sel.City {
			continue
		}
		if sel.Year != 0 && r.Year != sel.Year {
			continue
		}
		out = append(out, r)
	}
	return out
}

// FilterWater returns the records matching sel in source order.
func FilterWater(records []dataset.WaterRecord, sel WaterSelection) []dataset.WaterRecord {
	var out []dataset.WaterRecord
	for _, r := range records {
		if r.Country != sel.Country {
			continue
		}
		if sel.Regions != nil && !slices.Contains(sel.Regions, r.Region) {
			continue
		}
		out = append(out, r)
	}
	return out
}
