package dataset

import (
	"time"
)

// WaterRecord is one water-quality observation.
type WaterRecord struct {
	Country        string    `json:"country" yaml:"country"`
	Region         string    `json:"region" yaml:"region"`
	City           string    `json:"city" yaml:"city"`
	WaterPollution float64   `json:"water_pollution" yaml:"water_pollution"`
	Date           time.Time `json:"date,omitempty" yaml:"date,omitempty"`
	HasDate        bool      `json:"-" yaml:"-"`
}

// WaterTable is a fully loaded water-quality dataset.
type WaterTable struct {
	Path    string
	Records []WaterRecord
	// HasDate is true when the file carries the optional Date column.
	HasDate bool
	// Dropped counts rows discarded for missing required values or an unparseable Date.
	Dropped int
}

// LoadWater reads a water-quality CSV. Country, Region, City and
// WaterPollution are required; Date is optional.
func LoadWater(path string) (*WaterTable, error) {
	t := &WaterTable{Path: path}
	required := []string{ColCountry, ColRegion, ColCity, ColWater}
	h, err := readCSV(path, required, func(h header, rec []string) {
		r := WaterRecord{
			Country: h.cell(rec, ColCountry),
			Region:  h.cell(rec, ColRegion),
			City:    h.cell(rec, ColCity),
		}
		v, ok := ParseNumber(h.cell(rec, ColWater))
		if !ok || r.Country == "" || r.Region == "" || r.City == "" {
			t.Dropped++
			return
		}
		r.WaterPollution = v
		if h.has(ColDate) {
			d, ok := ParseDate(h.cell(rec, ColDate))
			if !ok {
				t.Dropped++
				return
			}
			r.Date = d
			r.HasDate = true
		}
		t.Records = append(t.Records, r)
	})
	if err != nil {
		return nil, err
	}
	t.HasDate = h.has(ColDate)
	return t, nil
}
