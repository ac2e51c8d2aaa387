package dataset

import (
	"time"
)

// Air-quality column names. They are part of the input contract.
const (
	ColCountry = "Country"
	ColCity    = "City"
	ColDate    = "Date"
	ColRegion  = "Region"
	ColWater   = "WaterPollution"
)

// Pollutants lists the measured air-quality variables in display order.
var Pollutants = []string{"PM2.5", "PM10", "NO2", "SO2", "CO", "O3"}

// ValidPollutant reports whether name is one of Pollutants.
func ValidPollutant(name string) bool {
	for _, p := range Pollutants {
		if p == name {
			return true
		}
	}
	return false
}

// AirRecord is one air-quality observation. Measurements holds only the
// pollutant cells that parsed as numbers.
type AirRecord struct {
	Country      string             `json:"country" yaml:"country"`
	City         string             `json:"city" yaml:"city"`
	Date         time.Time          `json:"date" yaml:"date"`
	Year         int                `json:"year" yaml:"year"`
	Month        int                `json:"month" yaml:"month"`
	Measurements map[string]float64 `json:"measurements" yaml:"measurements"`
}

// Value returns the measurement for pollutant and whether it was present.
func (r AirRecord) Value(pollutant string) (float64, bool) {
	v, ok := r.Measurements[pollutant]
	return v, ok
}

// AirTable is a fully loaded air-quality dataset.
type AirTable struct {
	Path    string
	Records []AirRecord
	// Dropped counts rows discarded because their Date did not parse.
	Dropped int
}

// LoadAir reads an air-quality CSV. A missing required column is fatal; rows
// with an unparseable Date are dropped and counted.
func LoadAir(path string) (*AirTable, error) {
	t := &AirTable{Path: path}
	required := append([]string{ColCountry, ColCity, ColDate}, Pollutants...)
	_, err := readCSV(path, required, func(h header, rec []string) {
		d, ok := ParseDate(h.cell(rec, ColDate))
		if !ok {
			t.Dropped++
			return
		}
		r := AirRecord{
			Country:      h.cell(rec, ColCountry),
			City:         h.cell(rec, ColCity),
			Date:         d,
			Year:         d.Year(),
			Month:        int(d.Month()),
			Measurements: make(map[string]float64, len(Pollutants)),
		}
		for _, p := range Pollutants {
			if v, ok := ParseNumber(h.cell(rec, p)); ok {
				r.Measurements[p] = v
			}
		}
		t.Records = append(t.Records, r)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}
