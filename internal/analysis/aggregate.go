package analysis

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/airwater-cli/internal/dataset"
	"github.com/KaramelBytes/airwater-cli/internal/timeseries"
)

// CategoryCount is a value and the number of rows carrying it.
type CategoryCount struct {
	Value string `json:"value" yaml:"value"`
	Count int    `json:"count" yaml:"count"`
}

// RegionMean is the average water pollution of one region.
type RegionMean struct {
	Region string  `json:"region" yaml:"region"`
	Mean   float64 `json:"mean" yaml:"mean"`
	Count  int     `json:"count" yaml:"count"`
}

func distinct[T any](records []T, key func(T) (string, bool)) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range records {
		k, ok := key(r)
		if !ok || k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// Countries lists distinct air-quality countries in first-appearance order.
func Countries(records []dataset.AirRecord) []string {
	return distinct(records, func(r dataset.AirRecord) (string, bool) { return r.Country, true })
}

// Cities lists the distinct cities of country in first-appearance order.
func Cities(records []dataset.AirRecord, country string) []string {
	return distinct(records, func(r dataset.AirRecord) (string, bool) { return r.City, r.Country == country })
}

// Years lists the distinct years of country in first-appearance order. An
// empty country matches every row.
func Years(records []dataset.AirRecord, country string) []int {
	seen := make(map[int]struct{})
	var out []int
	for _, r := range records {
		if country != "" && r.Country != country {
			continue
		}
		if _, dup := seen[r.Year]; dup {
			continue
		}
		seen[r.Year] = struct{}{}
		out = append(out, r.Year)
	}
	return out
}

// WaterCountries lists distinct water-quality countries in first-appearance order.
func WaterCountries(records []dataset.WaterRecord) []string {
	return distinct(records, func(r dataset.WaterRecord) (string, bool) { return r.Country, true })
}

// WaterRegions lists the distinct regions of country in first-appearance order.
func WaterRegions(records []dataset.WaterRecord, country string) []string {
	return distinct(records, func(r dataset.WaterRecord) (string, bool) { return r.Region, r.Country == country })
}

func topN(counts map[string]int, n int) []CategoryCount {
	out := make([]CategoryCount, 0, len(counts))
	for k, v := range counts {
		out = append(out, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// TopRegions returns the n regions of country with the most rows.
func TopRegions(records []dataset.WaterRecord, country string, n int) []CategoryCount {
	counts := make(map[string]int)
	for _, r := range records {
		if r.Country == country {
			counts[r.Region]++
		}
	}
	return topN(counts, n)
}

// TopCities returns the n cities with the most rows.
func TopCities(records []dataset.WaterRecord, n int) []CategoryCount {
	counts := make(map[string]int)
	for _, r := range records {
		counts[r.City]++
	}
	return topN(counts, n)
}

// Values extracts the Value field of each count.
func Values(counts []CategoryCount) []string {
	out := make([]string, len(counts))
	for i, c := range counts {
		out[i] = c.Value
	}
	return out
}

// RegionMeans averages WaterPollution per region, sorted by region name.
func RegionMeans(records []dataset.WaterRecord) []RegionMean {
	byRegion := make(map[string][]float64)
	for _, r := range records {
		byRegion[r.Region] = append(byRegion[r.Region], r.WaterPollution)
	}
	out := make([]RegionMean, 0, len(byRegion))
	for region, vals := range byRegion {
		out = append(out, RegionMean{Region: region, Mean: stat.Mean(vals, nil), Count: len(vals)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Region < out[j].Region })
	return out
}

// SeriesFor builds the raw pollutant series of records. Rows without a
// measurement for pollutant are skipped.
func SeriesFor(records []dataset.AirRecord, pollutant string) (*timeseries.Series, error) {
	if err := (AirSelection{Pollutant: pollutant}).Validate(); err != nil {
		return nil, err
	}
	s := &timeseries.Series{Name: pollutant}
	for _, r := range records {
		v, ok := r.Value(pollutant)
		if !ok {
			continue
		}
		s.Timestamps = append(s.Timestamps, r.Date)
		s.Values = append(s.Values, v)
	}
	return s, nil
}

// WaterSeries builds the WaterPollution series of dated records.
func WaterSeries(records []dataset.WaterRecord) *timeseries.Series {
	s := &timeseries.Series{Name: dataset.ColWater}
	for _, r := range records {
		if !r.HasDate {
			continue
		}
		s.Timestamps = append(s.Timestamps, r.Date)
		s.Values = append(s.Values, r.WaterPollution)
	}
	return s
}
