package timeseries

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

const day = 24 * time.Hour

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type dayValue struct {
	day   time.Time
	value float64
}

// collapse drops non-finite values, truncates to days and averages duplicates.
// The result is sorted by day.
func collapse(s *Series) []dayValue {
	buckets := make(map[time.Time][]float64)
	for i, v := range s.Values {
		if i >= len(s.Timestamps) || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		d := Day(s.Timestamps[i])
		buckets[d] = append(buckets[d], v)
	}
	out := make([]dayValue, 0, len(buckets))
	for d, vs := range buckets {
		out = append(out, dayValue{day: d, value: stat.Mean(vs, nil)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].day.Before(out[j].day) })
	return out
}

// ResampleDaily converts s into a gap-free daily series covering every day
// between its first and last observation. Same-day observations are averaged;
// missing days are filled by linear interpolation weighted by elapsed time.
func ResampleDaily(s *Series) (*Series, error) {
	if s == nil {
		return nil, ErrInsufficientData
	}
	known := collapse(s)
	if len(known) < 2 {
		return nil, ErrInsufficientData
	}
	first, last := known[0].day, known[len(known)-1].day
	n := int(last.Sub(first)/day) + 1

	out := &Series{
		Name:       s.Name,
		Timestamps: make([]time.Time, n),
		Values:     make([]float64, n),
		Imputed:    make([]bool, n),
	}
	k := 0
	for i := 0; i < n; i++ {
		t := first.AddDate(0, 0, i)
		out.Timestamps[i] = t
		if k < len(known) && known[k].day.Equal(t) {
			out.Values[i] = known[k].value
			k++
			continue
		}
		// known[k-1] is the previous observed day and known[k] the next one.
		prev, next := known[k-1], known[k]
		w := float64(t.Sub(prev.day)) / float64(next.day.Sub(prev.day))
		out.Values[i] = prev.value + w*(next.value-prev.value)
		out.Imputed[i] = true
	}
	return out, nil
}

// MonthlyMean is the average of one calendar month.
type MonthlyMean struct {
	Month string  `json:"month" yaml:"month"`
	Mean  float64 `json:"mean" yaml:"mean"`
	Days  int     `json:"days" yaml:"days"`
}

// MonthlyMeans averages s per calendar month in chronological order.
func MonthlyMeans(s *Series) []MonthlyMean {
	if s.Len() == 0 {
		return nil
	}
	byMonth := make(map[time.Time][]float64)
	for i, v := range s.Values {
		if i >= len(s.Timestamps) || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		t := s.Timestamps[i].UTC()
		key := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		byMonth[key] = append(byMonth[key], v)
	}
	out := make([]MonthlyMean, 0, len(byMonth))
	keys := make([]time.Time, 0, len(byMonth))
	for k := range byMonth {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	for _, k := range keys {
		vals := byMonth[k]
		out = append(out, MonthlyMean{Month: k.Format("2006-01"), Mean: stat.Mean(vals, nil), Days: len(vals)})
	}
	return out
}
