// Package pipeline runs the load, filter, resample and model stages for one
// selection and assembles the result.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/KaramelBytes/airwater-cli/internal/analysis"
	"github.com/KaramelBytes/airwater-cli/internal/anomaly"
	"github.com/KaramelBytes/airwater-cli/internal/dataset"
	"github.com/KaramelBytes/airwater-cli/internal/forecast"
	"github.com/KaramelBytes/airwater-cli/internal/observability"
	"github.com/KaramelBytes/airwater-cli/internal/timeseries"
)

const (
	datasetAir   = "air"
	datasetWater = "water"
)

// Config holds the dataset locations and result sizes.
type Config struct {
	AirFiles   []string
	WaterFiles []string
	Horizon    int
	TopRegions int
	TopCities  int
}

// Service runs selections against the cached datasets. It is safe for
// concurrent use.
type Service struct {
	cfg        Config
	air        *dataset.Cache[*dataset.AirTable]
	water      *dataset.Cache[*dataset.WaterTable]
	forecaster forecast.Forecaster
	detector   anomaly.Detector
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// New creates a Service with empty table caches.
func New(cfg Config, f forecast.Forecaster, d anomaly.Detector, logger *slog.Logger, metrics *observability.Metrics) *Service {
	if cfg.Horizon <= 0 {
		cfg.Horizon = forecast.DefaultHorizon
	}
	if cfg.TopRegions <= 0 {
		cfg.TopRegions = 10
	}
	if cfg.TopCities <= 0 {
		cfg.TopCities = 15
	}
	return &Service{
		cfg:        cfg,
		air:        dataset.NewCache(dataset.LoadAir),
		water:      dataset.NewCache(dataset.LoadWater),
		forecaster: f,
		detector:   d,
		logger:     logger,
		metrics:    metrics,
	}
}

// AirResult is the air-quality page for one selection.
type AirResult struct {
	Dataset   string                `json:"dataset" yaml:"dataset"`
	Selection analysis.AirSelection `json:"selection" yaml:"selection"`
	Dropped   int                   `json:"dropped_rows" yaml:"dropped_rows"`
	Rows      []dataset.AirRecord   `json:"rows" yaml:"rows"`
	Analysis  SeriesAnalysis        `json:"analysis" yaml:"analysis"`
}

// WaterResult is the water-quality page for one selection.
type WaterResult struct {
	Dataset     string                   `json:"dataset" yaml:"dataset"`
	Selection   analysis.WaterSelection  `json:"selection" yaml:"selection"`
	Dropped     int                      `json:"dropped_rows" yaml:"dropped_rows"`
	TopRegions  []analysis.CategoryCount `json:"top_regions" yaml:"top_regions"`
	Rows        []dataset.WaterRecord    `json:"rows" yaml:"rows"`
	RegionMeans []analysis.RegionMean    `json:"region_means" yaml:"region_means"`
	TopCities   []analysis.CategoryCount `json:"top_cities" yaml:"top_cities"`
	CityPoints  []dataset.WaterRecord    `json:"city_points" yaml:"city_points"`
	Analysis    *SeriesAnalysis          `json:"analysis,omitempty" yaml:"analysis,omitempty"`
}

// AirOptions lists the selectable values of the air-quality table.
type AirOptions struct {
	Countries  []string `json:"countries" yaml:"countries"`
	Country    string   `json:"country" yaml:"country"`
	Cities     []string `json:"cities" yaml:"cities"`
	Years      []int    `json:"years" yaml:"years"`
	Pollutants []string `json:"pollutants" yaml:"pollutants"`
}

// WaterOptions lists the selectable values of the water-quality table.
type WaterOptions struct {
	Countries  []string                 `json:"countries" yaml:"countries"`
	Country    string                   `json:"country" yaml:"country"`
	Regions    []string                 `json:"regions" yaml:"regions"`
	TopRegions []analysis.CategoryCount `json:"top_regions" yaml:"top_regions"`
}

func (s *Service) airTable() (*dataset.AirTable, error) {
	path, err := dataset.Resolve(s.cfg.AirFiles)
	if err != nil {
		return nil, err
	}
	tbl, hit, err := s.air.Get(path)
	s.metrics.CacheLookups.WithLabelValues(datasetAir, observability.CacheResult(hit)).Inc()
	if err != nil {
		return nil, err
	}
	if !hit {
		s.loaded(datasetAir, path, len(tbl.Records), tbl.Dropped)
	}
	return tbl, nil
}

func (s *Service) waterTable() (*dataset.WaterTable, error) {
	path, err := dataset.Resolve(s.cfg.WaterFiles)
	if err != nil {
		return nil, err
	}
	tbl, hit, err := s.water.Get(path)
	s.metrics.CacheLookups.WithLabelValues(datasetWater, observability.CacheResult(hit)).Inc()
	if err != nil {
		return nil, err
	}
	if !hit {
		s.loaded(datasetWater, path, len(tbl.Records), tbl.Dropped)
	}
	return tbl, nil
}

func (s *Service) loaded(name, path string, rows, dropped int) {
	s.logger.Info("dataset loaded", "dataset", name, "path", path, "rows", rows)
	if dropped > 0 {
		s.logger.Warn("rows dropped while loading", "dataset", name, "path", path, "dropped", dropped)
		s.metrics.RowsDropped.WithLabelValues(name).Add(float64(dropped))
	}
}

// AirOptions returns the selection vocabularies. An empty country selects the
// first country of the table.
func (s *Service) AirOptions(country string) (*AirOptions, error) {
	tbl, err := s.airTable()
	if err != nil {
		return nil, err
	}
	opts := &AirOptions{
		Countries:  analysis.Countries(tbl.Records),
		Country:    country,
		Pollutants: slices.Clone(dataset.Pollutants),
	}
	if opts.Country == "" && len(opts.Countries) > 0 {
		opts.Country = opts.Countries[0]
	}
	opts.Cities = analysis.Cities(tbl.Records, opts.Country)
	opts.Years = analysis.Years(tbl.Records, opts.Country)
	return opts, nil
}

// CompleteAir fills unset selection fields with the first available value,
// the way the dashboard preselects its dropdowns. allCities and allYears keep
// the city and year unconstrained instead.
func (s *Service) CompleteAir(sel analysis.AirSelection, allCities, allYears bool) (analysis.AirSelection, error) {
	if sel.Pollutant == "" {
		sel.Pollutant = dataset.Pollutants[0]
	}
	if err := sel.Validate(); err != nil {
		return sel, err
	}
	opts, err := s.AirOptions(sel.Country)
	if err != nil {
		return sel, err
	}
	sel.Country = opts.Country
	if allCities {
		sel.City = ""
	} else if sel.City == "" && len(opts.Cities) > 0 {
		sel.City = opts.Cities[0]
	}
	if allYears {
		sel.Year = 0
	} else if sel.Year == 0 && len(opts.Years) > 0 {
		sel.Year = opts.Years[0]
	}
	return sel, nil
}

// Air runs the air-quality pipeline for sel.
func (s *Service) Air(sel analysis.AirSelection) (*AirResult, error) {
	start := time.Now()
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	tbl, err := s.airTable()
	if err != nil {
		return nil, err
	}
	rows := analysis.FilterAir(tbl.Records, sel)
	raw, err := analysis.SeriesFor(rows, sel.Pollutant)
	if err != nil {
		return nil, err
	}
	res := &AirResult{
		Dataset:   tbl.Path,
		Selection: sel,
		Dropped:   tbl.Dropped,
		Rows:      rows,
		Analysis:  s.analyze(raw),
	}
	s.finish(datasetAir, start, len(rows))
	return res, nil
}

// WaterOptions returns the selection vocabularies. An empty country selects
// the first country of the table.
func (s *Service) WaterOptions(country string) (*WaterOptions, error) {
	tbl, err := s.waterTable()
	if err != nil {
		return nil, err
	}
	opts := &WaterOptions{
		Countries: analysis.WaterCountries(tbl.Records),
		Country:   country,
	}
	if opts.Country == "" && len(opts.Countries) > 0 {
		opts.Country = opts.Countries[0]
	}
	opts.Regions = analysis.WaterRegions(tbl.Records, opts.Country)
	opts.TopRegions = analysis.TopRegions(tbl.Records, opts.Country, s.cfg.TopRegions)
	return opts, nil
}

// Water runs the water-quality pipeline for sel. An empty country selects the
// first country and nil Regions selects the country's top regions.
func (s *Service) Water(sel analysis.WaterSelection) (*WaterResult, error) {
	start := time.Now()
	tbl, err := s.waterTable()
	if err != nil {
		return nil, err
	}
	if sel.Country == "" {
		if countries := analysis.WaterCountries(tbl.Records); len(countries) > 0 {
			sel.Country = countries[0]
		}
	}
	top := analysis.TopRegions(tbl.Records, sel.Country, s.cfg.TopRegions)
	if sel.Regions == nil {
		sel.Regions = analysis.Values(top)
	}
	rows := analysis.FilterWater(tbl.Records, sel)
	cities := analysis.TopCities(rows, s.cfg.TopCities)
	names := analysis.Values(cities)
	var points []dataset.WaterRecord
	for _, r := range rows {
		if slices.Contains(names, r.City) {
			points = append(points, r)
		}
	}
	res := &WaterResult{
		Dataset:     tbl.Path,
		Selection:   sel,
		Dropped:     tbl.Dropped,
		TopRegions:  top,
		Rows:        rows,
		RegionMeans: analysis.RegionMeans(rows),
		TopCities:   cities,
		CityPoints:  points,
	}
	if tbl.HasDate {
		a := s.analyze(analysis.WaterSeries(rows))
		res.Analysis = &a
	}
	s.finish(datasetWater, start, len(rows))
	return res, nil
}

func (s *Service) finish(name string, start time.Time, rows int) {
	elapsed := time.Since(start)
	s.metrics.Runs.WithLabelValues(name).Inc()
	s.metrics.RunDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	s.logger.Debug("pipeline run complete", "dataset", name, "rows", rows, "duration", elapsed)
}

// analyze resamples raw and runs the forecaster and detector on the result.
func (s *Service) analyze(raw *timeseries.Series) SeriesAnalysis {
	out := SeriesAnalysis{Name: raw.Name, Observations: raw.Len()}
	var daily *timeseries.Series
	err := guard("resample", func() error {
		var err error
		daily, err = timeseries.ResampleDaily(raw)
		return err
	})
	out.Resample = s.outcome("resample", raw.Name, err)
	if err != nil {
		skipped := unavailable(fmt.Errorf("no daily series: %w", err))
		out.ForecastStatus, out.AnomalyStatus = skipped, skipped
		s.outcome("forecast", raw.Name, err)
		s.outcome("anomaly", raw.Name, err)
		return out
	}
	out.Series = daily
	out.Monthly = timeseries.MonthlyMeans(daily)

	err = guard("forecast", func() error {
		var err error
		out.Forecast, err = s.forecaster.Forecast(daily, s.cfg.Horizon)
		return err
	})
	out.ForecastStatus = s.outcome("forecast", raw.Name, err)
	if err != nil {
		out.Forecast = nil
	}

	var det *anomaly.Result
	err = guard("anomaly detection", func() error {
		var err error
		det, err = s.detector.Detect(daily.Values)
		if err == nil && len(det.Labels) != daily.Len() {
			err = errors.New("detector returned a label count that does not match the series")
		}
		return err
	})
	out.AnomalyStatus = s.outcome("anomaly", raw.Name, err)
	if err == nil {
		out.AnomalyCount = det.Count
		out.Anomalies = make([]LabeledPoint, daily.Len())
		for i := range daily.Values {
			out.Anomalies[i] = LabeledPoint{
				Time:    daily.Timestamps[i],
				Value:   daily.Values[i],
				Imputed: daily.Imputed[i],
				Label:   det.Labels[i],
				Score:   det.Scores[i],
			}
		}
	}
	return out
}

func (s *Service) outcome(model, series string, err error) Outcome {
	if err == nil {
		s.metrics.ModelOutcome.WithLabelValues(model, "ok").Inc()
		return available()
	}
	s.metrics.ModelOutcome.WithLabelValues(model, "unavailable").Inc()
	s.logger.Info("model output unavailable", "model", model, "series", series, "reason", err)
	return unavailable(err)
}

// CheckReadiness reports whether both datasets can be located.
func (s *Service) CheckReadiness() error {
	if _, err := dataset.Resolve(s.cfg.AirFiles); err != nil {
		return fmt.Errorf("air dataset: %w", err)
	}
	if _, err := dataset.Resolve(s.cfg.WaterFiles); err != nil {
		return fmt.Errorf("water dataset: %w", err)
	}
	return nil
}

// Purge drops both cached tables.
func (s *Service) Purge() {
	s.air.Purge()
	s.water.Purge()
}
