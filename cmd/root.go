package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/airwater-cli/internal/anomaly"
	cfgpkg "github.com/KaramelBytes/airwater-cli/internal/config"
	"github.com/KaramelBytes/airwater-cli/internal/forecast"
	"github.com/KaramelBytes/airwater-cli/internal/observability"
	"github.com/KaramelBytes/airwater-cli/internal/pipeline"
)

var (
	// Global flags
	cfgFile   string
	debug     bool
	logFormat string

	// Loaded configuration
	cfg    *cfgpkg.Global
	logger = observability.Discard()

	metricsOnce sync.Once
	metrics     *observability.Metrics
)

var rootCmd = &cobra.Command{
	Use:   "airwater",
	Short: "airwater: air and water quality forecasting and anomaly reports",
	Long: `airwater loads air-quality and water-quality datasets, filters them by country, city,
region and year, and reports a 90-day ARIMA forecast and isolation-forest anomalies for the
selected series. Reports render as Markdown, JSON or YAML, or are served over HTTP.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.airwater/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text|json (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands that need config report it through requireConfig
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		cfg = nil
		return
	}
	cfg = c
	if debug {
		cfg.LogLevel = "debug"
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	logger = observability.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	slog.SetDefault(logger)
}

func requireConfig() (*cfgpkg.Global, error) {
	if cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// appMetrics registers the process-wide metrics once.
func appMetrics() *observability.Metrics {
	metricsOnce.Do(func() { metrics = observability.NewMetrics() })
	return metrics
}

// newService builds the pipeline from configuration. Non-empty airFile or
// waterFile replace the configured candidate paths.
func newService(c *cfgpkg.Global, airFile, waterFile string) *pipeline.Service {
	pc := pipeline.Config{
		AirFiles:   c.AirFiles,
		WaterFiles: c.WaterFiles,
		Horizon:    c.ForecastHorizon,
		TopRegions: c.TopRegions,
		TopCities:  c.TopCities,
	}
	if airFile != "" {
		pc.AirFiles = []string{airFile}
	}
	if waterFile != "" {
		pc.WaterFiles = []string{waterFile}
	}
	forest := &anomaly.IsolationForest{
		Trees:         c.AnomalyTrees,
		SampleSize:    c.AnomalySampleSize,
		Contamination: c.AnomalyContamination,
		Seed:          c.AnomalySeed,
	}
	return pipeline.New(pc, forecast.NewARIMA(c.ARIMAP, c.ARIMAD, c.ARIMAQ), forest, logger, appMetrics())
}
