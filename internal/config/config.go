package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Candidate dataset locations, tried in order.
	AirFiles   []string `mapstructure:"air_files" yaml:"air_files"`
	WaterFiles []string `mapstructure:"water_files" yaml:"water_files"`

	// Forecaster
	ForecastHorizon int `mapstructure:"forecast_horizon" yaml:"forecast_horizon"`
	ARIMAP          int `mapstructure:"arima_p" yaml:"arima_p"`
	ARIMAD          int `mapstructure:"arima_d" yaml:"arima_d"`
	ARIMAQ          int `mapstructure:"arima_q" yaml:"arima_q"`

	// Anomaly detector
	AnomalyContamination float64 `mapstructure:"anomaly_contamination" yaml:"anomaly_contamination"`
	AnomalySeed          int64   `mapstructure:"anomaly_seed" yaml:"anomaly_seed"`
	AnomalyTrees         int     `mapstructure:"anomaly_trees" yaml:"anomaly_trees"`
	AnomalySampleSize    int     `mapstructure:"anomaly_sample_size" yaml:"anomaly_sample_size"`

	// Water page defaults
	TopRegions int `mapstructure:"top_regions" yaml:"top_regions"`
	TopCities  int `mapstructure:"top_cities" yaml:"top_cities"`

	HTTPAddr   string `mapstructure:"http_addr" yaml:"http_addr"`
	LogLevel   string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat  string `mapstructure:"log_format" yaml:"log_format"`
	ReportsDir string `mapstructure:"reports_dir" yaml:"reports_dir"`
}

const dirName = ".airwater"

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.airwater/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := configDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	return load(cfgFile, true)
}

// LoadFile loads the config file over the defaults, ignoring AIRWATER_* env.
// It is the base config set edits so runtime overrides never reach disk.
func LoadFile(cfgFile string) (*Global, error) {
	return load(cfgFile, false)
}

func load(cfgFile string, env bool) (*Global, error) {
	v := viper.New()
	if env {
		v.SetEnvPrefix("AIRWATER")
		v.AutomaticEnv()
	}

	v.SetDefault("air_files", []string{"global_air_quality_data_10000.csv", "./data/global_air_quality_data_10000.csv"})
	v.SetDefault("water_files", []string{"water_quality.csv", "./data/water_quality.csv"})
	v.SetDefault("forecast_horizon", 90)
	v.SetDefault("arima_p", 5)
	v.SetDefault("arima_d", 1)
	v.SetDefault("arima_q", 0)
	v.SetDefault("anomaly_contamination", 0.02)
	v.SetDefault("anomaly_seed", 42)
	v.SetDefault("anomaly_trees", 100)
	v.SetDefault("anomaly_sample_size", 256)
	v.SetDefault("top_regions", 10)
	v.SetDefault("top_cities", 15)
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("reports_dir", "")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// comma-separated lists arrive as one element from the environment
	c.AirFiles = splitList(c.AirFiles)
	c.WaterFiles = splitList(c.WaterFiles)
	if c.ReportsDir == "" {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		c.ReportsDir = filepath.Join(dir, "reports")
	}
	return &c, nil
}

func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// Validate rejects settings no run could succeed with.
func (c *Global) Validate() error {
	var errs []error
	if len(c.AirFiles) == 0 {
		errs = append(errs, errors.New("air_files must name at least one path"))
	}
	if len(c.WaterFiles) == 0 {
		errs = append(errs, errors.New("water_files must name at least one path"))
	}
	if c.ForecastHorizon < 1 {
		errs = append(errs, fmt.Errorf("forecast_horizon must be positive, got %d", c.ForecastHorizon))
	}
	if c.ARIMAP < 0 || c.ARIMAD < 0 || c.ARIMAQ < 0 {
		errs = append(errs, fmt.Errorf("arima order must be non-negative, got (%d,%d,%d)", c.ARIMAP, c.ARIMAD, c.ARIMAQ))
	}
	if c.ARIMAQ > 0 {
		errs = append(errs, fmt.Errorf("arima_q must be 0, got %d", c.ARIMAQ))
	}
	if !(c.AnomalyContamination > 0 && c.AnomalyContamination <= 0.5) {
		errs = append(errs, fmt.Errorf("anomaly_contamination must be in (0, 0.5], got %g", c.AnomalyContamination))
	}
	if c.AnomalyTrees < 1 {
		errs = append(errs, fmt.Errorf("anomaly_trees must be positive, got %d", c.AnomalyTrees))
	}
	if c.AnomalySampleSize < 2 {
		errs = append(errs, fmt.Errorf("anomaly_sample_size must be at least 2, got %d", c.AnomalySampleSize))
	}
	if c.TopRegions < 1 || c.TopCities < 1 {
		errs = append(errs, errors.New("top_regions and top_cities must be positive"))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}
