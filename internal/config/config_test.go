package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"global_air_quality_data_10000.csv", "./data/global_air_quality_data_10000.csv"}, c.AirFiles)
	assert.Equal(t, []string{"water_quality.csv", "./data/water_quality.csv"}, c.WaterFiles)
	assert.Equal(t, 90, c.ForecastHorizon)
	assert.Equal(t, 5, c.ARIMAP)
	assert.Equal(t, 1, c.ARIMAD)
	assert.Equal(t, 0, c.ARIMAQ)
	assert.Equal(t, 0.02, c.AnomalyContamination)
	assert.Equal(t, int64(42), c.AnomalySeed)
	assert.Equal(t, 100, c.AnomalyTrees)
	assert.Equal(t, 256, c.AnomalySampleSize)
	assert.Equal(t, 10, c.TopRegions)
	assert.Equal(t, 15, c.TopCities)
	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, "text", c.LogFormat)
	assert.Equal(t, filepath.Join(os.Getenv("HOME"), ".airwater", "reports"), c.ReportsDir)
	assert.NoError(t, c.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("AIRWATER_FORECAST_HORIZON", "30")
	t.Setenv("AIRWATER_LOG_FORMAT", "json")
	t.Setenv("AIRWATER_AIR_FILES", "a.csv, b.csv")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 30, c.ForecastHorizon)
	assert.Equal(t, "json", c.LogFormat)
	assert.Equal(t, []string{"a.csv", "b.csv"}, c.AirFiles)
}

func TestLoadFile_IgnoresEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("AIRWATER_FORECAST_HORIZON", "30")
	t.Setenv("AIRWATER_LOG_LEVEL", "debug")

	c, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, 90, c.ForecastHorizon)
	assert.Equal(t, "info", c.LogLevel)
}

func TestSaveThenLoad(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")

	c, err := Load(path)
	require.NoError(t, err, "a missing explicit config file falls back to defaults")
	c.TopRegions = 3
	c.HTTPAddr = "127.0.0.1:9090"
	c.ReportsDir = "/tmp/reports"
	require.NoError(t, Save(c, path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, got.TopRegions)
	assert.Equal(t, "127.0.0.1:9090", got.HTTPAddr)
	assert.Equal(t, "/tmp/reports", got.ReportsDir)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("top_regions: [unterminated"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)

	c.ForecastHorizon = 0
	c.ARIMAQ = 1
	c.AnomalyContamination = 0.9
	c.LogFormat = "xml"
	err = c.Validate()
	require.Error(t, err)
	for _, key := range []string{"forecast_horizon", "arima_q", "anomaly_contamination", "log_format"} {
		assert.Contains(t, err.Error(), key)
	}
}
