package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/airwater-cli/internal/anomaly"
	"github.com/KaramelBytes/airwater-cli/internal/forecast"
	"github.com/KaramelBytes/airwater-cli/internal/observability"
	"github.com/KaramelBytes/airwater-cli/internal/pipeline"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

const airCSV = `Country,City,Date,PM2.5,PM10,NO2,SO2,CO,O3
Chad,Abeche,2023-01-01,10,20,5,1,0.2,30
Chad,Abeche,2023-01-03,14,22,6,1,0.3,31
Chad,Sarh,2023-01-02,30,40,7,2,0.4,32
Peru,Lima,2022-06-01,12,25,9,3,0.5,20
`

const waterCSV = `City,Region,Country,WaterPollution
Abeche,North,Chad,40
Fada,North,Chad,60
Sarh,South,Chad,70
Abeche,North,Chad,50
`

func newTestServer(t *testing.T, airPath, waterPath string) *Server {
	t.Helper()
	m, reg := observability.NewMetricsForTesting()
	svc := pipeline.New(pipeline.Config{AirFiles: []string{airPath}, WaterFiles: []string{waterPath}},
		forecast.NewARIMA(5, 1, 0), anomaly.NewIsolationForest(), observability.Discard(), m)
	return NewServer(":0", svc, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), observability.Discard())
}

func fixtures(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	air := filepath.Join(dir, "air.csv")
	water := filepath.Join(dir, "water.csv")
	require.NoError(t, os.WriteFile(air, []byte(airCSV), 0o644))
	require.NoError(t, os.WriteFile(water, []byte(waterCSV), 0o644))
	return air, water
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthAndReady(t *testing.T) {
	air, water := fixtures(t)
	s := newTestServer(t, air, water)

	rec := get(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode(t, rec)["status"])

	rec = get(t, s, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decode(t, rec)["status"])

	notReady := newTestServer(t, air, filepath.Join(t.TempDir(), "missing.csv"))
	rec = get(t, notReady, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not ready", decode(t, rec)["status"])
}

func TestAirEndpoint(t *testing.T) {
	air, water := fixtures(t)
	s := newTestServer(t, air, water)

	rec := get(t, s, "/api/v1/air?country=Chad&city=Abeche&pollutant=PM10")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	sel := body["selection"].(map[string]any)
	assert.Equal(t, "Chad", sel["country"])
	assert.Equal(t, "Abeche", sel["city"])
	assert.EqualValues(t, 2023, sel["year"])
	assert.Len(t, body["rows"], 2)

	a := body["analysis"].(map[string]any)
	assert.Equal(t, true, a["resample"].(map[string]any)["available"])
	assert.Equal(t, false, a["forecast_status"].(map[string]any)["available"])
	assert.Len(t, a["anomalies"], 3)
}

func TestAirEndpoint_DefaultsAndMarkdown(t *testing.T) {
	air, water := fixtures(t)
	s := newTestServer(t, air, water)

	rec := get(t, s, "/api/v1/air?all_cities=true&format=markdown")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "[AIR QUALITY]")
	assert.Contains(t, rec.Body.String(), "City: all")
	assert.Contains(t, rec.Body.String(), "Rows: 3")
}

func TestAirEndpoint_Errors(t *testing.T) {
	air, water := fixtures(t)
	s := newTestServer(t, air, water)

	rec := get(t, s, "/api/v1/air?pollutant=CO2")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "unknown pollutant")

	rec = get(t, s, "/api/v1/air?year=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	missing := newTestServer(t, filepath.Join(t.TempDir(), "nope.csv"), water)
	rec = get(t, missing, "/api/v1/air")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "data file not found")
}

func TestAirOptionsEndpoint(t *testing.T) {
	air, water := fixtures(t)
	s := newTestServer(t, air, water)

	rec := get(t, s, "/api/v1/air/options?country=Peru")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, []any{"Chad", "Peru"}, body["countries"])
	assert.Equal(t, []any{"Lima"}, body["cities"])
	assert.Equal(t, []any{float64(2022)}, body["years"])
}

func TestWaterEndpoints(t *testing.T) {
	air, water := fixtures(t)
	s := newTestServer(t, air, water)

	rec := get(t, s, "/api/v1/water?country=Chad&region=North")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Len(t, body["rows"], 3)
	means := body["region_means"].([]any)
	require.Len(t, means, 1)
	assert.Equal(t, "North", means[0].(map[string]any)["region"])
	assert.EqualValues(t, 50, means[0].(map[string]any)["mean"])
	assert.NotContains(t, body, "analysis")

	rec = get(t, s, "/api/v1/water?country=Chad&region=North,South&format=markdown")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "[WATER QUALITY]"))

	rec = get(t, s, "/api/v1/water/options")
	require.Equal(t, http.StatusOK, rec.Code)
	opts := decode(t, rec)
	assert.Equal(t, "Chad", opts["country"])
	assert.Equal(t, []any{"North", "South"}, opts["regions"])
}

func TestMetricsEndpoint(t *testing.T) {
	air, water := fixtures(t)
	s := newTestServer(t, air, water)
	get(t, s, "/api/v1/water")

	rec := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `airwater_runs_total{dataset="water"} 1`)
}
