package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const airHeader = "Country,City,Date,PM2.5,PM10,NO2,SO2,CO,O3\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestResolve_FirstExisting(t *testing.T) {
	dir := t.TempDir()
	second := writeFile(t, dir, "b.csv", airHeader)
	third := writeFile(t, dir, "c.csv", airHeader)

	got, err := Resolve([]string{filepath.Join(dir, "missing.csv"), second, third})
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestResolve_NoneExist(t *testing.T) {
	dir := t.TempDir()
	candidates := []string{filepath.Join(dir, "a.csv"), dir}

	_, err := Resolve(candidates)
	var nf *FileNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, candidates, nf.Candidates)
	assert.Contains(t, err.Error(), "a.csv")
}

func TestLoadAir_ParsesAndDerivesFields(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "air.csv", airHeader+
		"Chad,N'Djamena,2023-03-04,12.5,40,21,3,0.4,30\n"+
		"Chad,Abeche,2023/03/05,,41,22,3,0.5,31\n")

	tbl, err := LoadAir(p)
	require.NoError(t, err)
	require.Len(t, tbl.Records, 2)
	assert.Zero(t, tbl.Dropped)

	first := tbl.Records[0]
	assert.Equal(t, "Chad", first.Country)
	assert.Equal(t, "N'Djamena", first.City)
	assert.Equal(t, time.Date(2023, 3, 4, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, 2023, first.Year)
	assert.Equal(t, 3, first.Month)
	v, ok := first.Value("PM2.5")
	assert.True(t, ok)
	assert.Equal(t, 12.5, v)

	_, ok = tbl.Records[1].Value("PM2.5")
	assert.False(t, ok, "empty cell is a missing measurement")
	assert.Len(t, tbl.Records[1].Measurements, 5)
}

func TestLoadAir_DropsAndCountsUnparseableDates(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "air.csv", airHeader+
		"Chad,Abeche,2023-01-01,1,1,1,1,1,1\n"+
		"Chad,Abeche,not-a-date,2,2,2,2,2,2\n"+
		"Chad,Abeche,,3,3,3,3,3,3\n"+
		"Chad,Abeche,2023-01-02,4,4,4,4,4,4\n")

	tbl, err := LoadAir(p)
	require.NoError(t, err)
	assert.Len(t, tbl.Records, 2)
	assert.Equal(t, 2, tbl.Dropped)
}

func TestLoadAir_MissingDateColumnIsFatal(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "air.csv", "Country,City,PM2.5,PM10,NO2,SO2,CO,O3\nChad,Abeche,1,1,1,1,1,1\n")

	tbl, err := LoadAir(p)
	assert.Nil(t, tbl)
	var mc *MissingColumnError
	require.ErrorAs(t, err, &mc)
	assert.Equal(t, "Date", mc.Column)
}

func TestLoadAir_MissingPollutantColumnIsFatal(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "air.csv", "Country,City,Date,PM2.5,PM10,NO2,SO2,CO\n")

	_, err := LoadAir(p)
	var mc *MissingColumnError
	require.ErrorAs(t, err, &mc)
	assert.Equal(t, "O3", mc.Column)
}

func TestLoadAir_FileNotFound(t *testing.T) {
	_, err := LoadAir(filepath.Join(t.TempDir(), "nope.csv"))
	var nf *FileNotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestLoadWater_OptionalDateAndDrops(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "water.csv", "City,Region,Country,AirQuality,WaterPollution\n"+
		"Abeche,North,Chad,40,55.5\n"+
		"Moundou,South,Chad,35,\n"+
		",South,Chad,35,20\n"+
		"Sarh,South,Chad,30,61\n")

	tbl, err := LoadWater(p)
	require.NoError(t, err)
	assert.False(t, tbl.HasDate)
	assert.Equal(t, 2, tbl.Dropped)
	require.Len(t, tbl.Records, 2)
	assert.Equal(t, WaterRecord{Country: "Chad", Region: "North", City: "Abeche", WaterPollution: 55.5}, tbl.Records[0])
}

func TestLoadWater_WithDate(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "water.tsv", "Country\tRegion\tCity\tWaterPollution\tDate\n"+
		"Chad\tNorth\tAbeche\t10\t2022-05-01\n"+
		"Chad\tNorth\tAbeche\t12\tyesterday\n")

	tbl, err := LoadWater(p)
	require.NoError(t, err)
	assert.True(t, tbl.HasDate)
	assert.Equal(t, 1, tbl.Dropped)
	require.Len(t, tbl.Records, 1)
	assert.True(t, tbl.Records[0].HasDate)
	assert.Equal(t, 2022, tbl.Records[0].Date.Year())
}

func TestLoadWater_MissingRegionIsFatal(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "water.csv", "Country,City,WaterPollution\nChad,Abeche,1\n")

	_, err := LoadWater(p)
	var mc *MissingColumnError
	require.ErrorAs(t, err, &mc)
	assert.Equal(t, "Region", mc.Column)
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12.5", 12.5, true},
		{"12,5", 12.5, true},
		{"1,234", 1234, true},
		{"1.234,5", 1234.5, true},
		{"NA", 0, false},
		{"", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseNumber(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		if tc.ok {
			assert.InDelta(t, tc.want, got, 1e-9, tc.in)
		}
	}
}

func TestValidPollutant(t *testing.T) {
	assert.True(t, ValidPollutant("PM2.5"))
	assert.True(t, ValidPollutant("O3"))
	assert.False(t, ValidPollutant("pm2.5"))
	assert.False(t, ValidPollutant("CO2"))
}

func TestScan_KeepsDuplicateHeaderNames(t *testing.T) {
	p := writeFile(t, t.TempDir(), "dup.csv", "Date,Value,Value\n2023-01-01,1,2\n2023-01-02,3,4\n")

	var rows int
	names, err := Scan(p, func(rec []string) { rows++ })
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "Value", "Value"}, names)
	assert.Equal(t, 2, rows)
}
