package dataset

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingLoader(calls *int) LoadFunc[*AirTable] {
	return func(path string) (*AirTable, error) {
		*calls++
		return LoadAir(path)
	}
}

func TestCache_HitUntilFileChanges(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "air.csv")
	require.NoError(t, os.WriteFile(p, []byte(airHeader+"Chad,Abeche,2023-01-01,1,1,1,1,1,1\n"), 0o644))

	var calls int
	c := NewCache(countingLoader(&calls))

	first, hit, err := c.Get(p)
	require.NoError(t, err)
	assert.False(t, hit)
	second, hit, err := c.Get(p)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)

	require.NoError(t, os.WriteFile(p, []byte(airHeader+
		"Chad,Abeche,2023-01-01,1,1,1,1,1,1\nChad,Abeche,2023-01-02,2,2,2,2,2,2\n"), 0o644))
	later := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(p, later, later))

	third, hit, err := c.Get(p)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Len(t, third.Records, 2)
	assert.Equal(t, 2, calls)
}

func TestCache_InvalidateAndPurge(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "air.csv")
	require.NoError(t, os.WriteFile(p, []byte(airHeader), 0o644))

	var calls int
	c := NewCache(countingLoader(&calls))
	_, _, err := c.Get(p)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	c.Invalidate(p)
	assert.Equal(t, 0, c.Len())
	_, hit, err := c.Get(p)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, calls)

	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestCache_LoadErrorNotCached(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "air.csv")
	require.NoError(t, os.WriteFile(p, []byte("Country,City\n"), 0o644))

	var calls int
	c := NewCache(countingLoader(&calls))
	_, _, err := c.Get(p)
	var mc *MissingColumnError
	require.ErrorAs(t, err, &mc)
	assert.Equal(t, 0, c.Len())
}

func TestCache_MissingFile(t *testing.T) {
	var calls int
	c := NewCache(countingLoader(&calls))
	_, _, err := c.Get(filepath.Join(t.TempDir(), "gone.csv"))
	var nf *FileNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Zero(t, calls)
}
