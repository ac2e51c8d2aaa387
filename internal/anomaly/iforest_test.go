package anomaly

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gaussian(n int, seed int64) []float64 {
	r := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = 40 + r.NormFloat64()*5
	}
	return out
}

func TestIsolationForest_Deterministic(t *testing.T) {
	values := gaussian(300, 1)
	a, err := NewIsolationForest().Detect(values)
	require.NoError(t, err)
	b, err := NewIsolationForest().Detect(values)
	require.NoError(t, err)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("labels differ between runs (-first +second):\n%s", diff)
	}
}

func TestIsolationForest_FlagsAboutContaminationFraction(t *testing.T) {
	values := gaussian(200, 5)
	res, err := NewIsolationForest().Detect(values)
	require.NoError(t, err)
	require.Len(t, res.Labels, 200)

	// 2% of 200 with scores strictly above the 98th percentile
	assert.InDelta(t, 4, res.Count, 1)
	n := 0
	for _, l := range res.Labels {
		if l == Anomalous {
			n++
		}
	}
	assert.Equal(t, res.Count, n)
}

func TestIsolationForest_FlagsSpike(t *testing.T) {
	values := gaussian(150, 9)
	values[70] = 400
	res, err := NewIsolationForest().Detect(values)
	require.NoError(t, err)
	assert.Equal(t, Anomalous, res.Labels[70])
	for i, s := range res.Scores {
		if i != 70 {
			assert.Less(t, s, res.Scores[70])
		}
	}
}

func TestIsolationForest_SmallInput(t *testing.T) {
	res, err := NewIsolationForest().Detect([]float64{1, 2, 3, 100})
	require.NoError(t, err)
	assert.Len(t, res.Labels, 4)

	_, err = NewIsolationForest().Detect([]float64{1})
	assert.True(t, errors.Is(err, ErrInsufficientData))
	_, err = NewIsolationForest().Detect(nil)
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestIsolationForest_ConstantInputIsAllNormal(t *testing.T) {
	values := make([]float64, 50)
	for i := range values {
		values[i] = 7
	}
	res, err := NewIsolationForest().Detect(values)
	require.NoError(t, err)
	assert.Zero(t, res.Count)
}

func TestIsolationForest_Validate(t *testing.T) {
	f := NewIsolationForest()
	f.Contamination = 0
	_, err := f.Detect([]float64{1, 2, 3})
	assert.Error(t, err)

	f = NewIsolationForest()
	f.Trees = 0
	assert.Error(t, f.Validate())
}

func TestAveragePath(t *testing.T) {
	assert.Equal(t, 0.0, averagePath(1))
	assert.Equal(t, 1.0, averagePath(2))
	assert.InDelta(t, 10.244770920116851, averagePath(256), 1e-6)
}

func TestPercentile(t *testing.T) {
	assert.Equal(t, 3.0, percentile([]float64{5, 1, 3}, 0.5))
	assert.InDelta(t, 4.6, percentile([]float64{1, 2, 3, 4, 5}, 0.9), 1e-12)
}

func TestLabelString(t *testing.T) {
	assert.Equal(t, "anomalous", Anomalous.String())
	assert.Equal(t, "normal", Normal.String())
}

var _ Detector = (*IsolationForest)(nil)
