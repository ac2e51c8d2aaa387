package anomaly

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

const eulerGamma = 0.5772156649

// IsolationForest scores values by how quickly random axis splits isolate
// them. Values isolated in fewer splits than average are outliers.
type IsolationForest struct {
	Trees         int
	SampleSize    int
	Contamination float64
	Seed          int64
}

// NewIsolationForest returns a forest with the default parameters.
func NewIsolationForest() *IsolationForest {
	return &IsolationForest{Trees: 100, SampleSize: 256, Contamination: 0.02, Seed: 42}
}

// Validate checks the forest parameters.
func (f *IsolationForest) Validate() error {
	switch {
	case f.Trees < 1:
		return fmt.Errorf("trees must be positive, got %d", f.Trees)
	case f.SampleSize < 2:
		return fmt.Errorf("sample size must be at least 2, got %d", f.SampleSize)
	case !(f.Contamination > 0 && f.Contamination <= 0.5):
		return fmt.Errorf("contamination must be in (0, 0.5], got %g", f.Contamination)
	}
	return nil
}

type node struct {
	split       float64
	left, right *node
	size        int
}

func (n *node) leaf() bool { return n.left == nil }

// Detect implements Detector.
func (f *IsolationForest) Detect(values []float64) (*Result, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if len(values) < 2 {
		return nil, ErrInsufficientData
	}
	psi := f.SampleSize
	if psi > len(values) {
		psi = len(values)
	}
	limit := int(math.Ceil(math.Log2(float64(psi))))

	rng := rand.New(rand.NewSource(f.Seed))
	trees := make([]*node, f.Trees)
	sample := make([]float64, psi)
	for i := range trees {
		for j, idx := range rng.Perm(len(values))[:psi] {
			sample[j] = values[idx]
		}
		trees[i] = grow(rng, append([]float64(nil), sample...), 0, limit)
	}

	norm := averagePath(psi)
	res := &Result{
		Labels: make([]Label, len(values)),
		Scores: make([]float64, len(values)),
	}
	for i, v := range values {
		var sum float64
		for _, t := range trees {
			sum += pathLength(t, v, 0)
		}
		res.Scores[i] = math.Pow(2, -(sum/float64(len(trees)))/norm)
	}

	res.Threshold = percentile(res.Scores, 1-f.Contamination)
	for i, s := range res.Scores {
		if s > res.Threshold {
			res.Labels[i] = Anomalous
			res.Count++
		} else {
			res.Labels[i] = Normal
		}
	}
	return res, nil
}

func grow(rng *rand.Rand, xs []float64, depth, limit int) *node {
	if depth >= limit || len(xs) <= 1 {
		return &node{size: len(xs)}
	}
	lo, hi := xs[0], xs[0]
	for _, x := range xs[1:] {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	if lo == hi {
		return &node{size: len(xs)}
	}
	split := lo + rng.Float64()*(hi-lo)
	var left, right []float64
	for _, x := range xs {
		if x < split {
			left = append(left, x)
		} else {
			right = append(right, x)
		}
	}
	return &node{
		split: split,
		left:  grow(rng, left, depth+1, limit),
		right: grow(rng, right, depth+1, limit),
		size:  len(xs),
	}
}

func pathLength(n *node, x float64, depth int) float64 {
	for !n.leaf() {
		if x < n.split {
			n = n.left
		} else {
			n = n.right
		}
		depth++
	}
	return float64(depth) + averagePath(n.size)
}

// averagePath is the mean path length of an unsuccessful search in a binary
// search tree of n nodes.
func averagePath(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	}
	fn := float64(n)
	return 2*(math.Log(fn-1)+eulerGamma) - 2*(fn-1)/fn
}

// percentile returns the q-quantile of xs, interpolating linearly between
// closest ranks.
func percentile(xs []float64, q float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (pos-float64(lo))*(sorted[hi]-sorted[lo])
}
