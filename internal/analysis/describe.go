package analysis

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/airwater-cli/internal/dataset"
)

// Column kinds reported by Describe.
const (
	KindNumeric     = "numeric"
	KindDatetime    = "datetime"
	KindCategorical = "categorical"
	KindText        = "text"
	KindEmpty       = "empty"
)

// DescribeOptions controls the dataset overview.
type DescribeOptions struct {
	// SampleRows is the number of head rows kept in the report.
	SampleRows int
	// TopValues is the number of most frequent values listed per categorical column.
	TopValues int
	// OutlierThreshold is the robust |z| (via MAD) above which a value counts as an outlier.
	OutlierThreshold float64
}

// DefaultDescribeOptions returns the defaults used by the describe command.
func DefaultDescribeOptions() DescribeOptions {
	return DescribeOptions{SampleRows: 5, TopValues: 5, OutlierThreshold: 3.5}
}

// Report is an overview of a tabular dataset.
type Report struct {
	Name    string          `json:"name" yaml:"name"`
	Rows    int             `json:"rows" yaml:"rows"`
	Cols    []ColumnSummary `json:"columns" yaml:"columns"`
	Samples [][]string      `json:"samples" yaml:"samples"`
}

// ColumnSummary captures the inferred kind and statistics of one column.
type ColumnSummary struct {
	Name      string          `json:"name" yaml:"name"`
	Kind      string          `json:"kind" yaml:"kind"`
	NonNull   int             `json:"non_null" yaml:"non_null"`
	Missing   int             `json:"missing" yaml:"missing"`
	Unique    int             `json:"unique" yaml:"unique"`
	Min       float64         `json:"min,omitempty" yaml:"min,omitempty"`
	Max       float64         `json:"max,omitempty" yaml:"max,omitempty"`
	Mean      float64         `json:"mean,omitempty" yaml:"mean,omitempty"`
	Std       float64         `json:"std,omitempty" yaml:"std,omitempty"`
	Outliers  int             `json:"outliers,omitempty" yaml:"outliers,omitempty"`
	TopValues []CategoryCount `json:"top_values,omitempty" yaml:"top_values,omitempty"`
}

type colAcc struct {
	nonNil        int
	numCnt, dtCnt int
	nums          []float64
	cats          map[string]int
}

// Describe scans the file at path and summarizes every column.
func Describe(path string, opt DescribeOptions) (*Report, error) {
	if opt.SampleRows <= 0 {
		opt.SampleRows = 5
	}
	if opt.TopValues <= 0 {
		opt.TopValues = 5
	}
	rep := &Report{Name: filepath.Base(path)}
	var accs []*colAcc
	names, err := dataset.Scan(path, func(rec []string) {
		rep.Rows++
		if len(rep.Samples) < opt.SampleRows {
			rep.Samples = append(rep.Samples, append([]string(nil), rec...))
		}
		for len(accs) < len(rec) {
			accs = append(accs, &colAcc{cats: make(map[string]int)})
		}
		for j, raw := range rec {
			c := accs[j]
			v := strings.TrimSpace(raw)
			if v == "" {
				continue
			}
			c.nonNil++
			if len(c.cats) <= 10000 && len(v) <= 64 {
				c.cats[v]++
			}
			if x, ok := dataset.ParseNumber(v); ok {
				c.numCnt++
				c.nums = append(c.nums, x)
				continue
			}
			if _, ok := dataset.ParseDate(v); ok {
				c.dtCnt++
			}
		}
	})
	if err != nil {
		return nil, err
	}

	for j, name := range names {
		cs := ColumnSummary{Name: name, Kind: KindEmpty}
		if j >= len(accs) {
			rep.Cols = append(rep.Cols, cs)
			continue
		}
		c := accs[j]
		// short rows leave trailing cells unseen, so count them as missing
		cs.NonNull, cs.Missing, cs.Unique = c.nonNil, rep.Rows-c.nonNil, len(c.cats)
		switch {
		case c.nonNil == 0:
		case c.numCnt*2 > c.nonNil:
			cs.Kind = KindNumeric
			cs.Min, cs.Max = floats.Min(c.nums), floats.Max(c.nums)
			cs.Mean, cs.Std = stat.MeanStdDev(c.nums, nil)
			if math.IsNaN(cs.Std) {
				cs.Std = 0
			}
			cs.Outliers = countOutliers(c.nums, opt.OutlierThreshold)
		case c.dtCnt*2 > c.nonNil:
			cs.Kind = KindDatetime
		case len(c.cats) <= 50 || len(c.cats)*2 <= c.nonNil:
			cs.Kind = KindCategorical
			cs.TopValues = topN(c.cats, opt.TopValues)
		default:
			cs.Kind = KindText
		}
		rep.Cols = append(rep.Cols, cs)
	}
	return rep, nil
}

// countOutliers counts values whose robust z-score exceeds threshold.
func countOutliers(vals []float64, threshold float64) int {
	if threshold <= 0 || len(vals) < 3 {
		return 0
	}
	med, mad := medianMAD(vals)
	if mad == 0 {
		return 0
	}
	n := 0
	for _, v := range vals {
		if math.Abs(0.6745*(v-med)/mad) > threshold {
			n++
		}
	}
	return n
}

func medianMAD(vals []float64) (median, mad float64) {
	cp := append([]float64(nil), vals...)
	sort.Float64s(cp)
	median = stat.Quantile(0.5, stat.Empirical, cp, nil)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = stat.Quantile(0.5, stat.Empirical, dev, nil)
	return median, mad
}

// Markdown renders the report.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	fmt.Fprintf(&b, "File: %s\n", r.Name)
	fmt.Fprintf(&b, "Rows: %d\n", r.Rows)
	fmt.Fprintf(&b, "Columns: %d\n\n", len(r.Cols))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100 / float64(total)
		}
		fmt.Fprintf(&b, "- %s: %s (non-null %d, missing %.1f%%)", safeName(c.Name), c.Kind, c.NonNull, missPct)
		switch c.Kind {
		case KindNumeric:
			fmt.Fprintf(&b, "; min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std)
			if c.Outliers > 0 {
				fmt.Fprintf(&b, "; outliers: %d", c.Outliers)
			}
		case KindCategorical:
			if len(c.TopValues) > 0 {
				b.WriteString("; top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					fmt.Fprintf(&b, "%s(%d)", safeVal(kv.Value), kv.Count)
				}
				if c.Unique > len(c.TopValues) {
					fmt.Fprintf(&b, "; unique=%d", c.Unique)
				}
			}
		}
		b.WriteString("\n")
	}

	if len(r.Samples) > 0 && len(r.Cols) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		names := make([]string, len(r.Cols))
		for i, c := range r.Cols {
			names[i] = safeName(c.Name)
		}
		writeRow(&b, names)
		writeRow(&b, repeat("---", len(names)))
		for _, row := range r.Samples {
			cells := make([]string, len(names))
			for i := range cells {
				if i < len(row) {
					cells[i] = safeVal(row[i])
				}
			}
			writeRow(&b, cells)
		}
	}
	return b.String()
}

func writeRow(b *strings.Builder, cells []string) {
	b.WriteString("| ")
	b.WriteString(strings.Join(cells, " | "))
	b.WriteString(" |\n")
}

func repeat(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}

func safeName(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(unnamed)"
	}
	return safeVal(s)
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
