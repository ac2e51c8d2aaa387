package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

// Resolve returns the first candidate path that exists as a regular file.
func Resolve(candidates []string) (string, error) {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		info, err := os.Stat(c)
		if err == nil && info.Mode().IsRegular() {
			return c, nil
		}
	}
	return "", &FileNotFoundError{Candidates: candidates}
}

// header holds the trimmed column names in file order and the index of the
// first column carrying each name.
type header struct {
	names []string
	index map[string]int
}

func (h header) require(path string, cols ...string) error {
	for _, c := range cols {
		if _, ok := h.index[c]; !ok {
			return &MissingColumnError{Path: path, Column: c}
		}
	}
	return nil
}

func (h header) has(col string) bool {
	_, ok := h.index[col]
	return ok
}

func (h header) cell(rec []string, col string) string {
	i, ok := h.index[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// readCSV opens path, checks the header for the required columns and invokes
// fn for every data row. The record slice is reused between calls.
func readCSV(path string, required []string, fn func(h header, rec []string)) (header, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return header{}, &FileNotFoundError{Candidates: []string{path}}
		}
		return header{}, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = true
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = sniffDelimiter(path)

	first, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return header{}, header{}.require(path, required...)
		}
		return header{}, fmt.Errorf("read header: %w", err)
	}
	h := header{names: make([]string, len(first)), index: make(map[string]int, len(first))}
	for i, name := range first {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF"))
		h.names[i] = name
		if _, dup := h.index[name]; !dup {
			h.index[name] = i
		}
	}
	if err := h.require(path, required...); err != nil {
		return header{}, err
	}
	if fn == nil {
		return h, nil
	}
	line := 1
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return header{}, fmt.Errorf("read row %d: %w", line, err)
		}
		line++
		fn(h, rec)
	}
	return h, nil
}

// Scan reads any delimited file and calls fn for every data row. It returns
// the column names in file order. fn must copy rec if it retains it.
func Scan(path string, fn func(rec []string)) ([]string, error) {
	h, err := readCSV(path, nil, func(_ header, rec []string) { fn(rec) })
	if err != nil {
		return nil, err
	}
	return h.names, nil
}
