package dataset

import (
	"fmt"
	"strings"
)

// FileNotFoundError reports that none of the candidate dataset locations exist.
type FileNotFoundError struct {
	Candidates []string
}

func (e *FileNotFoundError) Error() string {
	if e == nil || len(e.Candidates) == 0 {
		return "data file not found"
	}
	return fmt.Sprintf("data file not found (looked in: %s)", strings.Join(e.Candidates, ", "))
}

// MissingColumnError reports that a required column is absent from a dataset header.
type MissingColumnError struct {
	Path   string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("dataset %s does not contain a %q column", e.Path, e.Column)
}
