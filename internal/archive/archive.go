// Package archive keeps rendered reports on disk with a JSON index.
package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/KaramelBytes/airwater-cli/internal/utils"
)

const indexFileName = "index.json"

// ErrNotFound is returned by Get for an unknown report id.
var ErrNotFound = errors.New("report not found")

// Entry describes one archived report.
type Entry struct {
	ID        string    `json:"id" yaml:"id"`
	Dataset   string    `json:"dataset" yaml:"dataset"`
	Title     string    `json:"title" yaml:"title"`
	Format    string    `json:"format" yaml:"format"`
	File      string    `json:"file" yaml:"file"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

type index struct {
	Entries []Entry `json:"entries"`
}

// Store saves reports under a directory. It is not safe for concurrent use
// across processes.
type Store struct {
	dir   string
	clock clockwork.Clock
}

// NewStore returns a store rooted at dir. A nil clock uses the real clock.
func NewStore(dir string, clock clockwork.Clock) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{dir: dir, clock: clock}
}

// Dir returns the on-disk report directory.
func (s *Store) Dir() string { return s.dir }

func extension(format string) string {
	switch strings.ToLower(format) {
	case "json":
		return ".json"
	case "yaml", "yml":
		return ".yaml"
	default:
		return ".md"
	}
}

func (s *Store) load() (*index, error) {
	b, err := os.ReadFile(filepath.Join(s.dir, indexFileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &index{}, nil
		}
		return nil, fmt.Errorf("read index: %w", err)
	}
	var idx index
	if err := json.Unmarshal(b, &idx); err != nil {
		return nil, fmt.Errorf("parse index: %w", err)
	}
	return &idx, nil
}

// Save writes content as a new report and records it in the index.
func (s *Store) Save(datasetName, title, format string, content []byte) (*Entry, error) {
	if s.dir == "" {
		return nil, errors.New("report directory not set")
	}
	idx, err := s.load()
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	e := Entry{
		ID:        id,
		Dataset:   datasetName,
		Title:     strings.TrimSpace(title),
		Format:    strings.ToLower(format),
		File:      id + extension(format),
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := utils.SafeWriteFile(filepath.Join(s.dir, e.File), content); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}
	idx.Entries = append(idx.Entries, e)
	data, err := utils.PrettyJSON(idx)
	if err != nil {
		return nil, err
	}
	if err := utils.SafeWriteFile(filepath.Join(s.dir, indexFileName), data); err != nil {
		return nil, fmt.Errorf("write index: %w", err)
	}
	return &e, nil
}

// List returns the archived reports, newest first.
func (s *Store) List() ([]Entry, error) {
	idx, err := s.load()
	if err != nil {
		return nil, err
	}
	out := append([]Entry(nil), idx.Entries...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Get returns the entry and content of the report with the given id. A unique
// id prefix is accepted.
func (s *Store) Get(id string) (*Entry, []byte, error) {
	idx, err := s.load()
	if err != nil {
		return nil, nil, err
	}
	var match *Entry
	for i := range idx.Entries {
		e := &idx.Entries[i]
		if e.ID == id {
			match = e
			break
		}
		if id != "" && strings.HasPrefix(e.ID, id) {
			if match != nil {
				return nil, nil, fmt.Errorf("report id prefix %q is ambiguous", id)
			}
			match = e
		}
	}
	if match == nil {
		return nil, nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	b, err := os.ReadFile(filepath.Join(s.dir, match.File))
	if err != nil {
		return nil, nil, fmt.Errorf("read report: %w", err)
	}
	return match, b, nil
}
