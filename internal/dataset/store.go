// Package dataset persists uploaded transaction tables on disk.
//
// Each dataset lives in its own directory under the store root, named by a uuid,
// holding the raw upload and a dataset.json metadata file.
package dataset

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

	"github.com/KaramelBytes/basketlens/internal/basket"
	"github.com/KaramelBytes/basketlens/internal/utils"
	"github.com/google/uuid"
)

const (
	metaFileName = "dataset.json"
	dataFileStem = "data"
	minRefLength = 4
)

var (
	// ErrNotFound is returned when no dataset matches an id.
	ErrNotFound = errors.New("dataset not found")
	// ErrAmbiguous is returned when an id prefix matches several datasets.
	ErrAmbiguous = errors.New("dataset id prefix is ambiguous")
)

// Dataset is the metadata of one stored table.
type Dataset struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	File        string         `json:"file"`
	Size        int64          `json:"size"`
	Summary     basket.Summary `json:"summary"`
	CreatedAt   time.Time      `json:"created_at"`

	// on-disk directory of the dataset
	dir string
}

// Dir returns the dataset directory.
func (d *Dataset) Dir() string { return d.dir }

// DataPath returns the path of the stored table.
func (d *Dataset) DataPath() string { return filepath.Join(d.dir, d.File) }

// Load parses the stored table.
func (d *Dataset) Load() ([]basket.Transaction, error) {
	return basket.LoadFile(d.DataPath(), basket.Options{})
}

// Store manages datasets under a root directory.
type Store struct {
	root string
}

// NewStore opens (and creates) a store rooted at dir. A leading "~" is expanded.
func NewStore(dir string) (*Store, error) {
	root, err := utils.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	if err := utils.EnsureDir(root); err != nil {
		return nil, fmt.Errorf("ensure store dir: %w", err)
	}
	return &Store{root: root}, nil
}

// Root returns the store directory.
func (s *Store) Root() string { return s.root }

// Add parses data as a table named name and stores it. Nothing is written when the
// table does not parse.
func (s *Store) Add(name string, data []byte, description string) (*Dataset, error) {
	txs, err := basket.Load(name, data, basket.Options{})
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(name), err)
	}
	d := &Dataset{
		ID:          uuid.NewString(),
		Name:        filepath.Base(name),
		Description: strings.TrimSpace(description),
		File:        dataFileStem + strings.ToLower(filepath.Ext(name)),
		Size:        int64(len(data)),
		Summary:     basket.Summarize(txs),
		CreatedAt:   time.Now().UTC(),
	}
	d.dir = filepath.Join(s.root, d.ID)
	if err := utils.EnsureDir(d.dir); err != nil {
		return nil, fmt.Errorf("ensure dataset dir: %w", err)
	}
	if err := utils.SafeWriteFile(d.DataPath(), data); err != nil {
		_ = os.RemoveAll(d.dir)
		return nil, err
	}
	if err := s.save(d); err != nil {
		_ = os.RemoveAll(d.dir)
		return nil, err
	}
	return d, nil
}

// AddFile stores the table at path.
func (s *Store) AddFile(path, description string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return s.Add(path, data, description)
}

func (s *Store) save(d *Dataset) error {
	b, err := utils.PrettyJSON(d)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(d.dir, metaFileName), b)
}

func (s *Store) load(id string) (*Dataset, error) {
	dir := filepath.Join(s.root, id)
	b, err := os.ReadFile(filepath.Join(dir, metaFileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var d Dataset
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", id, err)
	}
	d.dir = dir
	return &d, nil
}

func validRef(ref string) bool {
	return ref != "" && ref != "." && ref != ".." && filepath.Base(ref) == ref && !strings.ContainsAny(ref, `/\`)
}

// Get returns the dataset with the given id, or the single dataset whose id starts
// with ref when ref is at least four characters long.
func (s *Store) Get(ref string) (*Dataset, error) {
	ref = strings.TrimSpace(ref)
	if !validRef(ref) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, ref)
	}
	if d, err := s.load(ref); err == nil || !errors.Is(err, ErrNotFound) {
		return d, err
	}
	if len(ref) < minRefLength {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	var match *Dataset
	for _, d := range all {
		if !strings.HasPrefix(d.ID, ref) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("%w: %s", ErrAmbiguous, ref)
		}
		match = d
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	return match, nil
}

// Open resolves ref and parses its table.
func (s *Store) Open(ref string) (*Dataset, []basket.Transaction, error) {
	d, err := s.Get(ref)
	if err != nil {
		return nil, nil, err
	}
	txs, err := d.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load dataset %s: %w", d.ID, err)
	}
	return d, txs, nil
}

// List returns every dataset, oldest first. Directories without readable
// metadata are skipped.
func (s *Store) List() ([]*Dataset, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}
	var out []*Dataset
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		d, err := s.load(e.Name())
		if err != nil {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Remove deletes the dataset matching ref and returns what was removed.
func (s *Store) Remove(ref string) (*Dataset, error) {
	d, err := s.Get(ref)
	if err != nil {
		return nil, err
	}
	if err := os.RemoveAll(d.dir); err != nil {
		return nil, fmt.Errorf("remove dataset: %w", err)
	}
	return d, nil
}
