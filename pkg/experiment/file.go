package experiment

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	gerrors "github.com/matzehuels/gauzecut/pkg/errors"
)

// FileStore keeps records as JSON files under <dir>/<name>/<variant>.json.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// NewFileStore creates a file-based store. If dir is empty it defaults to
// ~/.local/share/gauzecut/experiments.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		dir = filepath.Join(home, ".local", "share", "gauzecut", "experiments")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create experiment dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the base directory.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(name string, variant Variant) string {
	return filepath.Join(s.dir, name, string(variant)+".json")
}

// Save writes r atomically.
func (s *FileStore) Save(ctx context.Context, r *Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := WriteJSON(r, &buf); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(r.Name, r.Variant)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create experiment dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".record-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write record: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename record: %w", err)
	}
	return nil
}

// Load reads a record.
func (s *FileStore) Load(ctx context.Context, name string, variant Variant) (*Record, error) {
	if err := validateKey(name, variant); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.path(name, variant))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, notFound(name, variant)
		}
		return nil, fmt.Errorf("open record: %w", err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// List returns the variants stored for name, in pipeline order.
func (s *FileStore) List(ctx context.Context, name string) ([]Variant, error) {
	if err := gerrors.ValidateExperimentName(name); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read experiment dir: %w", err)
	}
	var out []Variant
	for _, e := range entries {
		v := Variant(strings.TrimSuffix(e.Name(), ".json"))
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" || !slices.Contains(Variants, v) {
			continue
		}
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b Variant) int {
		return slices.Index(Variants, a) - slices.Index(Variants, b)
	})
	return out, nil
}

// Close is a no-op.
func (s *FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)
