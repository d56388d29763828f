package mapping

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

// Store persists mappings. Lookups are exact-match filters without ranking.
type Store interface {
	Find(connectionID, schema, table string) []*Mapping
	FindByConnection(connectionID string) []*Mapping
	All() []*Mapping
	Save(m *Mapping) error
	Delete(name string) error
}

// mappingFile is the top-level TOML document.
type mappingFile struct {
	Mappings []*Mapping `toml:"mapping"`
}

// FileStore keeps mappings in a TOML file and rewrites it on every change.
type FileStore struct {
	path     string
	mu       sync.Mutex
	mappings []*Mapping
}

// OpenFileStore loads the mappings at path. A missing file is an empty store.
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}
	var mf mappingFile
	if _, err := toml.DecodeFile(path, &mf); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("toml: decode %q: %w", path, err)
	}
	for _, m := range mf.Mappings {
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("mappings file %q: %w", path, err)
		}
	}
	s.mappings = mf.Mappings
	return s, nil
}

// Find returns the mappings stored for one connection, schema and table.
func (s *FileStore) Find(connectionID, schema, table string) []*Mapping {
	return s.filter(func(m *Mapping) bool {
		return m.ConnectionID == connectionID &&
			strings.EqualFold(m.Schema, schema) &&
			strings.EqualFold(m.Table, table)
	})
}

// FindByConnection returns every mapping stored for a connection.
func (s *FileStore) FindByConnection(connectionID string) []*Mapping {
	return s.filter(func(m *Mapping) bool { return m.ConnectionID == connectionID })
}

// All returns every stored mapping.
func (s *FileStore) All() []*Mapping {
	return s.filter(func(*Mapping) bool { return true })
}

func (s *FileStore) filter(keep func(*Mapping) bool) []*Mapping {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Mapping
	for _, m := range s.mappings {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

// Save adds m or replaces the mapping with the same name.
func (s *FileStore) Save(m *Mapping) error {
	if err := m.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.mappings, func(x *Mapping) bool { return strings.EqualFold(x.Name, m.Name) })
	if i >= 0 {
		s.mappings[i] = m
	} else {
		s.mappings = append(s.mappings, m)
	}
	return s.flush()
}

// Delete removes the named mapping. Deleting an unknown name is an error.
func (s *FileStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.mappings, func(x *Mapping) bool { return strings.EqualFold(x.Name, name) })
	if i < 0 {
		return fmt.Errorf("mapping %q not found", name)
	}
	s.mappings = slices.Delete(s.mappings, i, i+1)
	return s.flush()
}

// flush writes the file atomically through a temporary sibling.
func (s *FileStore) flush() error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create mappings directory: %w", err)
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".mappings-*.toml")
	if err != nil {
		return fmt.Errorf("create temp mappings file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(mappingFile{Mappings: s.mappings}); err != nil {
		tmp.Close()
		return fmt.Errorf("toml: encode mappings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
