// Package session saves and restores viewer states on disk, one directory
// per saved session.
package session

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

	"github.com/san-kum/tentview/internal/mesh"
	"github.com/san-kum/tentview/internal/view"
)

var (
	ErrNotFound  = errors.New("session: not found")
	ErrInvalidID = errors.New("session: invalid id")
)

const (
	metadataFile = "metadata.json"
	geometryFile = "geometry.vtk"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// Session is the saved metadata of one view.
type Session struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Mesh      string     `json:"mesh"`
	Timestamp time.Time  `json:"timestamp"`
	State     view.State `json:"state"`
	Elements  int        `json:"elements"`
	Geometry  bool       `json:"geometry"`
}

// Save writes st under a new id derived from name. When geom is non-nil the
// displayed geometry is exported next to the metadata.
func (s *Store) Save(name, meshPath string, st view.State, geom *mesh.Mesh) (string, error) {
	now := time.Now()
	id := fmt.Sprintf("%s_%d", slug(name), now.UnixNano())
	dir := filepath.Join(s.baseDir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	if abs, err := filepath.Abs(meshPath); err == nil {
		meshPath = abs
	}
	meta := Session{
		ID:        id,
		Name:      name,
		Mesh:      meshPath,
		Timestamp: now,
		State:     st,
	}
	if geom != nil {
		meta.Elements = len(geom.Cells)
		meta.Geometry = true
		if err := mesh.WriteFile(filepath.Join(dir, geometryFile), geom); err != nil {
			return "", err
		}
	}

	f, err := os.Create(filepath.Join(dir, metadataFile))
	if err != nil {
		return "", err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}
	return id, nil
}

// List returns saved sessions, oldest first. Unreadable entries are skipped.
func (s *Store) List() ([]Session, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Session{}, nil
		}
		return nil, err
	}

	sessions := make([]Session, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		sessions = append(sessions, *meta)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Timestamp.Before(sessions[j].Timestamp)
	})
	return sessions, nil
}

func (s *Store) Load(id string) (*Session, error) {
	dir, err := s.dir(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}

	var meta Session
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	return &meta, nil
}

// Latest returns the most recent session with the given name.
func (s *Store) Latest(name string) (*Session, error) {
	sessions, err := s.List()
	if err != nil {
		return nil, err
	}
	for i := len(sessions) - 1; i >= 0; i-- {
		if sessions[i].Name == name {
			return &sessions[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// LoadGeometry reads the geometry exported with a session.
func (s *Store) LoadGeometry(id string) (*mesh.Mesh, error) {
	dir, err := s.dir(id)
	if err != nil {
		return nil, err
	}
	return mesh.Load(filepath.Join(dir, geometryFile))
}

func (s *Store) Delete(id string) error {
	dir, err := s.dir(id)
	if err != nil {
		return err
	}
	if _, err := os.Stat(filepath.Join(dir, metadataFile)); err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return os.RemoveAll(dir)
}

// dir returns the directory of session id. Ids name a single directory
// entry inside the store.
func (s *Store) dir(id string) (string, error) {
	if id == "" || id == "." || strings.Contains(id, "..") ||
		strings.ContainsAny(id, `/\`) || filepath.Base(id) != id {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return filepath.Join(s.baseDir, id), nil
}

func slug(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return "session"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return r
		}
		return '_'
	}, name)
}
