package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"followgraph/pkg/models"
	"followgraph/pkg/storage"
)

// RegistryFile is the name of the persisted registry
const RegistryFile = "registry.json"

// ErrMiss is returned when an edge blob is absent or unreadable
var ErrMiss = errors.New("cache miss")

// Store persists the registry and the per-target edge blobs
type Store interface {
	LoadRegistry() (Registry, error)
	SaveRegistry(Registry) error
	LoadEdges(id string, direction models.Direction) ([]models.Profile, error)
	SaveEdges(id string, direction models.Direction, profiles []models.Profile) error
}

// EdgesFile names the blob for one target and direction
func EdgesFile(id string, direction models.Direction) string {
	return fmt.Sprintf("%s.%s.json", id, direction)
}

// FileStore keeps the cache as JSON files in one directory
type FileStore struct {
	files *storage.Manager
}

// NewFileStore opens or creates a cache directory
func NewFileStore(dir string) (*FileStore, error) {
	files, err := storage.NewManager(dir)
	if err != nil {
		return nil, err
	}
	return &FileStore{files: files}, nil
}

// Dir returns the cache directory
func (s *FileStore) Dir() string {
	return s.files.Dir()
}

// LoadRegistry reads the registry. A missing file is an empty registry; a
// malformed one returns ErrMiss.
func (s *FileStore) LoadRegistry() (Registry, error) {
	data, err := s.files.ReadFile(RegistryFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Registry{}, nil
		}
		return nil, fmt.Errorf("reading registry: %w", err)
	}

	registry := Registry{}
	if err := json.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMiss, RegistryFile, err)
	}
	if registry == nil {
		registry = Registry{}
	}
	return registry, nil
}

// SaveRegistry rewrites the whole registry, pretty-printed
func (s *FileStore) SaveRegistry(registry Registry) error {
	return s.files.WriteJSON(RegistryFile, registry)
}

// LoadEdges reads one blob. Missing or malformed blobs return ErrMiss.
func (s *FileStore) LoadEdges(id string, direction models.Direction) ([]models.Profile, error) {
	var profiles []models.Profile
	if err := s.files.ReadJSON(EdgesFile(id, direction), &profiles); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMiss, EdgesFile(id, direction), err)
	}
	if profiles == nil {
		return nil, fmt.Errorf("%w: %s: not a list", ErrMiss, EdgesFile(id, direction))
	}
	return profiles, nil
}

// SaveEdges replaces one blob
func (s *FileStore) SaveEdges(id string, direction models.Direction, profiles []models.Profile) error {
	if profiles == nil {
		profiles = []models.Profile{}
	}
	return s.files.WriteJSON(EdgesFile(id, direction), profiles)
}

// MemoryStore is an in-process Store for tests and dry runs
type MemoryStore struct {
	mu       sync.Mutex
	registry Registry
	edges    map[string][]models.Profile
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		registry: Registry{},
		edges:    make(map[string][]models.Profile),
	}
}

func (s *MemoryStore) LoadRegistry() (Registry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Clone(), nil
}

func (s *MemoryStore) SaveRegistry(registry Registry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry = registry.Clone()
	return nil
}

func (s *MemoryStore) LoadEdges(id string, direction models.Direction) ([]models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profiles, ok := s.edges[EdgesFile(id, direction)]
	if !ok {
		return nil, ErrMiss
	}
	return append([]models.Profile(nil), profiles...), nil
}

func (s *MemoryStore) SaveEdges(id string, direction models.Direction, profiles []models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges[EdgesFile(id, direction)] = append([]models.Profile{}, profiles...)
	return nil
}

// Drop removes one blob, simulating a lost file
func (s *MemoryStore) Drop(id string, direction models.Direction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.edges, EdgesFile(id, direction))
}
