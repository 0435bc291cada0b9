package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Manager reads and atomically replaces whole files inside one directory
type Manager struct {
	dir string
	mu  sync.Mutex
}

// NewManager creates a manager rooted at dir, creating it if needed
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return &Manager{dir: dir}, nil
}

// Dir returns the managed directory
func (m *Manager) Dir() string {
	return m.dir
}

// Path returns the full path of name inside the managed directory
func (m *Manager) Path(name string) string {
	return filepath.Join(m.dir, name)
}

// Exists reports whether name exists
func (m *Manager) Exists(name string) bool {
	_, err := os.Stat(m.Path(name))
	return err == nil
}

// WriteFile replaces name with everything write produces. Data goes to a
// temporary file that is synced and renamed over the target, so readers
// never see a partial file.
func (m *Manager) WriteFile(name string, write func(w io.Writer) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	filename := m.Path(name)
	tempFile := filename + ".tmp"

	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	if err := write(out); err != nil {
		out.Close()
		os.Remove(tempFile)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(tempFile)
		return fmt.Errorf("failed to sync %s: %w", name, err)
	}

	if err := out.Close(); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

// WriteBytes replaces name with data
func (m *Manager) WriteBytes(name string, data []byte) error {
	return m.WriteFile(name, func(w io.Writer) error {
		_, err := io.Copy(w, bytes.NewReader(data))
		return err
	})
}

// WriteJSON replaces name with v encoded as indented JSON
func (m *Manager) WriteJSON(name string, v interface{}) error {
	return m.WriteFile(name, func(w io.Writer) error {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	})
}

// ReadFile returns the contents of name. A missing file returns an error
// satisfying errors.Is(err, fs.ErrNotExist).
func (m *Manager) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(m.Path(name))
}

// ReadJSON decodes name into v
func (m *Manager) ReadJSON(name string, v interface{}) error {
	data, err := m.ReadFile(name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return nil
}
