// internal/nvs/nvs.go
package nvs

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

// DefaultNamespace is the namespace used when none is configured.
const DefaultNamespace = "oubs-tally"

// document is the on-disk layout of one namespace.
// Values are hex encoded so arbitrary blobs survive the YAML round trip.
type document struct {
	Namespace string            `yaml:"namespace"`
	Values    map[string]string `yaml:"values"`
}

// FileStore is a key/value blob namespace persisted as one YAML file.
// Every Put atomically replaces the whole file.
type FileStore struct {
	mu        sync.Mutex
	path      string
	namespace string
	values    map[string][]byte
}

// OpenFile loads (or creates on first Put) the namespace stored at path.
func OpenFile(path, namespace string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("nvs: path required")
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}

	fs := &FileStore{
		path:      path,
		namespace: namespace,
		values:    map[string][]byte{},
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("nvs: read %s: %w", path, err)
	}

	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("nvs: decode %s: %w", path, err)
	}
	if doc.Namespace != "" && doc.Namespace != namespace {
		return nil, fmt.Errorf("nvs: %s holds namespace %q, want %q", path, doc.Namespace, namespace)
	}

	for k, v := range doc.Values {
		b, err := hex.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("nvs: key %q: %w", k, err)
		}
		fs.values[k] = b
	}

	return fs, nil
}

// Get returns a copy of the blob stored under key.
func (s *FileStore) Get(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Put stores value under key and flushes the namespace to disk.
// On a failed flush the in-memory value is kept; the next Put retries it.
func (s *FileStore) Put(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = append([]byte(nil), value...)
	return s.flush()
}

// Keys lists the stored keys in sorted order.
func (s *FileStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *FileStore) flush() error {
	doc := document{
		Namespace: s.namespace,
		Values:    make(map[string]string, len(s.values)),
	}
	for k, v := range s.values {
		doc.Values[k] = hex.EncodeToString(v)
	}

	raw, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("nvs: encode: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("nvs: mkdir %s: %w", dir, err)
	}

	if err := renameio.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("nvs: write %s: %w", s.path, err)
	}
	return nil
}

// ---- in-memory ----

// MemStore is a volatile namespace, used when no storage path is configured.
type MemStore struct {
	mu     sync.Mutex
	values map[string][]byte
}

// NewMem returns an empty in-memory namespace.
func NewMem() *MemStore {
	return &MemStore{values: map[string][]byte{}}
}

// Get returns a copy of the blob stored under key.
func (m *MemStore) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Put stores a copy of value under key.
func (m *MemStore) Put(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = append([]byte(nil), value...)
	return nil
}
