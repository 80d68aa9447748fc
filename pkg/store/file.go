package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/matzehuels/mindmap/pkg/mindmap"
)

// FileStore keeps each map as a JSON file in a directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file-based store rooted at baseDir.
// If baseDir is empty, defaults to $XDG_DATA_HOME/mindmap/maps.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		p, err := defaultPath("maps")
		if err != nil {
			return nil, err
		}
		baseDir = p
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create map dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) mapPath(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

func (s *FileStore) List(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read map dir: %w", err)
	}

	var out []Summary
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name()))
		if err != nil {
			continue
		}
		var sum Summary
		if err := json.Unmarshal(data, &sum); err != nil {
			continue
		}
		if sum.ID == "" {
			sum.ID = strings.TrimSuffix(entry.Name(), ".json")
		}
		out = append(out, sum)
	}
	sortSummaries(out)
	return out, nil
}

func (s *FileStore) Get(ctx context.Context, id string) (*mindmap.Map, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.mapPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, notFound(id)
		}
		return nil, fmt.Errorf("read map file: %w", err)
	}
	m, err := mindmap.ReadJSON(bytes.NewReader(data))
	if err != nil {
		return nil, decodeErr(id, err)
	}
	return m, nil
}

func (s *FileStore) Save(ctx context.Context, m *mindmap.Map) error {
	if err := checkID(m.ID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	if err := mindmap.WriteJSON(m, &buf); err != nil {
		return fmt.Errorf("marshal map: %w", err)
	}
	tmp := s.mapPath(m.ID) + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("write map file: %w", err)
	}
	if err := os.Rename(tmp, s.mapPath(m.ID)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write map file: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.mapPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove map file: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

// Path returns the directory holding the map files.
func (s *FileStore) Path() string {
	return s.baseDir
}

// sortSummaries orders newest first, breaking ties by ID.
func sortSummaries(s []Summary) {
	slices.SortFunc(s, func(a, b Summary) int {
		if a.UpdatedAt != b.UpdatedAt {
			if a.UpdatedAt > b.UpdatedAt {
				return -1
			}
			return 1
		}
		return strings.Compare(a.ID, b.ID)
	})
}

var _ Store = (*FileStore)(nil)
