package mindmap

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadJSON decodes a map from r and adopts it only if it is well formed.
//
// The input is the plain record written by [WriteJSON]:
//
//	{
//	  "id": "map-1a2b3c4d5e6f",
//	  "title": "Ideas",
//	  "rootId": "n1",
//	  "nodes": {
//	    "n1": {"id": "n1", "text": "Root", "children": ["n2"]},
//	    "n2": {"id": "n2", "parentId": "n1", "text": "Node", "children": []}
//	  },
//	  "settings": {"levelColors": ["#ffffff"], "fontFamily": "sans-serif", "fontSize": 14}
//	}
//
// Settings are normalized, node IDs are taken from the table keys, and
// missing metadata (map ID, version, timestamps) is filled in. The structure
// is then checked with [Validate]; a failing map is returned as an
// [*InvalidError] and nothing is adopted. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*Map, error) {
	var m Map
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := Adopt(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Adopt prepares a decoded map for use: it repairs settings and metadata and
// then validates the structure. The map must not be used if Adopt fails.
func Adopt(m *Map) error {
	if m == nil {
		return Validate(nil).Err()
	}
	for id, n := range m.Nodes {
		if n != nil {
			n.ID = id
		}
	}
	if res := Validate(m); !res.Valid {
		return res.Err()
	}
	m.Settings = m.Settings.Normalize()
	if strings.TrimSpace(m.ID) == "" {
		m.ID = NewMapID()
	}
	if strings.TrimSpace(m.Title) == "" {
		m.Title = DefaultTitle
	}
	if m.Version == 0 {
		m.Version = FormatVersion
	}
	if m.CreatedAt == 0 {
		m.CreatedAt = nowMillis()
	}
	if m.UpdatedAt < m.CreatedAt {
		m.UpdatedAt = m.CreatedAt
	}
	return nil
}

// ImportJSON reads a map from the JSON file at path. See [ReadJSON].
func ImportJSON(path string) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// WriteJSON encodes m as indented JSON. The output can be read back with
// [ReadJSON].
func WriteJSON(m *Map, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes m to a JSON file at path.
func ExportJSON(m *Map, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(m, f)
}
