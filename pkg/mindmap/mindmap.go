package mindmap

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultTitle is the title given to new maps.
	DefaultTitle = "MindMap"
	// DefaultRootText is the label of a new map's root.
	DefaultRootText = "Root"
	// DefaultNodeText is the label of inserted nodes.
	DefaultNodeText = "Node"

	// FormatVersion is the version stamped on new maps.
	FormatVersion = 1

	idPrefix    = "n"
	mapIDPrefix = "map-"
)

// nowMillis is replaced in tests to get deterministic timestamps.
var nowMillis = func() int64 { return time.Now().UnixMilli() }

// Map is a mind map: an ID-keyed node table plus the root ID, title,
// settings and timestamps. Create one with [New] or decode one with [ReadJSON].
//
// The zero value is not usable.
type Map struct {
	ID        string           `json:"id" bson:"_id"`
	Title     string           `json:"title" bson:"title"`
	RootID    string           `json:"rootId" bson:"rootId"`
	Nodes     map[string]*Node `json:"nodes" bson:"nodes"`
	Settings  Settings         `json:"settings" bson:"settings"`
	CreatedAt int64            `json:"createdAt" bson:"createdAt"`
	UpdatedAt int64            `json:"updatedAt" bson:"updatedAt"`
	Version   int              `json:"version" bson:"version"`
}

// New creates a map holding a single root node.
func New(title string, settings Settings) *Map {
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}
	settings = settings.Normalize()
	now := nowMillis()
	rootID := idPrefix + "1"
	return &Map{
		ID:     NewMapID(),
		Title:  title,
		RootID: rootID,
		Nodes: map[string]*Node{
			rootID: {ID: rootID, Text: DefaultRootText, Children: []string{}, Color: settings.LevelColor(0)},
		},
		Settings:  settings,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   FormatVersion,
	}
}

// NewMapID returns a fresh map identifier of the form "map-<12 hex digits>".
func NewMapID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return mapIDPrefix + hex[:12]
}

// Node returns the node with the given ID.
func (m *Map) Node(id string) (*Node, bool) {
	n, ok := m.Nodes[id]
	return n, ok && n != nil
}

// Root returns the root node, or nil if the map is malformed.
func (m *Map) Root() *Node {
	n, _ := m.Node(m.RootID)
	return n
}

// Parent returns the parent of id, or false for the root and unknown IDs.
func (m *Map) Parent(id string) (*Node, bool) {
	n, ok := m.Node(id)
	if !ok || n.IsRoot() {
		return nil, false
	}
	return m.Node(n.ParentID)
}

// Len returns the number of nodes.
func (m *Map) Len() int { return len(m.Nodes) }

// Depth returns the number of edges between id and the root, or -1 if id is
// unknown or its ancestor chain is broken.
func (m *Map) Depth(id string) int {
	depth := 0
	seen := make(map[string]bool)
	for {
		n, ok := m.Node(id)
		if !ok || seen[id] {
			return -1
		}
		if n.IsRoot() {
			return depth
		}
		seen[id] = true
		id = n.ParentID
		depth++
	}
}

// IsDescendant reports whether candidate is ancestor itself or lies in its
// subtree. It searches downward from ancestor and tolerates cycles.
func (m *Map) IsDescendant(ancestor, candidate string) bool {
	seen := make(map[string]bool)
	stack := []string{ancestor}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == candidate {
			return true
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		if n, ok := m.Node(id); ok {
			stack = append(stack, n.Children...)
		}
	}
	return false
}

// Walk visits the tree depth-first in display order, starting at the root.
// Returning false from fn skips the node's children. Nodes are visited at
// most once even if the data contains a cycle.
func (m *Map) Walk(fn func(n *Node, depth int) bool) {
	seen := make(map[string]bool)
	var visit func(id string, depth int)
	visit = func(id string, depth int) {
		n, ok := m.Node(id)
		if !ok || seen[id] {
			return
		}
		seen[id] = true
		if !fn(n, depth) {
			return
		}
		for _, c := range n.Children {
			visit(c, depth+1)
		}
	}
	visit(m.RootID, 0)
}

// Subtree returns the IDs of id and all its descendants in pre-order.
func (m *Map) Subtree(id string) []string {
	var ids []string
	seen := make(map[string]bool)
	var visit func(string)
	visit = func(id string) {
		n, ok := m.Node(id)
		if !ok || seen[id] {
			return
		}
		seen[id] = true
		ids = append(ids, id)
		for _, c := range n.Children {
			visit(c)
		}
	}
	visit(id)
	return ids
}

// Clone returns a deep copy of the map.
func (m *Map) Clone() *Map {
	c := *m
	c.Nodes = make(map[string]*Node, len(m.Nodes))
	for id, n := range m.Nodes {
		if n != nil {
			c.Nodes[id] = n.clone()
		}
	}
	c.Settings.LevelColors = append([]string{}, m.Settings.LevelColors...)
	return &c
}

// nextID allocates an unused node ID by counting up from the node count.
func (m *Map) nextID() string {
	for k := len(m.Nodes) + 1; ; k++ {
		id := idPrefix + strconv.Itoa(k)
		if _, taken := m.Nodes[id]; !taken {
			return id
		}
	}
}

// touch advances UpdatedAt, keeping it strictly increasing even when the
// clock does not move between two mutations.
func (m *Map) touch() {
	now := nowMillis()
	if now <= m.UpdatedAt {
		now = m.UpdatedAt + 1
	}
	m.UpdatedAt = now
}
