package mindmap

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Result is the outcome of [Validate]. Reason is empty when Valid is true.
type Result struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// Err returns nil for a valid result and an error carrying the reason otherwise.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return &InvalidError{Reason: r.Reason}
}

// InvalidError reports a map rejected by [Validate].
type InvalidError struct {
	Reason string
}

func (e *InvalidError) Error() string { return "invalid map: " + e.Reason }

func invalid(format string, args ...any) Result {
	return Result{Reason: fmt.Sprintf(format, args...)}
}

// Validate checks that externally supplied data forms a well-linked tree.
//
// Checks run in order and stop at the first failure:
//
//  1. the map is present
//  2. the root ID is present and not blank
//  3. the node table is present
//  4. the root resolves
//  5. the node table is not empty
//  6. for every node: it is present, its children list exists, and every
//     child ID is non-blank and resolves
//  7. for every non-root node: its parent ID is non-blank, resolves, and
//     the parent lists the node as a child
//
// Nodes are checked in ID order so the reported reason is deterministic.
// Maps built only through the [Map] methods always pass.
func Validate(m *Map) Result {
	if m == nil {
		return invalid("map is missing")
	}
	if strings.TrimSpace(m.RootID) == "" {
		return invalid("root id is missing")
	}
	if m.Nodes == nil {
		return invalid("node table is missing")
	}
	if _, ok := m.Nodes[m.RootID]; !ok {
		return invalid("root node %q not found", m.RootID)
	}
	if len(m.Nodes) == 0 {
		return invalid("map has no nodes")
	}

	for _, id := range sortedIDs(m.Nodes) {
		n := m.Nodes[id]
		if n == nil {
			return invalid("node %q is invalid", id)
		}
		if n.Children == nil {
			return invalid("node %q: children list is invalid", id)
		}
		for _, c := range n.Children {
			if strings.TrimSpace(c) == "" {
				return invalid("node %q: invalid child id", id)
			}
			if child, ok := m.Nodes[c]; !ok || child == nil {
				return invalid("node %q: child %q not found", id, c)
			}
		}
		if n.ParentID == "" {
			if id != m.RootID {
				return invalid("node %q has no parent (only the root may lack one)", id)
			}
			continue
		}
		if id == m.RootID {
			return invalid("root node %q must not have a parent", id)
		}
		if strings.TrimSpace(n.ParentID) == "" {
			return invalid("node %q: invalid parent id", id)
		}
		parent, ok := m.Nodes[n.ParentID]
		if !ok || parent == nil {
			return invalid("node %q: parent %q not found", id, n.ParentID)
		}
		if parent.Children == nil {
			return invalid("node %q: children list is invalid", n.ParentID)
		}
		if parent.indexOf(id) < 0 {
			return invalid("inconsistent link: %q does not list %q as a child", n.ParentID, id)
		}
	}
	return checkShape(m)
}

// checkShape rejects child lists that repeat an ID, nodes listed by a parent
// other than their own, and cycles or islands unreachable from the root. The
// per-node checks above cannot see these.
func checkShape(m *Map) Result {
	for _, id := range sortedIDs(m.Nodes) {
		seen := make(map[string]bool)
		for _, c := range m.Nodes[id].Children {
			if seen[c] {
				return invalid("node %q lists child %q twice", id, c)
			}
			seen[c] = true
			if p := m.Nodes[c].ParentID; p != id {
				return invalid("inconsistent link: %q lists %q whose parent is %q", id, c, p)
			}
		}
	}
	reached := len(m.Subtree(m.RootID))
	if reached != len(m.Nodes) {
		return invalid("%d node(s) unreachable from root %q", len(m.Nodes)-reached, m.RootID)
	}
	return Result{Valid: true}
}

func sortedIDs(nodes map[string]*Node) []string {
	return slices.Sorted(maps.Keys(nodes))
}
