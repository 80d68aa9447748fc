// Package mindmap provides the mind map tree model and its mutation API.
//
// # Overview
//
// A [Map] is an arena of [Node] records keyed by string ID, plus the ID of the
// root node. Parent and child links are plain IDs: every node stores its
// ParentID and an ordered Children slice, and the two directions are kept in
// sync by the mutation methods on [Map]. The tree invariants are:
//
//   - RootID resolves and the root has no parent
//   - every non-root node's parent exists and lists the node exactly once
//   - the parent/child relation is acyclic
//   - every child ID resolves
//
// # Mutations
//
// Structural edits go through the methods of [Map]: [Map.InsertChild],
// [Map.InsertSibling], [Map.DeleteSubtree], [Map.Reparent], [Map.MoveSibling],
// [Map.SetSide], [Map.ToggleCollapse], [Map.SetImage] and [Map.SetText].
// Each one either applies completely and bumps [Map.UpdatedAt], or returns a
// false/empty result and leaves the map untouched. Expected failures (unknown
// IDs, cycles, deleting the root) are never reported as errors or panics.
//
//	m := mindmap.New("Ideas", mindmap.DefaultSettings())
//	a, _ := m.InsertChild(m.RootID)
//	b, _ := m.InsertChild(m.RootID)
//	m.MoveSibling(b, -1) // root children: [b, a]
//	m.Reparent(b, a)     // root children: [a]; a children: [b]
//	m.Reparent(a, b)     // false: b is a descendant of a
//
// # Clipboard
//
// [CopySubtree] detaches a deep copy of a subtree into a [Clip]; [PasteSubtree]
// instantiates it under a target with fresh IDs. Clips are independent of the
// source map and can be pasted any number of times.
//
// # Interchange
//
// [ReadJSON] and [ImportJSON] decode externally supplied maps. The settings are
// normalized and the structure is checked with [Validate] before the map is
// returned, so a caller never adopts a half-valid tree. [WriteJSON] and
// [ExportJSON] produce the same plain record.
//
// # Concurrency
//
// A Map is owned by a single writer and is not safe for concurrent use. Wrap it
// in an editor session when several goroutines need access.
package mindmap
