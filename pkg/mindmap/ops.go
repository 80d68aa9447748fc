package mindmap

// InsertChild appends a new node as the last child of parentID and returns
// its ID. The new node takes the parent's color. It returns false if the
// parent does not exist.
func (m *Map) InsertChild(parentID string) (string, bool) {
	parent, ok := m.Node(parentID)
	if !ok {
		return "", false
	}
	color := parent.Color
	if color == "" {
		color = m.Settings.LevelColor(m.Depth(parentID) + 1)
	}
	id := m.nextID()
	m.Nodes[id] = &Node{
		ID:       id,
		ParentID: parentID,
		Text:     DefaultNodeText,
		Children: []string{},
		Color:    color,
	}
	parent.Children = append(parent.Children, id)
	m.touch()
	return id, true
}

// InsertSibling inserts a new node after the last child of nodeID's parent.
// The root has no siblings, so it returns false for the root.
func (m *Map) InsertSibling(nodeID string) (string, bool) {
	n, ok := m.Node(nodeID)
	if !ok || n.IsRoot() {
		return "", false
	}
	return m.InsertChild(n.ParentID)
}

// DeleteSubtree removes nodeID and all of its descendants. The root cannot be
// deleted; it returns false for the root and for unknown IDs.
func (m *Map) DeleteSubtree(nodeID string) bool {
	n, ok := m.Node(nodeID)
	if !ok || nodeID == m.RootID || n.IsRoot() {
		return false
	}
	if parent, ok := m.Node(n.ParentID); ok {
		parent.removeChild(nodeID)
	}
	seen := make(map[string]bool)
	var remove func(id string)
	remove = func(id string) {
		child, ok := m.Node(id)
		if !ok || seen[id] {
			return
		}
		seen[id] = true
		for _, c := range child.Children {
			remove(c)
		}
		delete(m.Nodes, id)
	}
	remove(nodeID)
	m.touch()
	return true
}

// Reparent moves nodeID to the end of newParentID's children.
//
// It returns false without changing anything when nodeID is the root, either
// ID is unknown, newParentID already is the parent, or newParentID is nodeID
// or one of its descendants (which would create a cycle).
func (m *Map) Reparent(nodeID, newParentID string) bool {
	n, ok := m.Node(nodeID)
	if !ok || n.IsRoot() || nodeID == m.RootID {
		return false
	}
	newParent, ok := m.Node(newParentID)
	if !ok || n.ParentID == newParentID {
		return false
	}
	if m.IsDescendant(nodeID, newParentID) {
		return false
	}
	if old, ok := m.Node(n.ParentID); ok {
		old.removeChild(nodeID)
	}
	newParent.Children = append(newParent.Children, nodeID)
	n.ParentID = newParentID
	if newParentID != m.RootID {
		n.Side = SideAuto
	}
	m.touch()
	return true
}

// MoveSibling shifts nodeID by offset positions among its siblings.
// It returns false if the node or its parent cannot be resolved, if offset
// is zero, or if the target index falls outside the sibling list.
func (m *Map) MoveSibling(nodeID string, offset int) bool {
	if offset == 0 {
		return false
	}
	parent, ok := m.Parent(nodeID)
	if !ok {
		return false
	}
	from := parent.indexOf(nodeID)
	to := from + offset
	if from < 0 || to < 0 || to >= len(parent.Children) {
		return false
	}
	kids := parent.Children
	kids = append(kids[:from], kids[from+1:]...)
	kids = append(kids[:to], append([]string{nodeID}, kids[to:]...)...)
	parent.Children = kids
	m.touch()
	return true
}

// SetSide assigns the half-plane of a top-level branch. Only direct children
// of the root accept a side; [SideAuto] clears the assignment.
func (m *Map) SetSide(nodeID string, side Side) bool {
	if !side.Valid() {
		return false
	}
	n, ok := m.Node(nodeID)
	if !ok || n.ParentID != m.RootID || nodeID == m.RootID {
		return false
	}
	n.Side = side
	m.touch()
	return true
}

// ToggleCollapse flips the collapsed flag. Leaves cannot be collapsed.
func (m *Map) ToggleCollapse(nodeID string) bool {
	n, ok := m.Node(nodeID)
	if !ok || !n.HasChildren() {
		return false
	}
	n.Collapsed = !n.Collapsed
	m.touch()
	return true
}

// SetImage attaches media to the node, or clears it when media is nil.
// The media value is copied.
func (m *Map) SetImage(nodeID string, media *Media) bool {
	n, ok := m.Node(nodeID)
	if !ok {
		return false
	}
	n.Media = media.Clone()
	m.touch()
	return true
}

// SetText replaces the node's label.
func (m *Map) SetText(nodeID, text string) bool {
	n, ok := m.Node(nodeID)
	if !ok {
		return false
	}
	if n.Text == text {
		return false
	}
	n.Text = text
	m.touch()
	return true
}

// SetTitle renames the map.
func (m *Map) SetTitle(title string) {
	if title == "" {
		title = DefaultTitle
	}
	m.Title = title
	m.touch()
}

// SetSettings replaces the settings with a normalized copy of s.
func (m *Map) SetSettings(s Settings) {
	m.Settings = s.Normalize()
	m.touch()
}

// SetColor records the resolved display color of a node. Colors are derived
// from depth by the layout, so this does not count as a content change.
func (m *Map) SetColor(nodeID, color string) bool {
	n, ok := m.Node(nodeID)
	if !ok {
		return false
	}
	n.Color = color
	return true
}
