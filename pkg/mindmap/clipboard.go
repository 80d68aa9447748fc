package mindmap

// ClipNode is the detached snapshot of one node inside a [Clip].
// Children refer to IDs of the source map.
type ClipNode struct {
	Text      string   `json:"text"`
	Children  []string `json:"children"`
	Color     string   `json:"color,omitempty"`
	Side      Side     `json:"side,omitempty"`
	Media     *Media   `json:"media,omitempty"`
	Collapsed bool     `json:"collapsed,omitempty"`
}

// Clip is a subtree copied out of a map. It shares no memory with the map it
// came from, so later edits on either side do not affect the other.
type Clip struct {
	RootID string              `json:"rootId"`
	Nodes  map[string]ClipNode `json:"nodes"`
}

// Len returns the number of nodes in the clip.
func (c *Clip) Len() int { return len(c.Nodes) }

// CopySubtree snapshots nodeID and its descendants. It returns false if the
// node does not exist.
func CopySubtree(m *Map, nodeID string) (*Clip, bool) {
	if _, ok := m.Node(nodeID); !ok {
		return nil, false
	}
	clip := &Clip{RootID: nodeID, Nodes: make(map[string]ClipNode)}
	for _, id := range m.Subtree(nodeID) {
		n := m.Nodes[id]
		kids := make([]string, 0, len(n.Children))
		for _, c := range n.Children {
			// Dangling children are dropped so the clip stays pasteable.
			if _, ok := m.Node(c); ok {
				kids = append(kids, c)
			}
		}
		clip.Nodes[id] = ClipNode{
			Text:      n.Text,
			Children:  kids,
			Color:     n.Color,
			Side:      n.Side,
			Media:     n.Media.Clone(),
			Collapsed: n.Collapsed,
		}
	}
	return clip, true
}

// wellFormed reports whether every node of the clip is reached exactly once
// from its root and every child resolves.
func (c *Clip) wellFormed() bool {
	if c == nil || c.RootID == "" {
		return false
	}
	if _, ok := c.Nodes[c.RootID]; !ok {
		return false
	}
	seen := make(map[string]bool, len(c.Nodes))
	stack := []string{c.RootID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			return false
		}
		seen[id] = true
		n, ok := c.Nodes[id]
		if !ok {
			return false
		}
		stack = append(stack, n.Children...)
	}
	return len(seen) == len(c.Nodes)
}

// PasteSubtree instantiates clip as the last child of targetID and returns
// the ID of the pasted root. Every clip node gets a fresh ID from the same
// allocator used by [Map.InsertChild], so pasted IDs never collide with
// existing ones. It returns false if the target is unknown or the clip is
// malformed.
func PasteSubtree(m *Map, clip *Clip, targetID string) (string, bool) {
	target, ok := m.Node(targetID)
	if !ok || !clip.wellFormed() {
		return "", false
	}

	// Allocate in pre-order so IDs follow the shape of the subtree.
	order := make([]string, 0, len(clip.Nodes))
	var collect func(id string)
	collect = func(id string) {
		order = append(order, id)
		for _, c := range clip.Nodes[id].Children {
			collect(c)
		}
	}
	collect(clip.RootID)

	remap := make(map[string]string, len(order))
	for _, oldID := range order {
		newID := m.nextID()
		remap[oldID] = newID
		// Reserve the ID before allocating the next one.
		m.Nodes[newID] = nil
	}

	for _, oldID := range order {
		src := clip.Nodes[oldID]
		n := &Node{
			ID:        remap[oldID],
			Text:      src.Text,
			Children:  make([]string, len(src.Children)),
			Color:     src.Color,
			Side:      src.Side,
			Media:     src.Media.Clone(),
			Collapsed: src.Collapsed && len(src.Children) > 0,
		}
		for i, c := range src.Children {
			n.Children[i] = remap[c]
		}
		m.Nodes[n.ID] = n
	}
	for _, oldID := range order {
		for _, c := range clip.Nodes[oldID].Children {
			m.Nodes[remap[c]].ParentID = remap[oldID]
		}
	}

	newRoot := m.Nodes[remap[clip.RootID]]
	newRoot.ParentID = targetID
	if targetID != m.RootID {
		newRoot.Side = SideAuto
	}
	target.Children = append(target.Children, newRoot.ID)
	m.touch()
	return newRoot.ID, true
}
