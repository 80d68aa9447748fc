package mindmap

// Side selects the half-plane a top-level branch renders in.
// Only children of the root carry a meaningful side.
type Side string

const (
	// SideAuto lets the layout balance the branch onto the emptier side.
	SideAuto Side = ""
	// SideLeft places the branch to the left of the root.
	SideLeft Side = "left"
	// SideRight places the branch to the right of the root.
	SideRight Side = "right"
)

// Valid reports whether s is one of the known sides.
func (s Side) Valid() bool {
	switch s {
	case SideAuto, SideLeft, SideRight:
		return true
	}
	return false
}

// MediaKindImage is the only media kind the editor produces.
const MediaKindImage = "image"

// Media is an optional image attached to a node. Width and Height are the
// display size; the natural dimensions are those of the source image.
type Media struct {
	Kind          string `json:"kind" bson:"kind"`
	DataURL       string `json:"dataUrl" bson:"dataUrl"`
	Width         int    `json:"width" bson:"width"`
	Height        int    `json:"height" bson:"height"`
	NaturalWidth  int    `json:"naturalWidth,omitempty" bson:"naturalWidth,omitempty"`
	NaturalHeight int    `json:"naturalHeight,omitempty" bson:"naturalHeight,omitempty"`
}

// Clone returns a copy of m, or nil for a nil receiver.
func (m *Media) Clone() *Media {
	if m == nil {
		return nil
	}
	c := *m
	return &c
}

// Node is a single mind map entry.
//
// ParentID is empty for the root. Children holds child IDs in display order.
// Color is derived from the node's depth and refreshed after layout; it is
// stored so exports and pastes keep the last rendered color.
type Node struct {
	ID        string   `json:"id" bson:"id"`
	ParentID  string   `json:"parentId,omitempty" bson:"parentId,omitempty"`
	Text      string   `json:"text" bson:"text"`
	Children  []string `json:"children" bson:"children"`
	Color     string   `json:"color,omitempty" bson:"color,omitempty"`
	Media     *Media   `json:"media,omitempty" bson:"media,omitempty"`
	Collapsed bool     `json:"collapsed,omitempty" bson:"collapsed,omitempty"`
	Side      Side     `json:"side,omitempty" bson:"side,omitempty"`
}

// IsRoot reports whether the node has no parent.
func (n *Node) IsRoot() bool { return n.ParentID == "" }

// HasChildren reports whether the node has at least one child.
func (n *Node) HasChildren() bool { return len(n.Children) > 0 }

func (n *Node) clone() *Node {
	c := *n
	c.Children = append([]string{}, n.Children...)
	c.Media = n.Media.Clone()
	return &c
}

func (n *Node) indexOf(childID string) int {
	for i, id := range n.Children {
		if id == childID {
			return i
		}
	}
	return -1
}

func (n *Node) removeChild(childID string) {
	if i := n.indexOf(childID); i >= 0 {
		n.Children = append(n.Children[:i], n.Children[i+1:]...)
	}
}
