package layout

// Direction is the horizontal half-plane a branch grows into.
type Direction string

const (
	// DirectionNone is reported for the root.
	DirectionNone  Direction = ""
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// Geometry is the computed placement of one visible node. X and Y are the
// top-left corner; Y grows downward.
type Geometry struct {
	ID        string    `json:"id"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	W         float64   `json:"w"`
	H         float64   `json:"h"`
	Depth     int       `json:"depth"`
	Direction Direction `json:"direction"`
	Color     string    `json:"color"`
	Lines     []string  `json:"lines"`

	// SubtreeHeight is the vertical band reserved for the node and its
	// visible descendants.
	SubtreeHeight float64 `json:"subtreeHeight"`

	Collapsed bool `json:"collapsed,omitempty"`
	// HiddenChildren counts the direct children hidden by a collapse.
	HiddenChildren int `json:"hiddenChildren,omitempty"`
}

// Rect returns the node's bounding rectangle.
func (g Geometry) Rect() Rect {
	return Rect{MinX: g.X, MinY: g.Y, MaxX: g.X + g.W, MaxY: g.Y + g.H}
}

// CenterY returns the vertical center of the node.
func (g Geometry) CenterY() float64 { return g.Y + g.H/2 }

// Link is the connector between a parent and one of its visible children.
// (X1, Y1) lies on the parent's edge facing the child and (X2, Y2) on the
// child's edge facing the parent.
type Link struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	X1        float64   `json:"x1"`
	Y1        float64   `json:"y1"`
	X2        float64   `json:"x2"`
	Y2        float64   `json:"y2"`
	Direction Direction `json:"direction"`
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

// Width returns the horizontal span of the rectangle.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns the vertical span of the rectangle.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// CenterX returns the horizontal center point.
func (r Rect) CenterX() float64 { return (r.MinX + r.MaxX) / 2 }

// CenterY returns the vertical center point.
func (r Rect) CenterY() float64 { return (r.MinY + r.MaxY) / 2 }

// Union returns the smallest rectangle containing r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		MinX: min(r.MinX, o.MinX),
		MinY: min(r.MinY, o.MinY),
		MaxX: max(r.MaxX, o.MaxX),
		MaxY: max(r.MaxY, o.MaxY),
	}
}

// Overlaps reports whether r and o share interior area.
func (r Rect) Overlaps(o Rect) bool {
	return r.MinX < o.MaxX && o.MinX < r.MaxX && r.MinY < o.MaxY && o.MinY < r.MaxY
}

// Translate returns r moved by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{MinX: r.MinX + dx, MinY: r.MinY + dy, MaxX: r.MaxX + dx, MaxY: r.MaxY + dy}
}
