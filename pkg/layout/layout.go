package layout

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mindmap/pkg/mindmap"
)

// Sizing constants, in pixels.
const (
	MinNodeWidth  = 80.0
	MaxNodeWidth  = 200.0
	MinNodeHeight = 40.0
	LineHeight    = 20.0
	HGap          = 60.0
	VGap          = 20.0
	CharWidth     = 8.0
	Padding       = 20.0
	MediaMargin   = 10.0

	// FallbackSize is the band height given to dangling or repeated nodes.
	FallbackSize = 40.0
)

// MaxTextWidth is the widest a node's text column can get.
const MaxTextWidth = MaxNodeWidth - Padding

// Options configures [Compute].
type Options struct {
	// Logger receives a warning for every malformed reference. Nil
	// discards them.
	Logger *log.Logger
}

// Layout is the result of [Compute]. It shares nothing with the map it was
// computed from and is safe to read concurrently.
type Layout struct {
	// Nodes holds the geometry of every visible node.
	Nodes map[string]Geometry `json:"nodes"`
	// Order lists the visible nodes in pre-order (root first, children in
	// display order).
	Order []string `json:"order"`
	Links []Link   `json:"links"`
	// Bounds encloses every visible node. It is centered on the origin.
	Bounds   Rect     `json:"bounds"`
	Warnings []string `json:"warnings,omitempty"`
}

// Node returns the geometry of a visible node.
func (l *Layout) Node(id string) (Geometry, bool) {
	g, ok := l.Nodes[id]
	return g, ok
}

// Visible reports whether id was laid out.
func (l *Layout) Visible(id string) bool {
	_, ok := l.Nodes[id]
	return ok
}

// band is one child slot in a parent's vertical stack.
type band struct {
	id     string
	height float64
	placed bool
}

type engine struct {
	m        *mindmap.Map
	logger   *log.Logger
	geo      map[string]*Geometry
	kids     map[string][]band
	seen     map[string]bool
	order    []string
	warnings []string
}

// Compute lays out the visible part of m. It never modifies m and never
// fails; see the package documentation for how malformed data is handled.
// Calling Compute twice on an unchanged map yields identical results.
func Compute(m *mindmap.Map, opts Options) *Layout {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	e := &engine{
		m:      m,
		logger: logger,
		geo:    make(map[string]*Geometry),
		kids:   make(map[string][]band),
		seen:   make(map[string]bool),
	}

	l := &Layout{Nodes: map[string]Geometry{}}
	if m == nil {
		e.warn("no map to lay out")
		l.Warnings = e.warnings
		return l
	}
	if _, ok := m.Node(m.RootID); !ok {
		e.warn("root node %q not found", m.RootID)
		l.Warnings = e.warnings
		return l
	}

	e.measure(m.RootID, 0)
	e.placeRoot()
	e.center()

	l.Order = e.order
	for _, id := range e.order {
		l.Nodes[id] = *e.geo[id]
	}
	l.Links = e.links()
	l.Bounds = e.bounds()
	l.Warnings = e.warnings
	return l
}

func (e *engine) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	e.warnings = append(e.warnings, msg)
	e.logger.Warn("Layout fallback", "reason", msg)
}

// measure sizes id and its visible descendants and returns the height of the
// band id needs. placed reports whether id received geometry.
func (e *engine) measure(id string, depth int) (height float64, placed bool) {
	n, ok := e.m.Node(id)
	if !ok {
		e.warn("node %q not found", id)
		return FallbackSize, false
	}
	if e.seen[id] {
		e.warn("node %q reached twice, possible cycle", id)
		return FallbackSize, false
	}
	e.seen[id] = true

	g := measureNode(n)
	g.Depth = depth
	g.Color = e.m.Settings.LevelColor(depth)
	e.geo[id] = g
	e.order = append(e.order, id)

	g.SubtreeHeight = g.H
	if n.Collapsed {
		g.HiddenChildren = len(n.Children)
		return g.SubtreeHeight, true
	}
	if len(n.Children) == 0 {
		return g.SubtreeHeight, true
	}

	bands := make([]band, 0, len(n.Children))
	for _, c := range n.Children {
		h, ok := e.measure(c, depth+1)
		bands = append(bands, band{id: c, height: h, placed: ok})
	}
	e.kids[id] = bands

	if id == e.m.RootID {
		left, right := e.split(bands)
		g.SubtreeHeight = max(g.H, stackHeight(left), stackHeight(right))
	} else {
		g.SubtreeHeight = max(g.H, stackHeight(bands))
	}
	return g.SubtreeHeight, true
}

// measureNode computes the box of a single node from its text and image.
func measureNode(n *mindmap.Node) *Geometry {
	var mediaW, mediaH float64
	if n.Media != nil {
		mediaW = float64(n.Media.Width) + MediaMargin
		mediaH = float64(n.Media.Height) + MediaMargin
	}
	lines := Wrap(n.Text, MaxTextWidth-mediaW)
	return &Geometry{
		ID:        n.ID,
		W:         max(MinNodeWidth, min(TextWidth(n.Text), MaxTextWidth)+Padding+mediaW),
		H:         max(MinNodeHeight, float64(len(lines))*LineHeight+MediaMargin, mediaH),
		Lines:     lines,
		Collapsed: n.Collapsed,
	}
}

func stackHeight(bands []band) float64 {
	if len(bands) == 0 {
		return 0
	}
	total := VGap * float64(len(bands)-1)
	for _, b := range bands {
		total += b.height
	}
	return total
}

// split assigns the root's child bands to the left and right halves.
// Explicit sides are honored first; the remaining children go, in order, to
// the half with fewer members, preferring the right on ties.
func (e *engine) split(bands []band) (left, right []band) {
	var nLeft, nRight int
	for _, b := range bands {
		switch e.sideOf(b.id) {
		case mindmap.SideLeft:
			nLeft++
		case mindmap.SideRight:
			nRight++
		}
	}
	for _, b := range bands {
		side := e.sideOf(b.id)
		if side == mindmap.SideAuto {
			if nLeft < nRight {
				side = mindmap.SideLeft
				nLeft++
			} else {
				side = mindmap.SideRight
				nRight++
			}
		}
		if side == mindmap.SideLeft {
			left = append(left, b)
		} else {
			right = append(right, b)
		}
	}
	return left, right
}

func (e *engine) sideOf(id string) mindmap.Side {
	n, ok := e.m.Node(id)
	if !ok || !n.Side.Valid() {
		return mindmap.SideAuto
	}
	return n.Side
}

func (e *engine) placeRoot() {
	root := e.geo[e.m.RootID]
	root.X = 0
	root.Y = -root.H / 2
	root.Direction = DirectionNone

	left, right := e.split(e.kids[e.m.RootID])
	e.placeStack(root, left, DirectionLeft, 0)
	e.placeStack(root, right, DirectionRight, 0)
}

// placeStack centers bands on centerY and places each child beside parent
// in direction dir.
func (e *engine) placeStack(parent *Geometry, bands []band, dir Direction, centerY float64) {
	start := centerY - stackHeight(bands)/2
	for _, b := range bands {
		if b.placed {
			e.place(b.id, parent, dir, start+b.height/2)
		}
		start += b.height + VGap
	}
}

func (e *engine) place(id string, parent *Geometry, dir Direction, centerY float64) {
	g := e.geo[id]
	g.Direction = dir
	if dir == DirectionLeft {
		g.X = parent.X - HGap - g.W
	} else {
		g.X = parent.X + parent.W + HGap
	}
	g.Y = centerY - g.H/2
	e.placeStack(g, e.kids[id], dir, centerY)
}

// center translates every node so the bounding box is centered on the
// origin.
func (e *engine) center() {
	b := e.bounds()
	dx, dy := -b.CenterX(), -b.CenterY()
	for _, id := range e.order {
		g := e.geo[id]
		g.X += dx
		g.Y += dy
	}
}

func (e *engine) bounds() Rect {
	var r Rect
	for i, id := range e.order {
		if i == 0 {
			r = e.geo[id].Rect()
			continue
		}
		r = r.Union(e.geo[id].Rect())
	}
	return r
}

func (e *engine) links() []Link {
	var links []Link
	for _, id := range e.order {
		parent := e.geo[id]
		for _, b := range e.kids[id] {
			if !b.placed {
				continue
			}
			child := e.geo[b.id]
			link := Link{From: id, To: b.id, Direction: child.Direction, Y1: parent.CenterY(), Y2: child.CenterY()}
			if child.Direction == DirectionLeft {
				link.X1 = parent.X
				link.X2 = child.X + child.W
			} else {
				link.X1 = parent.X + parent.W
				link.X2 = child.X
			}
			links = append(links, link)
		}
	}
	return links
}
