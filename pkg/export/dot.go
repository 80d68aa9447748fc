package export

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"image"
	"image/png"
	"math"
	"strings"

	"github.com/goccy/go-graphviz"
	"golang.org/x/image/draw"

	"github.com/matzehuels/mindmap/pkg/layout"
	"github.com/matzehuels/mindmap/pkg/media"
	"github.com/matzehuels/mindmap/pkg/mindmap"
)

// pointsPerInch converts layout units to the inches Graphviz sizes nodes in.
const pointsPerInch = 72.0

// DOT converts the visible part of m to Graphviz source. Every node is pinned
// at the position l gave it, so neato draws the same picture as [SVG]:
// left branches stay left and bands keep their spacing. Links leave and
// enter nodes on the sides they face. Nodes with an image reserve its space
// in the label; [PNG] draws the image there.
func DOT(m *mindmap.Map, l *layout.Layout) string {
	s := m.Settings.Normalize()
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  layout=neato;\n")
	fmt.Fprintf(&buf, "  inputscale=%g;\n", pointsPerInch)
	fmt.Fprintf(&buf, "  dpi=%g;\n", pointsPerInch)
	buf.WriteString("  pad=0;\n")
	buf.WriteString("  bgcolor=\"white\";\n")
	buf.WriteString("  outputorder=edgesfirst;\n")
	fmt.Fprintf(&buf, "  node [shape=box, style=\"rounded,filled\", fixedsize=true, margin=0, fontname=%q, fontsize=%g];\n",
		s.FontFamily, s.FontSize)
	buf.WriteString("  edge [arrowhead=none, color=\"#999999\", penwidth=2];\n")
	buf.WriteString("\n")

	for _, id := range l.Order {
		var md *mindmap.Media
		if n, ok := m.Node(id); ok {
			md = imageMedia(n)
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", id, strings.Join(dotAttrs(l.Nodes[id], md), ", "))
	}

	buf.WriteString("\n")
	for _, link := range l.Links {
		tail, head := "e", "w"
		if link.Direction == layout.DirectionLeft {
			tail, head = "w", "e"
		}
		fmt.Fprintf(&buf, "  %q -> %q [tailport=%s, headport=%s];\n", link.From, link.To, tail, head)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// dotPos returns the pinned center of g. Graphviz's y axis points up.
func dotPos(g layout.Geometry) (float64, float64) {
	return g.X + g.W/2, -(g.Y + g.H/2)
}

func dotAttrs(g layout.Geometry, md *mindmap.Media) []string {
	lines := g.Lines
	if strings.TrimSpace(strings.Join(lines, "")) == "" {
		lines = []string{EmptyText}
	}
	if g.Collapsed && g.HiddenChildren > 0 {
		lines = append(lines[:len(lines):len(lines)], fmt.Sprintf("(+%d)", g.HiddenChildren))
	}

	x, y := dotPos(g)
	attrs := []string{
		dotLabel(lines, md),
		fmt.Sprintf("pos=\"%.1f,%.1f!\"", x, y),
		fmt.Sprintf("width=%.3f", g.W/pointsPerInch),
		fmt.Sprintf("height=%.3f", g.H/pointsPerInch),
	}
	if g.Color != "" {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", g.Color), fmt.Sprintf("fontcolor=%q", TextColor(g.Color)))
	}
	if g.Collapsed {
		attrs = append(attrs, "penwidth=2")
	}
	return attrs
}

// dotLabel returns a plain label, or an HTML table with an empty cell the
// size of the image when md is set.
func dotLabel(lines []string, md *mindmap.Media) string {
	if md == nil {
		return fmt.Sprintf("label=%q", strings.Join(lines, "\n"))
	}
	escaped := make([]string, len(lines))
	for i, line := range lines {
		escaped[i] = html.EscapeString(line)
	}
	return fmt.Sprintf(`label=<<TABLE BORDER="0" CELLSPACING="0" CELLPADDING="0"><TR>`+
		`<TD WIDTH="%d" HEIGHT="%d" FIXEDSIZE="TRUE"></TD><TD WIDTH="%g"></TD><TD>%s</TD>`+
		`</TR></TABLE>>`,
		md.Width, md.Height, imageInset, strings.Join(escaped, "<BR/>"))
}

func imageMedia(n *mindmap.Node) *mindmap.Media {
	if n.Media == nil || n.Media.Kind != mindmap.MediaKindImage {
		return nil
	}
	return n.Media
}

// PNG rasterizes the drawing of l on a white frame. Graphviz draws nodes,
// links and text at their pinned positions; node images are then scaled onto
// the cells [DOT] reserved for them.
func PNG(ctx context.Context, m *mindmap.Map, l *layout.Layout) ([]byte, error) {
	data, err := renderGraphviz(ctx, DOT(m, l))
	if err != nil {
		return nil, err
	}
	return framePNG(data, m, l)
}

func renderGraphviz(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

// framePNG pads a rendered PNG with defaultFramePadding pixels of white and
// paints node images onto it. The rendered picture spans l.Bounds exactly, so
// layout coordinates map to its pixels by scaling.
func framePNG(data []byte, m *mindmap.Map, l *layout.Layout) ([]byte, error) {
	src, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode render: %w", err)
	}
	pad := int(defaultFramePadding)
	sw, sh := src.Bounds().Dx(), src.Bounds().Dy()
	canvas := image.NewRGBA(image.Rect(0, 0, sw+2*pad, sh+2*pad))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(pad, pad, pad+sw, pad+sh), src, src.Bounds().Min, draw.Over)

	if l.Bounds.Width() > 0 && l.Bounds.Height() > 0 {
		sx := float64(sw) / l.Bounds.Width()
		sy := float64(sh) / l.Bounds.Height()
		px := func(x float64) int { return pad + int(math.Round((x-l.Bounds.MinX)*sx)) }
		py := func(y float64) int { return pad + int(math.Round((y-l.Bounds.MinY)*sy)) }
		for _, id := range l.Order {
			n, ok := m.Node(id)
			if !ok {
				continue
			}
			md := imageMedia(n)
			if md == nil {
				continue
			}
			img, err := media.Decode(md)
			if err != nil {
				continue
			}
			g := l.Nodes[id]
			x := g.X + imageInset
			y := g.Y + (g.H-float64(md.Height))/2
			dst := image.Rect(px(x), py(y), px(x+float64(md.Width)), py(y+float64(md.Height)))
			draw.CatmullRom.Scale(canvas, dst, img, img.Bounds(), draw.Over, nil)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
