package export

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/mindmap/pkg/layout"
	"github.com/matzehuels/mindmap/pkg/mindmap"
)

const (
	defaultFramePadding = 40.0
	minCurvature        = 40.0
	badgeRadius         = 10.0
	badgeOffset         = 15.0
	imageInset          = 5.0
	textInset           = 10.0
)

// SVGOptions configures [SVG].
type SVGOptions struct {
	// Padding around the drawing. Zero means 40.
	Padding float64
	// Background fills the frame. Empty means white; "none" leaves it
	// transparent.
	Background string
	// Selected outlines one node, as an editor would.
	Selected string
}

// SVG draws l as a standalone SVG document. Node media and font settings are
// read from m; positions, colors and line breaks come from l.
func SVG(m *mindmap.Map, l *layout.Layout, opts SVGOptions) []byte {
	pad := opts.Padding
	if pad <= 0 {
		pad = defaultFramePadding
	}
	bg := opts.Background
	if bg == "" {
		bg = "white"
	}

	w := l.Bounds.Width() + 2*pad
	h := l.Bounds.Height() + 2*pad
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		w, h, w, h)
	buf.WriteString(`  <style>.link { fill: none; stroke: #999; stroke-width: 2; } .node rect { stroke: #333; stroke-width: 1; rx: 6; } .node.selected rect { stroke: #1e88e5; stroke-width: 3; }</style>` + "\n")
	if bg != "none" {
		fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", escapeXML(bg))
	}
	fmt.Fprintf(&buf, `  <g id="viewport" transform="translate(%.1f,%.1f)">`+"\n", pad-l.Bounds.MinX, pad-l.Bounds.MinY)

	buf.WriteString("    <g class=\"links\">\n")
	for _, link := range l.Links {
		fmt.Fprintf(&buf, `      <path class="link" d="%s"/>`+"\n", linkPath(link))
	}
	buf.WriteString("    </g>\n")

	buf.WriteString("    <g class=\"nodes\">\n")
	settings := m.Settings.Normalize()
	for _, id := range l.Order {
		g := l.Nodes[id]
		var media *mindmap.Media
		if n, ok := m.Node(id); ok {
			media = n.Media
		}
		renderNode(&buf, g, media, settings, id == opts.Selected)
	}
	buf.WriteString("    </g>\n")

	buf.WriteString("  </g>\n</svg>\n")
	return buf.Bytes()
}

// linkPath returns a cubic curve leaving the parent horizontally and
// entering the child horizontally.
func linkPath(link layout.Link) string {
	c := max(minCurvature, math.Abs(link.X2-link.X1)/2)
	if link.Direction == layout.DirectionLeft {
		c = -c
	}
	return fmt.Sprintf("M%.1f,%.1f C%.1f,%.1f %.1f,%.1f %.1f,%.1f",
		link.X1, link.Y1, link.X1+c, link.Y1, link.X2-c, link.Y2, link.X2, link.Y2)
}

func renderNode(buf *bytes.Buffer, g layout.Geometry, media *mindmap.Media, s mindmap.Settings, selected bool) {
	class := "node"
	if selected {
		class += " selected"
	}
	fmt.Fprintf(buf, `      <g class="%s" data-id="%s" transform="translate(%.1f,%.1f)">`+"\n",
		class, escapeXML(g.ID), g.X, g.Y)
	fmt.Fprintf(buf, `        <rect width="%.1f" height="%.1f" fill="%s"/>`+"\n", g.W, g.H, escapeXML(g.Color))

	offset := textInset
	if media != nil && media.Kind == mindmap.MediaKindImage {
		fmt.Fprintf(buf, `        <image href="%s" x="%.1f" y="%.1f" width="%d" height="%d"/>`+"\n",
			escapeXML(media.DataURL), imageInset, (g.H-float64(media.Height))/2, media.Width, media.Height)
		offset += float64(media.Width) + imageInset
	}

	fmt.Fprintf(buf, `        <text x="%.1f" font-family="%s" font-size="%g" fill="%s" dominant-baseline="middle">`,
		offset, escapeXML(s.FontFamily), s.FontSize, TextColor(g.Color))
	startY := g.H/2 - float64(len(g.Lines)-1)*layout.LineHeight/2
	for i, line := range g.Lines {
		fmt.Fprintf(buf, `<tspan x="%.1f" y="%.1f" dominant-baseline="middle">%s</tspan>`,
			offset, startY+float64(i)*layout.LineHeight, escapeXML(line))
	}
	buf.WriteString("</text>\n")

	if g.Collapsed && g.HiddenChildren > 0 {
		x := g.W + badgeOffset
		if g.Direction == layout.DirectionLeft {
			x = -badgeOffset
		}
		fmt.Fprintf(buf, `        <g class="collapse-indicator" transform="translate(%.1f,%.1f)"><circle r="%g" fill="#666"/>`+
			`<text text-anchor="middle" dominant-baseline="middle" fill="#fff" font-size="14" font-weight="bold">%d</text></g>`+"\n",
			x, g.H/2, badgeRadius, g.HiddenChildren)
	}
	buf.WriteString("      </g>\n")
}

// TextColor picks black or white text for legibility on fill.
func TextColor(fill string) string {
	c, err := colorful.Hex(fill)
	if err != nil {
		return "#000"
	}
	if l, _, _ := c.Lab(); l < 0.5 {
		return "#fff"
	}
	return "#000"
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
