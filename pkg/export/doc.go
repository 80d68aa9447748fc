// Package export writes mind maps in formats meant for people and other
// tools.
//
// # Formats
//
//   - [Markdown]: the root as a heading, first-level branches as
//     subheadings and deeper nodes as nested bullet lists.
//   - [SVG]: a standalone drawing of a computed [layout.Layout], with the
//     same curves, colors, wrapped text, images and collapse badges an
//     interactive view shows.
//   - [DOT]: Graphviz source of the visible tree with every node pinned at
//     its layout position, for Graphviz's neato engine.
//   - [PNG]: the DOT drawing rasterized in-process, with node images
//     painted into the space their labels reserve.
//
// SVG, DOT and PNG consume a layout so only visible nodes are exported; Markdown
// walks the whole tree, collapsed branches included.
//
// # Usage
//
//	l := layout.Compute(m, layout.Options{})
//	svg := export.SVG(m, l, export.SVGOptions{})
//	png, err := export.PNG(ctx, m, l)
//
// # Dependencies
//
// Graphviz rendering uses [github.com/goccy/go-graphviz], which runs
// Graphviz compiled to WebAssembly and needs no system install.
package export
