// Package layout positions the nodes of a mind map.
//
// # Overview
//
// [Compute] is a pure function from a [mindmap.Map] snapshot to a [Layout]:
// a geometry record per visible node, the links between them, and the
// overall bounds. Nothing is cached and the map is never modified, so
// callers recompute after each batch of edits (see the editor package for a
// session that does this lazily).
//
// # Algorithm
//
// The engine runs two passes over the visible tree. Descendants of a
// collapsed node are not visible; the collapsed node itself still is.
//
//   - Measure (post-order): each node gets a width and height from its
//     wrapped text and optional image, and a subtree height that is the
//     larger of its own height and the stacked heights of its children plus
//     [VGap] between them.
//   - Place (pre-order): the root sits at the origin. Every child is placed
//     [HGap] beyond its parent's edge, vertically centered in its own band,
//     with the stack of bands centered on the parent.
//
// The root's children are split into a left and a right half. A child whose
// Side is set goes to that half; the rest are assigned in order to whichever
// half holds fewer children at that point. Left branches are mirrored: each
// depth step moves left by the node width plus [HGap]. Both halves are
// stacked independently and share the root's center line.
//
// Finally the whole drawing is translated so its bounding box is centered on
// (0, 0).
//
// # Sizes
//
//	width  = max(MinNodeWidth, min(textWidth, MaxNodeWidth-Padding) + Padding + mediaWidth)
//	height = max(MinNodeHeight, lines*LineHeight + MediaMargin, mediaHeight + MediaMargin)
//
// where mediaWidth is the image width plus [MediaMargin] (zero without an
// image) and text is wrapped with [Wrap] to MaxNodeWidth-Padding-mediaWidth.
// Text width is estimated as display columns times [CharWidth]; wide runes
// count as two columns.
//
// # Malformed input
//
// Compute never fails. A dangling child reference or a node reached twice
// (a cycle) gets a [FallbackSize] band, is not descended into, and produces
// a warning in [Layout.Warnings]. The warnings are also logged through
// [Options.Logger].
//
// [mindmap.Map]: github.com/matzehuels/mindmap/pkg/mindmap.Map
package layout
