// Package pkg provides the core libraries for Mindmap, a radial mind map editor.
//
// # Overview
//
// A mind map is a tree of short labelled nodes. The root sits in the middle;
// its children fan out to the left and right, and every deeper node grows
// away from the root on its branch's side. The pkg directory is organized
// into three areas:
//
//  1. Model - the tree and its edits ([mindmap]), geometry ([layout])
//  2. Editing - sessions with autosave ([editor]) over a persistent [store]
//  3. Output - drawings and outlines ([export]), node images ([media])
//
// # Architecture
//
// The typical data flow:
//
//	store.Get / mindmap.ImportJSON
//	         ↓
//	    [editor] session (edits, clipboard, autosave)
//	         ↓
//	    [layout] Compute (wrap text, balance sides, place nodes)
//	         ↓
//	    [export] SVG / DOT / PNG / Markdown, or the [server] JSON API
//
// # Quick Start
//
// Build a map, lay it out and draw it:
//
//	import (
//	    "github.com/matzehuels/mindmap/pkg/export"
//	    "github.com/matzehuels/mindmap/pkg/layout"
//	    "github.com/matzehuels/mindmap/pkg/mindmap"
//	)
//
//	m := mindmap.New("Trip", mindmap.DefaultSettings())
//	food, _ := m.InsertChild(m.RootID)
//	m.SetText(food, "Food")
//
//	l := layout.Compute(m, layout.Options{})
//	svg := export.SVG(m, l, export.SVGOptions{})
//
// Edit a stored map with autosave:
//
//	st, _ := store.Open(ctx, store.Config{Driver: store.DriverSQLite}, logger)
//	m, _ := st.Get(ctx, id)
//	sess := editor.New(m, editor.Options{Saver: st})
//	defer sess.Close(ctx)
//	sess.Do(editor.Op{Kind: editor.OpInsertChild, Node: m.RootID})
//
// # Main Packages
//
// [mindmap] - The map model: nodes, settings, structural validation, the
// subtree clipboard and the JSON document format.
//
// [layout] - Text wrapping and the radial layout engine. Layouts are plain
// values and safe to share.
//
// [editor] - Editing sessions. A session owns one map, serializes edits,
// caches its layout and saves after a quiet period.
//
// [store] - Map persistence: a JSON file directory, SQLite, Redis or MongoDB.
//
// [server] - The HTTP API over a store.
//
// [export] - SVG, Graphviz DOT and PNG drawings and Markdown outlines.
//
// [media] - Decoding and downscaling of node images.
//
// [cache] - Byte caches for rendered artifacts and the CLI clipboard.
//
// [observability] - Hooks for layout, save, HTTP and cache events.
//
// [errors] - Coded errors and input validation.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...            # All tests
//	go test ./pkg/layout/...     # Specific package
//	go test -run Example         # Examples only
//
// [mindmap]: https://pkg.go.dev/github.com/matzehuels/mindmap/pkg/mindmap
// [layout]: https://pkg.go.dev/github.com/matzehuels/mindmap/pkg/layout
// [editor]: https://pkg.go.dev/github.com/matzehuels/mindmap/pkg/editor
// [store]: https://pkg.go.dev/github.com/matzehuels/mindmap/pkg/store
// [server]: https://pkg.go.dev/github.com/matzehuels/mindmap/pkg/server
// [export]: https://pkg.go.dev/github.com/matzehuels/mindmap/pkg/export
// [media]: https://pkg.go.dev/github.com/matzehuels/mindmap/pkg/media
// [cache]: https://pkg.go.dev/github.com/matzehuels/mindmap/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/mindmap/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/mindmap/pkg/errors
package pkg
