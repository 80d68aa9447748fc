package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/mindmap/pkg/cache"
	merrors "github.com/matzehuels/mindmap/pkg/errors"
	"github.com/matzehuels/mindmap/pkg/export"
	"github.com/matzehuels/mindmap/pkg/layout"
	"github.com/matzehuels/mindmap/pkg/mindmap"
	"github.com/matzehuels/mindmap/pkg/observability"
)

// Export formats.
const (
	formatJSON     = "json"
	formatMarkdown = "md"
	formatSVG      = "svg"
	formatDOT      = "dot"
	formatPNG      = "png"
)

var validFormats = map[string]bool{
	formatJSON:     true,
	formatMarkdown: true,
	formatSVG:      true,
	formatDOT:      true,
	formatPNG:      true,
}

const keyTypeArtifact = "artifact"

// parseFormats parses a comma-separated format list.
func parseFormats(s string) ([]string, error) {
	if s == "" {
		return []string{formatSVG}, nil
	}
	var formats []string
	seen := make(map[string]bool)
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if !validFormats[f] {
			return nil, merrors.New(merrors.ErrCodeInvalidInput, "unknown format %q (want json, md, svg, dot or png)", f)
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	return formats, nil
}

// basePath strips a known format extension from output.
func basePath(output string) string {
	ext := filepath.Ext(output)
	if validFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// nopCloser makes stdout usable where a file is expected.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput returns stdout for "-" and creates the file otherwise.
func openOutput(w io.Writer, path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopCloser{w}, nil
	}
	return os.Create(path)
}

// mapSource loads the map to export either from the store or from a file.
func (c *CLI) mapSource(ctx context.Context, args []string, input string) (*mindmap.Map, error) {
	switch {
	case input != "" && len(args) > 0:
		return nil, merrors.New(merrors.ErrCodeInvalidInput, "give either a map ID or --input, not both")
	case input != "":
		return mindmap.ImportJSON(input)
	case len(args) == 1:
		return c.loadMap(ctx, args[0])
	}
	return nil, merrors.New(merrors.ErrCodeInvalidInput, "map ID or --input required")
}

// exportOpts are the flags of the export command.
type exportOpts struct {
	formats     string
	output      string
	input       string
	transparent bool
	noCache     bool
}

// renderer produces export artifacts for one map and its layout.
type renderer struct {
	m     *mindmap.Map
	l     *layout.Layout
	svg   export.SVGOptions
	cache cache.Cache
	keyer cache.Keyer
}

// render returns the bytes of one format and whether they came from the cache.
func (r *renderer) render(ctx context.Context, format string) ([]byte, bool, error) {
	switch format {
	case formatJSON:
		var buf bytes.Buffer
		err := mindmap.WriteJSON(r.m, &buf)
		return buf.Bytes(), false, err
	case formatMarkdown:
		return []byte(export.Markdown(r.m)), false, nil
	case formatSVG:
		return export.SVG(r.m, r.l, r.svg), false, nil
	case formatDOT:
		return []byte(export.DOT(r.m, r.l)), false, nil
	case formatPNG:
		return r.renderPNG(ctx)
	}
	return nil, false, merrors.New(merrors.ErrCodeInvalidInput, "unknown format %q", format)
}

// renderPNG rasterizes the layout. The result is cached under a hash of the
// DOT source and the images of visible nodes, which together determine it.
func (r *renderer) renderPNG(ctx context.Context) ([]byte, bool, error) {
	parts := [][]byte{[]byte(export.DOT(r.m, r.l))}
	for _, id := range r.l.Order {
		if n, ok := r.m.Node(id); ok && n.Media != nil {
			parts = append(parts, []byte(n.Media.DataURL))
		}
	}
	key := r.keyer.ArtifactKey(cache.Hash(parts...), cache.ArtifactKeyOpts{
		Format: formatPNG,
		Font:   r.m.Settings.FontFamily,
	})
	hooks := observability.Cache()

	data, ok, err := r.cache.Get(ctx, key)
	if err == nil && ok {
		hooks.OnCacheHit(ctx, keyTypeArtifact)
		return data, true, nil
	}
	hooks.OnCacheMiss(ctx, keyTypeArtifact)

	data, err = export.PNG(ctx, r.m, r.l)
	if err != nil {
		return nil, false, err
	}
	if err := r.cache.Set(ctx, key, data, 0); err == nil {
		hooks.OnCacheSet(ctx, keyTypeArtifact, len(data))
	}
	return data, false, nil
}

// exportCommand creates the "export" command.
func (c *CLI) exportCommand() *cobra.Command {
	var opts exportOpts

	cmd := &cobra.Command{
		Use:   "export [map-id]",
		Short: "Export a map as JSON, Markdown, SVG, DOT or PNG",
		Long: `Export a map from the store (or a JSON file with --input).

Formats:
  json  the map itself, readable by 'mindmap import'
  md    a Markdown outline
  svg   a drawing of the radial layout
  dot   Graphviz source with every node pinned in place (neato)
  png   the same drawing rasterized, node images included

Several formats can be given at once (-f svg,md,png); they are written to
<output>.<format>. With a single format, -o - writes to standard output.
PNG renders are cached locally.`,
		Example: `  mindmap export map-1a2b3c4d5e6f -f svg,md -o ideas
  mindmap export --input ideas.json -f png`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.formats, "format", "f", formatSVG, "output formats, comma-separated: json, md, svg, dot, png")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output path without extension (default: map ID or input name)")
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "export a map JSON file instead of a stored map")
	cmd.Flags().BoolVar(&opts.transparent, "transparent", false, "leave the SVG background transparent")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")

	return cmd
}

func (c *CLI) runExport(cmd *cobra.Command, args []string, opts exportOpts) error {
	ctx := cmd.Context()
	formats, err := parseFormats(opts.formats)
	if err != nil {
		return err
	}
	if opts.output == "-" && len(formats) > 1 {
		return merrors.New(merrors.ErrCodeInvalidInput, "-o - needs a single format")
	}

	m, err := c.mapSource(ctx, args, opts.input)
	if err != nil {
		return err
	}
	prog := newProgress(c.Logger)
	l := layout.Compute(m, layout.Options{Logger: c.Logger})

	base := basePath(opts.output)
	if base == "" {
		base = m.ID
		if opts.input != "" {
			base = strings.TrimSuffix(opts.input, filepath.Ext(opts.input))
		}
	}
	if opts.input != "" && opts.output != "-" {
		for _, format := range formats {
			if filepath.Clean(base+"."+format) == filepath.Clean(opts.input) {
				return merrors.New(merrors.ErrCodeRejected, "export would overwrite %s (use -o)", opts.input)
			}
		}
	}

	rc, err := newCache(opts.noCache)
	if err != nil {
		return err
	}
	defer rc.Close()

	r := &renderer{m: m, l: l, cache: rc, keyer: c.cacheKeyer()}
	if opts.transparent {
		r.svg.Background = "none"
	}

	var sp *spinner
	if opts.output != "-" {
		sp = newSpinner(ctx, cmd.ErrOrStderr(), fmt.Sprintf("Exporting %s...", strings.Join(formats, ", ")))
		sp.Start()
	}

	// Layouts are read-only, so every format renders concurrently.
	data := make([][]byte, len(formats))
	cached := make([]bool, len(formats))
	g, gctx := errgroup.WithContext(ctx)
	for i, format := range formats {
		g.Go(func() error {
			b, hit, err := r.render(gctx, format)
			if err != nil {
				return fmt.Errorf("%s: %w", format, err)
			}
			data[i], cached[i] = b, hit
			return nil
		})
	}
	err = g.Wait()
	if sp != nil {
		sp.Stop()
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.output == "-" {
		_, err := out.Write(data[0])
		return err
	}

	paths := make([]string, len(formats))
	allCached := true
	for i, format := range formats {
		paths[i] = base + "." + format
		if err := writeArtifact(out, paths[i], data[i]); err != nil {
			return err
		}
		if format == formatPNG {
			allCached = allCached && cached[i]
		}
	}
	prog.done(fmt.Sprintf("Exported %s", m.ID))

	printSuccess(out, "Exported %s", StyleTitle.Render(m.Title))
	printStats(out, len(l.Order), len(l.Links), allCached && contains(formats, formatPNG))
	for _, p := range paths {
		printFile(out, p)
	}
	for _, w := range l.Warnings {
		printWarning(out, "%s", w)
	}
	return nil
}

func writeArtifact(stdout io.Writer, path string, data []byte) error {
	f, err := openOutput(stdout, path)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// layoutCommand creates the "layout" command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		asJSON bool
		input  string
	)

	cmd := &cobra.Command{
		Use:   "layout [map-id]",
		Short: "Print the computed position of every visible node",
		Long: `Compute the radial layout of a map and print each visible node's box.
Coordinates are in pixels with the map centered on the origin; Y grows
downward. Malformed references found while laying out are reported as
warnings.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := c.mapSource(cmd.Context(), args, input)
			if err != nil {
				return err
			}
			l := layout.Compute(m, layout.Options{Logger: c.Logger})

			out := cmd.OutOrStdout()
			if asJSON {
				return writeLayoutJSON(out, l)
			}
			fmt.Fprintln(out, layoutTable(m, l))
			printKeyValue(out, "Bounds", fmt.Sprintf("%.0f × %.0f", l.Bounds.Width(), l.Bounds.Height()))
			for _, w := range l.Warnings {
				printWarning(out, "%s", w)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the layout as JSON")
	cmd.Flags().StringVarP(&input, "input", "i", "", "lay out a map JSON file instead of a stored map")

	return cmd
}

func writeLayoutJSON(w io.Writer, l *layout.Layout) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(l)
}

func layoutTable(m *mindmap.Map, l *layout.Layout) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	num := func(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

	rows := make([][]string, 0, len(l.Order))
	for _, id := range l.Order {
		g := l.Nodes[id]
		text := ""
		if len(g.Lines) > 0 {
			text = g.Lines[0]
			if len(g.Lines) > 1 {
				text += " …"
			}
		}
		dir := string(g.Direction)
		if g.Collapsed {
			dir += fmt.Sprintf(" (+%d)", g.HiddenChildren)
		}
		rows = append(rows, []string{id, text, num(g.X), num(g.Y), num(g.W), num(g.H), strconv.Itoa(g.Depth), dir})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Text", "X", "Y", "W", "H", "Depth", "Side").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorCyan)
			}
			if col >= 2 && col <= 6 {
				return lipgloss.NewStyle().Foreground(colorGray).Align(lipgloss.Right)
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

// importCommand creates the "import" command.
func (c *CLI) importCommand() *cobra.Command {
	var (
		title string
		newID bool
	)

	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Add a map JSON file to the store",
		Long: `Read a map from a JSON file, check its structure and save it to the store.
A map whose structure is broken is rejected as a whole. A stored map with the
same ID is replaced unless --new-id is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m, err := mindmap.ImportJSON(args[0])
			if err != nil {
				return merrors.Wrap(merrors.ErrCodeInvalidMap, err, "import %s", args[0])
			}
			if newID {
				m.ID = mindmap.NewMapID()
			}
			if err := merrors.ValidateMapID(m.ID); err != nil {
				return err
			}
			if title != "" {
				if err := merrors.ValidateTitle(title); err != nil {
					return err
				}
				m.SetTitle(title)
			}

			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Save(ctx, m); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printSuccess(out, "Imported %s as %s", StyleTitle.Render(m.Title), StyleHighlight.Render(m.ID))
			printDetail(out, "%d nodes", m.Len())
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "replace the map's title")
	cmd.Flags().BoolVar(&newID, "new-id", false, "store the map under a fresh ID")

	return cmd
}

// validateCommand creates the "validate" command.
func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file.json>...",
		Short: "Check the structure of map JSON files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				m, err := mindmap.ImportJSON(path)
				if err != nil {
					failed++
					printError(out, "%s: %v", path, err)
					continue
				}
				printSuccess(out, "%s: %d nodes", path, m.Len())
			}
			if failed > 0 {
				return merrors.New(merrors.ErrCodeInvalidMap, "%d of %d maps invalid", failed, len(args))
			}
			return nil
		},
	}
}
