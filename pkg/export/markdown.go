package export

import (
	"io"
	"strings"

	"github.com/matzehuels/mindmap/pkg/mindmap"
)

// EmptyText replaces blank node labels in text exports.
const EmptyText = "(empty)"

// Markdown renders m as an outline. Newlines inside labels are folded into
// spaces. Nodes reachable twice, or referenced but missing, are skipped.
func Markdown(m *mindmap.Map) string {
	var b strings.Builder
	WriteMarkdown(&b, m)
	return b.String()
}

// WriteMarkdown writes [Markdown] output to w.
func WriteMarkdown(w io.Writer, m *mindmap.Map) error {
	var lines []string
	seen := make(map[string]bool)

	var walk func(id string, depth int)
	walk = func(id string, depth int) {
		n, ok := m.Node(id)
		if !ok || seen[id] {
			return
		}
		seen[id] = true

		text := label(n.Text)
		switch depth {
		case 0:
			lines = append(lines, "# "+text)
		case 1:
			lines = append(lines, "", "## "+text)
		default:
			lines = append(lines, strings.Repeat("  ", depth-2)+"- "+text)
		}
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	walk(m.RootID, 0)

	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

func label(text string) string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	if text == "" {
		return EmptyText
	}
	return text
}
