package layout

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// TextWidth estimates the rendered width of s in pixels.
func TextWidth(s string) float64 {
	return float64(runewidth.StringWidth(s)) * CharWidth
}

// Wrap splits text into lines no wider than maxWidth pixels, breaking only
// at whitespace. A word wider than maxWidth gets a line of its own. Runs of
// whitespace collapse to a single space. Wrap always returns at least one
// line; empty input yields a single empty line.
func Wrap(text string, maxWidth float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		next := line + " " + w
		if TextWidth(next) > maxWidth {
			lines = append(lines, line)
			line = w
			continue
		}
		line = next
	}
	return append(lines, line)
}
