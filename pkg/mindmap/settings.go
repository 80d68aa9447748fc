package mindmap

import (
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Settings defaults.
const (
	DefaultFontFamily    = "sans-serif"
	DefaultFontSize      = 14.0
	DefaultAutosaveDelay = 2000 // milliseconds
	MinAutosaveDelay     = 500  // milliseconds

	// FallbackColor is used when no level color can be resolved.
	FallbackColor = "#ffffff"
)

// DefaultLevelColors is the fill color table indexed by depth.
var DefaultLevelColors = []string{"#ffffff", "#ff6f59", "#f6bd60", "#43aa8b", "#577590", "#d7263d", "#06d6a0"}

// Settings is the per-map display configuration.
type Settings struct {
	LevelColors   []string `json:"levelColors" bson:"levelColors" toml:"level_colors"`
	FontFamily    string   `json:"fontFamily" bson:"fontFamily" toml:"font_family"`
	FontSize      float64  `json:"fontSize" bson:"fontSize" toml:"font_size"`
	AutosaveDelay int      `json:"autosaveDelay" bson:"autosaveDelay" toml:"autosave_delay"`
}

// DefaultSettings returns a fully populated settings value.
func DefaultSettings() Settings {
	return Settings{
		LevelColors:   append([]string{}, DefaultLevelColors...),
		FontFamily:    DefaultFontFamily,
		FontSize:      DefaultFontSize,
		AutosaveDelay: DefaultAutosaveDelay,
	}
}

// Normalize returns a repaired copy of s. Unparseable colors are dropped and
// an empty table falls back to [DefaultLevelColors]; every other missing or
// out-of-range field takes its default. Normalize never fails.
func (s Settings) Normalize() Settings {
	out := Settings{
		FontFamily:    strings.TrimSpace(s.FontFamily),
		FontSize:      s.FontSize,
		AutosaveDelay: s.AutosaveDelay,
	}
	for _, c := range s.LevelColors {
		if hex, ok := normalizeColor(c); ok {
			out.LevelColors = append(out.LevelColors, hex)
		}
	}
	if len(out.LevelColors) == 0 {
		out.LevelColors = append([]string{}, DefaultLevelColors...)
	}
	if out.FontFamily == "" {
		out.FontFamily = DefaultFontFamily
	}
	if !(out.FontSize > 0) {
		out.FontSize = DefaultFontSize
	}
	if out.AutosaveDelay < MinAutosaveDelay {
		out.AutosaveDelay = DefaultAutosaveDelay
	}
	return out
}

// LevelColor returns the fill color for a node at depth. Depths beyond the
// table reuse its last entry.
func (s Settings) LevelColor(depth int) string {
	if len(s.LevelColors) == 0 {
		return FallbackColor
	}
	if depth < 0 {
		depth = 0
	}
	if depth >= len(s.LevelColors) {
		depth = len(s.LevelColors) - 1
	}
	return s.LevelColors[depth]
}

func normalizeColor(c string) (string, bool) {
	c = strings.TrimSpace(c)
	if c == "" {
		return "", false
	}
	if _, err := colorful.Hex(c); err != nil {
		return "", false
	}
	return strings.ToLower(c), true
}
