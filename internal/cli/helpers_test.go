package cli

import (
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	merrors "github.com/matzehuels/mindmap/pkg/errors"
	"github.com/matzehuels/mindmap/pkg/mindmap"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in      string
		want    []string
		wantErr bool
	}{
		{in: "svg", want: []string{"svg"}},
		{in: "svg,md", want: []string{"svg", "md"}},
		{in: " PNG , dot ", want: []string{"png", "dot"}},
		{in: "md,md,json", want: []string{"md", "json"}},
		{in: "gif", wantErr: true},
		{in: "", want: []string{"svg"}},
		{in: "svg,", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseFormats(tt.in)
			if tt.wantErr {
				if !merrors.Is(err, merrors.ErrCodeInvalidInput) {
					t.Errorf("parseFormats(%q) error = %v, want INVALID_INPUT", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseFormats(%q) error: %v", tt.in, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"ideas", "ideas"},
		{"ideas.svg", "ideas"},
		{"out/ideas.png", "out/ideas"},
		{"ideas.v2", "ideas.v2"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := basePath(tt.in); got != tt.want {
			t.Errorf("basePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseOffset(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "up", want: -1},
		{in: "down", want: 1},
		{in: "3", want: 3},
		{in: "-2", want: -2},
		{in: "left", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseOffset(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseOffset(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseOffset(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestUnescapeNewlines(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`one\ntwo`, "one\ntwo"},
		{`plain`, "plain"},
		{`trailing\`, `trailing\`},
		{`\n\n`, "\n\n"},
		{`back\slash`, `back\slash`},
	}
	for _, tt := range tests {
		if got := unescapeNewlines(tt.in); got != tt.want {
			t.Errorf("unescapeNewlines(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	ago := func(d time.Duration) int64 { return now.Add(-d).UnixMilli() }

	tests := []struct {
		name string
		ms   int64
		want string
	}{
		{"zero", 0, "never"},
		{"seconds", ago(10 * time.Second), "just now"},
		{"minutes", ago(5 * time.Minute), "5m ago"},
		{"hours", ago(3 * time.Hour), "3h ago"},
		{"days", ago(48 * time.Hour), "2d ago"},
		{"weeks", ago(30 * 24 * time.Hour), time.UnixMilli(ago(30 * 24 * time.Hour)).Format("Jan 2, 2006")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatRelativeTime(tt.ms, now); got != tt.want {
				t.Errorf("formatRelativeTime() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOutline(t *testing.T) {
	m := mindmap.New("T", mindmap.DefaultSettings())
	a, _ := m.InsertChild(m.RootID)
	m.SetText(a, "Alpha")
	b, _ := m.InsertChild(a)
	m.SetText(b, "Hidden")
	c, _ := m.InsertChild(m.RootID)
	m.SetText(c, "Beta")
	m.SetSide(c, mindmap.SideLeft)
	m.ToggleCollapse(a)

	got := outline(m, outlineOptions{})
	for _, want := range []string{"Root", "Alpha", "(+1)", iconLeft, "Beta"} {
		if !strings.Contains(got, want) {
			t.Errorf("outline missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Hidden") {
		t.Errorf("outline shows a collapsed child:\n%s", got)
	}

	got = outline(m, outlineOptions{Expand: true, ShowIDs: true})
	for _, want := range []string{"Hidden", b} {
		if !strings.Contains(got, want) {
			t.Errorf("expanded outline missing %q:\n%s", want, got)
		}
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv(envStoreDriver, "")
	t.Setenv(envDBPath, "")
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "none.toml"), log.New(io.Discard))
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if !reflect.DeepEqual(cfg.Settings, mindmap.DefaultSettings()) {
		t.Errorf("settings = %+v, want defaults", cfg.Settings)
	}
	if cfg.Store.Driver != "" {
		t.Errorf("driver = %q, want empty", cfg.Store.Driver)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[settings]
level_colors = ["#123456", "not-a-color", "#ABCDEF"]
font_size = 18
autosave_delay = 100

[store]
driver = "sqlite"
path = "/from/file.db"

[server]
addr = ":8080"

[extra]
ignored = true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(envStoreDriver, "")
	t.Setenv(envDBPath, "/from/env.db")

	cfg, err := loadConfig(path, log.New(io.Discard))
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if want := []string{"#123456", "#abcdef"}; !reflect.DeepEqual(cfg.Settings.LevelColors, want) {
		t.Errorf("level colors = %v, want %v", cfg.Settings.LevelColors, want)
	}
	if cfg.Settings.FontSize != 18 {
		t.Errorf("font size = %v, want 18", cfg.Settings.FontSize)
	}
	if cfg.Settings.AutosaveDelay != mindmap.DefaultAutosaveDelay {
		t.Errorf("autosave delay = %d, want the default", cfg.Settings.AutosaveDelay)
	}
	if cfg.Store.Driver != "sqlite" || cfg.Store.Path != "/from/env.db" {
		t.Errorf("store = %+v, want sqlite at the env path", cfg.Store)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("server addr = %q, want :8080", cfg.Server.Addr)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[settings\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := loadConfig(path, log.New(io.Discard))
	if !merrors.Is(err, merrors.ErrCodeInvalidInput) {
		t.Errorf("loadConfig() error = %v, want INVALID_INPUT", err)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	c, _ := testCLI(t)
	path := filepath.Join(t.TempDir(), "mindmap", "config.toml")

	if _, err := runCLI(t, c, "--config", path, "config", "init"); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := runCLI(t, c, "--config", path, "config", "init"); !merrors.Is(err, merrors.ErrCodeRejected) {
		t.Errorf("second init: error = %v, want REJECTED", err)
	}

	out, err := runCLI(t, New(io.Discard, LogInfo), "--config", path, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	for _, want := range []string{"[settings]", "level_colors", "[store]", "[server]"} {
		if !strings.Contains(out, want) {
			t.Errorf("config show missing %q:\n%s", want, out)
		}
	}
}

func TestConfigHashPassword(t *testing.T) {
	c, _ := testCLI(t)

	root := c.RootCommand()
	var out strings.Builder
	root.SetOut(&out)
	root.SetIn(strings.NewReader("secret\n"))
	root.SetArgs([]string{"config", "hash-password"})
	if err := root.Execute(); err != nil {
		t.Fatalf("hash-password: %v", err)
	}
	if !strings.HasPrefix(out.String(), "$2") {
		t.Errorf("output = %q, want a bcrypt hash", out.String())
	}

	if _, err := runCLI(t, c, "config", "hash-password", ""); !merrors.Is(err, merrors.ErrCodeInvalidInput) {
		t.Errorf("empty password: error = %v, want INVALID_INPUT", err)
	}
}

func TestClearDir(t *testing.T) {
	dir := t.TempDir()
	for _, p := range []string{"a", "sub/b", "sub/deep/c"} {
		path := filepath.Join(dir, p)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	n, err := clearDir(dir)
	if err != nil {
		t.Fatalf("clearDir() error: %v", err)
	}
	if n != 3 {
		t.Errorf("clearDir() = %d, want 3", n)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("%d entries left after clearDir", len(entries))
	}
}
