package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/mindmap/pkg/editor"
	"github.com/matzehuels/mindmap/pkg/mindmap"
)

var (
	keyTab       = tea.KeyMsg{Type: tea.KeyTab}
	keyEnter     = tea.KeyMsg{Type: tea.KeyEnter}
	keyAltEnter  = tea.KeyMsg{Type: tea.KeyEnter, Alt: true}
	keyEsc       = tea.KeyMsg{Type: tea.KeyEsc}
	keyDelete    = tea.KeyMsg{Type: tea.KeyDelete}
	keyBackspace = tea.KeyMsg{Type: tea.KeyBackspace}
	keySpace     = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	keyUp        = tea.KeyMsg{Type: tea.KeyUp}
	keyDown      = tea.KeyMsg{Type: tea.KeyDown}
	keyLeft      = tea.KeyMsg{Type: tea.KeyLeft}
	keyRight     = tea.KeyMsg{Type: tea.KeyRight}
	keyShiftUp   = tea.KeyMsg{Type: tea.KeyShiftUp}
)

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// newTestEditor builds a map with root n1 and children n2 and n3.
func newTestEditor(t *testing.T) (editorModel, *editor.Session) {
	t.Helper()
	m := mindmap.New("Test", mindmap.DefaultSettings())
	m.InsertChild(m.RootID)
	m.InsertChild(m.RootID)
	sess := editor.New(m, editor.Options{})
	return newEditorModel(sess), sess
}

func press(t *testing.T, m editorModel, msgs ...tea.KeyMsg) editorModel {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(editorModel)
	}
	return m
}

func nodeText(sess *editor.Session, id string) string {
	var text string
	sess.View(func(m *mindmap.Map) {
		if n, ok := m.Node(id); ok {
			text = n.Text
		}
	})
	return text
}

func TestEditorInsertChildAndType(t *testing.T) {
	m, sess := newTestEditor(t)

	m = press(t, m, keyTab)
	if m.selected != "n4" || m.mode != modeText {
		t.Fatalf("after tab: selected %s mode %d, want n4 in text mode", m.selected, m.mode)
	}
	if string(m.input) != mindmap.DefaultNodeText || !m.replace {
		t.Errorf("new node should start with its text selected, got %q replace=%v", string(m.input), m.replace)
	}

	m = press(t, m, keys("Hello"), keySpace, keys("there"), keyEnter)
	if m.mode != modeNavigate {
		t.Errorf("enter should leave text mode")
	}
	if got := nodeText(sess, "n4"); got != "Hello there" {
		t.Errorf("text = %q, want %q", got, "Hello there")
	}
}

func TestEditorTabChainsChildren(t *testing.T) {
	m, sess := newTestEditor(t)

	m = press(t, m, keyTab, keys("A"), keyTab, keys("B"), keyEnter)
	if got := nodeText(sess, "n4"); got != "A" {
		t.Errorf("n4 text = %q, want A", got)
	}
	if got := nodeText(sess, "n5"); got != "B" {
		t.Errorf("n5 text = %q, want B", got)
	}
	var parent string
	sess.View(func(mm *mindmap.Map) {
		if p, ok := mm.Parent("n5"); ok {
			parent = p.ID
		}
	})
	if parent != "n4" {
		t.Errorf("n5 parent = %q, want n4", parent)
	}
}

func TestEditorEditAndCancel(t *testing.T) {
	m, sess := newTestEditor(t)

	m = press(t, m, keys("e"))
	if m.replace {
		t.Errorf("e should place the cursor after the existing text")
	}
	m = press(t, m, keys("X"))
	if string(m.input) != "RootX" {
		t.Errorf("input = %q, want RootX", string(m.input))
	}
	m = press(t, m, keyEsc)
	if m.mode != modeNavigate || nodeText(sess, "n1") != "Root" {
		t.Errorf("esc should restore the text, got %q", nodeText(sess, "n1"))
	}

	m = press(t, m, keys("e"), keyBackspace, keyBackspace, keyAltEnter, keys("x"), keyEnter)
	if got := nodeText(sess, "n1"); got != "Ro\nx" {
		t.Errorf("text = %q, want %q", got, "Ro\nx")
	}
}

func TestEditorRejectsControlCharacters(t *testing.T) {
	m, sess := newTestEditor(t)

	m = press(t, m, keys("e"), keys("\x01"), keyEnter)
	if m.mode != modeText || !m.failed {
		t.Errorf("invalid text should keep the editor open with an error")
	}
	if got := nodeText(sess, "n1"); got != "Root" {
		t.Errorf("text = %q, want it unchanged", got)
	}
}

func TestEditorNavigation(t *testing.T) {
	m, _ := newTestEditor(t)

	tests := []struct {
		key  tea.KeyMsg
		want string
	}{
		{keyDown, "n2"},
		{keyDown, "n3"},
		{keyDown, "n3"},
		{keyUp, "n2"},
		{keyLeft, "n1"},
		{keyLeft, "n1"},
		{keyRight, "n2"},
		{keys("j"), "n3"},
		{keys("k"), "n2"},
		{keys("h"), "n1"},
	}
	for i, tt := range tests {
		m = press(t, m, tt.key)
		if m.selected != tt.want {
			t.Fatalf("step %d (%s): selected %s, want %s", i, tt.key, m.selected, tt.want)
		}
	}
}

func TestEditorSiblingAndDelete(t *testing.T) {
	m, sess := newTestEditor(t)

	m = press(t, m, keyEnter)
	if !m.failed || m.mode != modeNavigate {
		t.Errorf("enter on the root should fail without editing")
	}

	m = press(t, m, keyDown, keyEnter, keyEnter)
	if got := sess.Snapshot().Root().Children; strings.Join(got, ",") != "n2,n3,n4" {
		t.Errorf("root children = %v, want [n2 n3 n4]", got)
	}
	if m.selected != "n4" {
		t.Errorf("enter should select the new sibling, selected %s", m.selected)
	}

	m = press(t, m, keyDelete)
	if m.selected != "n1" {
		t.Errorf("delete should select the root, selected %s", m.selected)
	}
	if sess.Snapshot().Len() != 3 {
		t.Errorf("nodes = %d, want 3", sess.Snapshot().Len())
	}

	m = press(t, m, keyDelete)
	if !m.failed || sess.Snapshot().Len() != 3 {
		t.Errorf("deleting the root should fail")
	}
}

func TestEditorCollapseAndReorder(t *testing.T) {
	m, sess := newTestEditor(t)

	m = press(t, m, keyDown, keySpace)
	if !m.failed {
		t.Errorf("collapsing a leaf should fail")
	}

	m = press(t, m, keySpace)
	if !m.failed {
		t.Errorf("collapsing a leaf should fail twice")
	}

	m = press(t, m, keyUp, keySpace)
	if !sess.Snapshot().Root().Collapsed {
		t.Fatalf("space should collapse the root")
	}
	if rows := sess.Layout().Order; len(rows) != 1 {
		t.Errorf("visible rows = %v, want only the root", rows)
	}
	m = press(t, m, keyDown)
	if m.selected != "n1" {
		t.Errorf("down over a collapsed root selected %s", m.selected)
	}

	m = press(t, m, keySpace, keyDown, keyDown, keyShiftUp)
	if got := sess.Snapshot().Root().Children; strings.Join(got, ",") != "n3,n2" {
		t.Errorf("root children = %v, want [n3 n2]", got)
	}
	if m.selected != "n3" {
		t.Errorf("reorder should keep the selection, selected %s", m.selected)
	}
}

func TestEditorCopyPaste(t *testing.T) {
	m, sess := newTestEditor(t)

	m = press(t, m, keys("v"))
	if !m.failed {
		t.Errorf("paste with an empty clipboard should fail")
	}

	m = press(t, m, keyDown, keys("c"), keyDown, keys("v"))
	if !m.copied {
		t.Errorf("copy should mark the clipboard as changed")
	}
	if m.selected != "n4" {
		t.Errorf("paste should select the new node, selected %s", m.selected)
	}
	var parent string
	sess.View(func(mm *mindmap.Map) {
		if p, ok := mm.Parent("n4"); ok {
			parent = p.ID
		}
	})
	if parent != "n3" {
		t.Errorf("pasted node parent = %q, want n3", parent)
	}
}

func TestEditorMarkAndReparent(t *testing.T) {
	m, sess := newTestEditor(t)

	m = press(t, m, keys("r"))
	if !m.failed {
		t.Errorf("r without a mark should fail")
	}

	m = press(t, m, keyDown, keyDown, keys("m"), keyUp, keys("r"))
	if m.mark != "" {
		t.Errorf("a successful move should clear the mark")
	}
	if got := sess.Snapshot().Root().Children; strings.Join(got, ",") != "n2" {
		t.Errorf("root children = %v, want [n2]", got)
	}

	m = press(t, m, keys("m"), keyDown, keys("r"))
	if !m.failed {
		t.Errorf("moving a node under its own descendant should fail")
	}
}

func TestEditorSide(t *testing.T) {
	m, sess := newTestEditor(t)

	m = press(t, m, keys("<"))
	if !m.failed {
		t.Errorf("the root has no side")
	}
	m = press(t, m, keyDown, keys("<"))
	n, _ := sess.Snapshot().Node("n2")
	if n.Side != mindmap.SideLeft {
		t.Errorf("side = %q, want left", n.Side)
	}
	if !strings.Contains(m.View(), iconLeft) {
		t.Errorf("view should mark left branches")
	}
	press(t, m, keys("="))
	n, _ = sess.Snapshot().Node("n2")
	if n.Side != mindmap.SideAuto {
		t.Errorf("side = %q, want auto", n.Side)
	}
}

func TestEditorQuit(t *testing.T) {
	for _, msg := range []tea.KeyMsg{keys("q"), keyEsc, {Type: tea.KeyCtrlC}} {
		m, _ := newTestEditor(t)
		_, cmd := m.Update(msg)
		if cmd == nil {
			t.Fatalf("%s: no command", msg)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s should quit", msg)
		}
	}
}

func TestEditorView(t *testing.T) {
	m, _ := newTestEditor(t)
	m = press(t, m, keyTab, keys("Typing"))

	view := m.View()
	for _, want := range []string{"Test", "Root", "Typing", "unsaved"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestEditorScrollsToSelection(t *testing.T) {
	m, _ := newTestEditor(t)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 8})
	m = next.(editorModel)
	if m.height != 5 {
		t.Fatalf("height = %d, want 5", m.height)
	}
	for i := 0; i < 6; i++ {
		m = press(t, m, keyTab, keyEnter)
	}
	if m.offset == 0 {
		t.Errorf("offset should follow a selection below the fold")
	}
	rows := strings.Count(m.View(), "\n")
	if rows > m.height+6 {
		t.Errorf("view has %d lines, want at most %d", rows, m.height+6)
	}
}
