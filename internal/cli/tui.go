package cli

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mindmap/pkg/editor"
	merrors "github.com/matzehuels/mindmap/pkg/errors"
	"github.com/matzehuels/mindmap/pkg/layout"
	"github.com/matzehuels/mindmap/pkg/mindmap"
)

// Editor styles
var (
	editSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	editNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	editInputStyle    = lipgloss.NewStyle().Underline(true).Foreground(colorWhite)
	editErrorStyle    = lipgloss.NewStyle().Foreground(colorRed)
)

const editHelp = "tab child  ⏎ sibling  del delete  space collapse  shift+↑/↓ reorder  e edit  c/v copy/paste  m/r mark/reparent  </>/= side  q quit"

// editCommand creates the "edit" command.
func (c *CLI) editCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <map-id>",
		Short: "Edit a map interactively",
		Long: `Open a map in an interactive outline editor.

Keys:
  ↑/↓ j/k      select previous/next node
  ←/→ h/l      select parent/first child
  tab          add a child and edit its text
  enter        add a sibling and edit its text
  del          delete the selected subtree
  space        collapse or expand
  shift+↑/↓    move among siblings
  e, f2        edit the text (enter saves, esc cancels, alt+enter breaks the line)
  c, v         copy the subtree, paste the clipboard as a child
  m, r         mark a node, then move it under the selected node
  <, >, =      pin a top-level branch left, right, or let the layout decide
  q            save and quit

Changes are saved after the map's autosave delay and when the editor exits.
The clipboard is shared with 'mindmap node copy' and 'mindmap node paste'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			m, err := st.Get(ctx, args[0])
			if err != nil {
				return err
			}

			cb, err := c.openClipboard()
			if err != nil {
				return err
			}
			defer cb.Close()
			clip, err := cb.Load(ctx)
			if err != nil {
				c.Logger.Warn("Clipboard unreadable", "err", err)
			}

			var p *tea.Program
			sess := editor.New(m, editor.Options{
				// The terminal belongs to the editor while it runs.
				Logger: log.New(io.Discard),
				Saver:  st,
				OnSave: func(err error) {
					if p != nil {
						p.Send(savedMsg{err: err})
					}
				},
			})
			sess.SetClipboard(clip)

			model := newEditorModel(sess)
			p = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
			final, runErr := p.Run()

			if fm, ok := final.(editorModel); ok && fm.copied {
				if err := cb.Store(ctx, sess.Clipboard()); err != nil {
					c.Logger.Warn("Could not keep the clipboard", "err", err)
				}
			}
			if err := sess.Close(ctx); err != nil {
				return err
			}
			if runErr != nil {
				return runErr
			}
			snap := sess.Snapshot()
			printSuccess(cmd.OutOrStdout(), "Saved %s (%d nodes)", StyleTitle.Render(snap.Title), snap.Len())
			return nil
		},
	}
}

// savedMsg reports the result of an autosave.
type savedMsg struct{ err error }

type editMode int

const (
	modeNavigate editMode = iota
	modeText
)

// editorModel is the bubbletea model of the outline editor. Every edit goes
// through the session; the outline is rebuilt from the session's layout.
type editorModel struct {
	sess     *editor.Session
	selected string
	mark     string
	mode     editMode

	// Text editing state.
	input    []rune
	replace  bool // the next typed rune replaces the whole input
	original string

	status  string
	failed  bool
	saveErr error
	copied  bool

	height int
	offset int
}

func newEditorModel(sess *editor.Session) editorModel {
	var root string
	sess.View(func(m *mindmap.Map) { root = m.RootID })
	return editorModel{sess: sess, selected: root, height: 20}
}

func (m editorModel) Init() tea.Cmd {
	return nil
}

func (m editorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.status, m.failed = "", false
		if m.mode == modeText {
			m = m.updateText(msg)
		} else {
			var quit bool
			m, quit = m.updateNavigate(msg)
			if quit {
				return m, tea.Quit
			}
		}
		m.follow()
	case tea.WindowSizeMsg:
		m.height = msg.Height - 6
		if m.height < 5 {
			m.height = 5
		}
		m.follow()
	case savedMsg:
		m.saveErr = msg.err
	}
	return m, nil
}

func (m editorModel) updateNavigate(msg tea.KeyMsg) (editorModel, bool) {
	s := m.sess
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, true
	case "up", "k":
		m.step(-1)
	case "down", "j":
		m.step(1)
	case "left", "h":
		if p, ok := m.parentOf(m.selected); ok {
			m.selected = p
		}
	case "right", "l":
		l := s.Layout()
		if i := m.indexIn(l); i >= 0 && i+1 < len(l.Order) && l.Nodes[l.Order[i+1]].Depth > l.Nodes[m.selected].Depth {
			m.selected = l.Order[i+1]
		}
	case "tab":
		if id, ok := s.InsertChild(m.selected); ok {
			m.selected = id
			m.startEdit(true)
		}
	case "enter":
		if id, ok := s.InsertSibling(m.selected); ok {
			m.selected = id
			m.startEdit(true)
		} else {
			m.fail("The root has no siblings")
		}
	case "delete", "backspace":
		if s.Delete(m.selected) {
			if m.mark != "" && !m.exists(m.mark) {
				m.mark = ""
			}
			m.selected = m.root()
		} else {
			m.fail("The root cannot be deleted")
		}
	case " ":
		if !s.ToggleCollapse(m.selected) {
			m.fail("Only nodes with children collapse")
		}
	case "shift+up":
		s.MoveSibling(m.selected, -1)
	case "shift+down":
		s.MoveSibling(m.selected, 1)
	case "e", "f2":
		m.startEdit(false)
	case "c":
		if s.Copy(m.selected) {
			m.copied = true
			m.info("Copied %d nodes", s.Clipboard().Len())
		}
	case "v":
		if id, ok := s.Paste(m.selected); ok {
			m.selected = id
			m.info("Pasted %d nodes", s.Clipboard().Len())
		} else {
			m.fail("The clipboard is empty")
		}
	case "m":
		m.mark = m.selected
		m.info("Marked %s; select the new parent and press r", m.selected)
	case "r":
		switch {
		case m.mark == "":
			m.fail("Mark a node with m first")
		case s.Reparent(m.mark, m.selected):
			m.info("Moved %s under %s", m.mark, m.selected)
			m.mark = ""
		default:
			m.fail("A node cannot move under itself or its descendants")
		}
	case "<", ">", "=":
		side := map[string]mindmap.Side{"<": mindmap.SideLeft, ">": mindmap.SideRight, "=": mindmap.SideAuto}[msg.String()]
		if !s.SetSide(m.selected, side) {
			m.fail("Only top-level branches have a side")
		}
	}
	return m, false
}

func (m editorModel) updateText(msg tea.KeyMsg) editorModel {
	switch msg.String() {
	case "enter":
		m.commit()
	case "tab":
		if m.commit() {
			if id, ok := m.sess.InsertChild(m.selected); ok {
				m.selected = id
				m.startEdit(true)
			}
		}
	case "esc":
		m.mode = modeNavigate
		m.input = nil
	case "alt+enter":
		m.typeRunes([]rune{'\n'})
	case "backspace":
		if m.replace {
			m.input, m.replace = nil, false
		} else if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
	default:
		switch msg.Type {
		case tea.KeyRunes:
			m.typeRunes(msg.Runes)
		case tea.KeySpace:
			m.typeRunes([]rune{' '})
		}
	}
	return m
}

func (m *editorModel) startEdit(replace bool) {
	m.sess.View(func(mm *mindmap.Map) {
		if n, ok := mm.Node(m.selected); ok {
			m.original = n.Text
		}
	})
	m.mode = modeText
	m.input = []rune(m.original)
	m.replace = replace
}

// commit writes the edited text. Invalid text keeps the editor open.
func (m *editorModel) commit() bool {
	text := string(m.input)
	if err := merrors.ValidateNodeText(text); err != nil {
		m.fail("%s", merrors.UserMessage(err))
		return false
	}
	m.sess.SetText(m.selected, text)
	m.mode = modeNavigate
	m.input = nil
	return true
}

func (m *editorModel) typeRunes(r []rune) {
	if m.replace {
		m.input, m.replace = nil, false
	}
	m.input = append(m.input, r...)
}

func (m *editorModel) info(format string, args ...any) {
	m.status, m.failed = fmt.Sprintf(format, args...), false
}

func (m *editorModel) fail(format string, args ...any) {
	m.status, m.failed = fmt.Sprintf(format, args...), true
}

func (m *editorModel) root() string {
	var id string
	m.sess.View(func(mm *mindmap.Map) { id = mm.RootID })
	return id
}

func (m *editorModel) exists(id string) bool {
	var ok bool
	m.sess.View(func(mm *mindmap.Map) { _, ok = mm.Node(id) })
	return ok
}

func (m *editorModel) parentOf(id string) (string, bool) {
	var pid string
	m.sess.View(func(mm *mindmap.Map) {
		if p, ok := mm.Parent(id); ok {
			pid = p.ID
		}
	})
	return pid, pid != ""
}

// indexIn returns the row of the selected node, or -1 when it is hidden.
func (m *editorModel) indexIn(l *layout.Layout) int {
	for i, id := range l.Order {
		if id == m.selected {
			return i
		}
	}
	return -1
}

// step moves the selection by delta visible rows.
func (m *editorModel) step(delta int) {
	l := m.sess.Layout()
	i := m.indexIn(l) + delta
	if i >= 0 && i < len(l.Order) {
		m.selected = l.Order[i]
	}
}

// follow keeps the selection visible and scrolls to it.
func (m *editorModel) follow() {
	l := m.sess.Layout()
	i := m.indexIn(l)
	if i < 0 {
		m.selected = m.root()
		i = 0
	}
	if i < m.offset {
		m.offset = i
	}
	if i >= m.offset+m.height {
		m.offset = i - m.height + 1
	}
}

func (m editorModel) View() string {
	var b strings.Builder
	snap := m.sess.Snapshot()
	l := m.sess.Layout()

	b.WriteString(StyleTitle.Render(snap.Title))
	switch {
	case m.saveErr != nil:
		b.WriteString("  " + editErrorStyle.Render("save failed: "+m.saveErr.Error()))
	case m.sess.Pending():
		b.WriteString("  " + StyleWarning.Render("● unsaved"))
	default:
		b.WriteString("  " + StyleSuccess.Render("saved"))
	}
	b.WriteString("\n")
	b.WriteString(StyleDim.Render(editHelp))
	b.WriteString("\n\n")

	end := m.offset + m.height
	if end > len(l.Order) {
		end = len(l.Order)
	}
	for _, id := range l.Order[m.offset:end] {
		b.WriteString(m.row(snap, l.Nodes[id]))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.failed:
		b.WriteString(editErrorStyle.Render(m.status))
	case m.status != "":
		b.WriteString(StyleDim.Render(m.status))
	default:
		b.WriteString(StyleDim.Render(fmt.Sprintf("[%d/%d] %d nodes", m.indexIn(l)+1, len(l.Order), snap.Len())))
	}
	for _, w := range l.Warnings {
		b.WriteString("\n" + StyleWarning.Render(w))
	}
	return b.String()
}

// row renders one outline line: indent, level color, side, text, badges.
func (m editorModel) row(snap *mindmap.Map, g layout.Geometry) string {
	cursor := "  "
	if g.ID == m.selected {
		cursor = "▸ "
	}
	bullet := lipgloss.NewStyle().Foreground(lipgloss.Color(g.Color)).Render("●")

	var text string
	if g.ID == m.selected && m.mode == modeText {
		text = editInputStyle.Render(strings.ReplaceAll(string(m.input), "\n", "⏎")) + "█"
	} else {
		text = strings.Join(g.Lines, " ")
		if text == "" {
			text = StyleDim.Render("(empty)")
		}
	}

	var tags []string
	if g.Depth == 1 && g.Direction == layout.DirectionLeft {
		tags = append(tags, iconLeft)
	}
	if n, ok := snap.Node(g.ID); ok && n.Media != nil {
		tags = append(tags, "[image]")
	}
	if g.Collapsed {
		tags = append(tags, styleBadge.Render(fmt.Sprintf("(+%d)", g.HiddenChildren)))
	}
	if g.ID == m.mark {
		tags = append(tags, StyleHighlight.Render("*"))
	}

	line := cursor + strings.Repeat("  ", g.Depth) + bullet + " "
	if g.ID == m.selected {
		line += editSelectedStyle.Render(text)
	} else {
		line += editNormalStyle.Render(text)
	}
	if len(tags) > 0 {
		line += " " + StyleDim.Render(strings.Join(tags, " "))
	}
	return line
}
