package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/driftboard/pkg/diagram"
	"github.com/matzehuels/driftboard/pkg/engine"
)

// moveStep is how far one shifted arrow key moves a node.
const moveStep = 20.0

// editCommand creates the "edit" command, an interactive terminal editor.
func (c *CLI) editCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edit [session]",
		Short: "Edit a session interactively",
		Long: `Edit a session in an interactive terminal editor.

Without a session argument a new one is created. The diagram is saved every
autosave interval, on "s" and on exit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			store, err := c.openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			saver, err := c.startSession(cmd.Context(), cfg, store, args)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			g, gctx := errgroup.WithContext(ctx)

			m := NewEditorModel(saver.Engine)
			m.Save = func() error {
				_, err := saver.SaveNow(gctx)
				return err
			}
			g.Go(func() error { return saver.Run(gctx) })
			g.Go(func() error {
				defer cancel()
				_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(gctx)).Run()
				if errors.Is(err, tea.ErrProgramKilled) {
					return nil
				}
				return err
			})
			if err := g.Wait(); err != nil {
				return err
			}
			printSuccess("Saved session %s", StyleHighlight.Render(saver.Session.ID))
			return nil
		},
	}
}

// Editor styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// EditorModel - Interactive diagram editing
// =============================================================================

type editorMode int

const (
	modeNormal editorMode = iota
	modeEdit
)

// EditorModel is the bubbletea model of the interactive editor. It lists the
// diagram's nodes and applies every key press as one engine operation.
type EditorModel struct {
	// Save is called on "s". Nil disables saving from the editor.
	Save func() error

	eng    *engine.Locked
	frame  engine.Frame
	cursor int
	offset int
	height int
	mode   editorMode
	input  []rune
	mark   *diagram.NodeID
	status string
}

// NewEditorModel creates an editor over eng.
func NewEditorModel(eng *engine.Locked) *EditorModel {
	m := &EditorModel{eng: eng, height: 15}
	m.refresh()
	return m
}

func (m *EditorModel) refresh() {
	m.eng.Do(func(e *engine.Engine) { m.frame = e.Frame() })
	if m.cursor >= len(m.frame.Nodes) {
		m.cursor = max(len(m.frame.Nodes)-1, 0)
	}
}

// current returns the node under the cursor.
func (m *EditorModel) current() (diagram.Node, bool) {
	if m.cursor < 0 || m.cursor >= len(m.frame.Nodes) {
		return diagram.Node{}, false
	}
	return m.frame.Nodes[m.cursor], true
}

// apply dispatches op and records its outcome in the status line.
func (m *EditorModel) apply(op engine.Op, done string) engine.Result {
	res, err := m.eng.Dispatch(op)
	switch {
	case err != nil:
		m.status = StyleError.Render(err.Error())
	case !res.Changed:
		m.status = StyleDim.Render("nothing changed")
	default:
		m.status = done
	}
	m.refresh()
	return res
}

func (m *EditorModel) Init() tea.Cmd {
	return nil
}

func (m *EditorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.mode == modeEdit {
			return m, m.updateEdit(msg)
		}
		return m, m.updateNormal(msg)
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m *EditorModel) updateNormal(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	switch key {
	case "q", "ctrl+c", "esc":
		return tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.frame.Nodes)-1 {
			m.cursor++
		}
	case "a":
		res := m.apply(engine.Op{Kind: engine.OpCreateNode}, "node added")
		m.moveCursorTo(res.Node)
	case "u":
		m.apply(engine.Op{Kind: engine.OpUndo}, "undone")
	case "ctrl+r", "U":
		m.apply(engine.Op{Kind: engine.OpRedo}, "redone")
	case "s":
		if m.Save == nil {
			return nil
		}
		if err := m.Save(); err != nil {
			m.status = StyleError.Render("save failed: " + err.Error())
		} else {
			m.status = "saved"
		}
	}

	n, ok := m.current()
	if !ok {
		return nil
	}
	switch key {
	case "enter", "e":
		m.mode = modeEdit
		m.input = []rune(n.Content)
		m.status = ""
	case "c", " ":
		m.apply(engine.Op{Kind: engine.OpToggleCollapse, Node: n.ID}, fmt.Sprintf("toggled %d", n.ID))
	case "d", "delete":
		m.apply(engine.Op{Kind: engine.OpDeleteNode, Node: n.ID}, fmt.Sprintf("deleted %d", n.ID))
		if m.mark != nil && *m.mark == n.ID {
			m.mark = nil
		}
	case "t":
		m.apply(engine.Op{Kind: engine.OpSetTitleBound, Node: n.ID, Bound: !n.TitleBound}, "title binding changed")
	case "m":
		id := n.ID
		m.mark = &id
		m.status = fmt.Sprintf("marked %d, move to a target and press n", id)
	case "n":
		if m.mark == nil {
			m.status = StyleWarning.Render("mark a source with m first")
			return nil
		}
		m.apply(engine.Op{Kind: engine.OpConnect, Node: *m.mark, Target: n.ID},
			fmt.Sprintf("connected %d %s %d", *m.mark, iconArrow, n.ID))
		m.mark = nil
	case "H", "shift+left":
		m.nudge(n, -moveStep, 0)
	case "L", "shift+right":
		m.nudge(n, moveStep, 0)
	case "K", "shift+up":
		m.nudge(n, 0, -moveStep)
	case "J", "shift+down":
		m.nudge(n, 0, moveStep)
	}
	return nil
}

func (m *EditorModel) nudge(n diagram.Node, dx, dy float64) {
	p := n.Pos.Add(diagram.Point{X: dx, Y: dy})
	m.apply(engine.Op{Kind: engine.OpMoveNode, Node: n.ID, Point: &p}, fmt.Sprintf("moved %d to %g,%g", n.ID, p.X, p.Y))
}

func (m *EditorModel) moveCursorTo(id diagram.NodeID) {
	for i, n := range m.frame.Nodes {
		if n.ID == id {
			m.cursor = i
			return
		}
	}
}

func (m *EditorModel) updateEdit(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeNormal
		m.status = StyleDim.Render("edit cancelled")
	case tea.KeyEnter:
		m.mode = modeNormal
		if n, ok := m.current(); ok {
			content := string(m.input)
			m.apply(engine.Op{Kind: engine.OpSetContent, Node: n.ID, Content: &content}, fmt.Sprintf("edited %d", n.ID))
		}
	case tea.KeyBackspace:
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
	case tea.KeySpace:
		m.input = append(m.input, ' ')
	case tea.KeyRunes:
		m.input = append(m.input, msg.Runes...)
	case tea.KeyCtrlC:
		return tea.Quit
	}
	return nil
}

func (m *EditorModel) View() string {
	var b strings.Builder

	title := m.frame.Title
	if title == "" {
		title = "Untitled diagram"
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ select  a add  e edit  c collapse  d delete  m/n connect  H/J/K/L move  t title  u/U undo/redo  s save  q quit"))
	b.WriteString("\n\n")

	if len(m.frame.Nodes) == 0 {
		b.WriteString(listDimStyle.Render("  empty diagram, press a to add a node"))
		b.WriteString("\n")
	}

	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
	end := min(m.offset+m.height, len(m.frame.Nodes))
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderRow(i))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.mode == modeEdit {
		b.WriteString(StyleHighlight.Render("content: ") + string(m.input) + "█")
		b.WriteString("\n")
		b.WriteString(listDimStyle.Render("enter save  esc cancel"))
	} else {
		b.WriteString(formatStats(len(m.frame.Nodes), len(m.frame.Edges), m.hiddenCount()))
		if m.status != "" {
			b.WriteString("\n  " + m.status)
		}
	}
	return b.String()
}

func (m *EditorModel) renderRow(i int) string {
	n := m.frame.Nodes[i]
	cursor := "  "
	if i == m.cursor {
		cursor = "▸ "
	}
	var flags []string
	if n.Collapsed {
		flags = append(flags, "[+]")
	}
	if n.TitleBound {
		flags = append(flags, "title")
	}
	if m.mark != nil && *m.mark == n.ID {
		flags = append(flags, "marked")
	}
	line := fmt.Sprintf("%s%-4d %-32s %s", cursor, n.ID,
		truncate(diagram.PlainText(n.Content), 32),
		listDimStyle.Render(fmt.Sprintf("%g,%g %s", n.Pos.X, n.Pos.Y, strings.Join(flags, " "))))

	switch {
	case i == m.cursor:
		return listSelectedStyle.Render(line)
	case n.IsHidden():
		return listDimStyle.Render(line)
	}
	return listNormalStyle.Render(line)
}

func (m *EditorModel) hiddenCount() int {
	count := 0
	for _, n := range m.frame.Nodes {
		if n.IsHidden() {
			count++
		}
	}
	return count
}
