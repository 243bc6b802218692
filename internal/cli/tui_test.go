package cli

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/driftboard/pkg/diagram"
	"github.com/matzehuels/driftboard/pkg/engine"
)

func keys(m *EditorModel, presses ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, p := range presses {
		var msg tea.KeyMsg
		switch p {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "backspace":
			msg = tea.KeyMsg{Type: tea.KeyBackspace}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "ctrl+r":
			msg = tea.KeyMsg{Type: tea.KeyCtrlR}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(p)}
		}
		_, cmd = m.Update(msg)
	}
	return cmd
}

func newTestEditor() (*EditorModel, *engine.Locked) {
	eng := engine.NewLocked(engine.New(engine.Options{}))
	return NewEditorModel(eng), eng
}

func node(t *testing.T, eng *engine.Locked, id diagram.NodeID) diagram.Node {
	t.Helper()
	var (
		n  diagram.Node
		ok bool
	)
	eng.Do(func(e *engine.Engine) { n, ok = e.Store().Node(id) })
	require.True(t, ok, "node %d", id)
	return n
}

func TestEditorAddEditConnect(t *testing.T) {
	m, eng := newTestEditor()

	keys(m, "a", "a")
	assert.Equal(t, 1, m.cursor, "cursor follows the new node")

	keys(m, "e", "backspace", "backspace", "backspace", "backspace", "backspace", "x", "y", "enter")
	assert.Equal(t, "New xy", node(t, eng, 1).Content)

	keys(m, "up", "m", "j", "n")
	var edges int
	eng.Do(func(e *engine.Engine) { edges = e.Store().EdgeCount() })
	assert.Equal(t, 1, edges)
	assert.Nil(t, m.mark)

	keys(m, "up", "c")
	assert.True(t, node(t, eng, 1).IsHidden())
	assert.Contains(t, m.View(), "[+]")

	keys(m, "u")
	assert.False(t, node(t, eng, 1).IsHidden())
	keys(m, "ctrl+r")
	assert.True(t, node(t, eng, 1).IsHidden())
}

func TestEditorEditCancel(t *testing.T) {
	m, eng := newTestEditor()
	keys(m, "a", "e", "z", "esc")
	assert.Equal(t, engine.DefaultContent, node(t, eng, 0).Content)
	assert.Equal(t, modeNormal, m.mode)
}

func TestEditorMoveAndDelete(t *testing.T) {
	m, eng := newTestEditor()
	keys(m, "a", "L", "J")
	assert.Equal(t, diagram.Point{X: 120, Y: 120}, node(t, eng, 0).Pos)

	keys(m, "t")
	assert.Equal(t, engine.DefaultContent, m.frame.Title)

	keys(m, "d")
	assert.Empty(t, m.frame.Nodes)
	assert.Contains(t, m.View(), "empty diagram")
}

func TestEditorConnectNeedsMark(t *testing.T) {
	m, _ := newTestEditor()
	keys(m, "a", "n")
	assert.Contains(t, m.status, "mark a source")
}

func TestEditorSave(t *testing.T) {
	m, _ := newTestEditor()
	calls := 0
	m.Save = func() error { calls++; return nil }
	keys(m, "s")
	assert.Equal(t, 1, calls)
	assert.Equal(t, "saved", m.status)

	m.Save = func() error { return errors.New("disk full") }
	keys(m, "s")
	assert.True(t, strings.Contains(m.status, "disk full"))
}

func TestEditorQuit(t *testing.T) {
	m, _ := newTestEditor()
	cmd := keys(m, "q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
