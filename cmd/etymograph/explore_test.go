package main

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dd0wney/etymograph/pkg/explorer"
	"github.com/dd0wney/etymograph/pkg/graphstate"
	"github.com/dd0wney/etymograph/pkg/lexicon"
	"github.com/dd0wney/etymograph/pkg/viewport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T, root string) exploreModel {
	t.Helper()
	ds, err := lexicon.Builtin("run")
	require.NoError(t, err)
	lex, err := lexicon.NewStaticLexicon(ds)
	require.NoError(t, err)

	sess, err := explorer.NewSession(lex, graphstate.StaticOptions(), explorer.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(sess.Close)

	m := newExploreModel(context.Background(), sess, &backend{lookup: lex, static: lex}, root)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(exploreModel)
}

func update(t *testing.T, m exploreModel, msg tea.Msg) (exploreModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(exploreModel), cmd
}

func TestExploreSearchAndOpen(t *testing.T) {
	m := newTestModel(t, "")
	require.True(t, m.searching, "no root word starts in search")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("ru")})
	assert.Equal(t, "ru", m.input.Value())

	m, _ = update(t, m, m.findCmd("ru")())
	require.NotEmpty(t, m.results)
	assert.Equal(t, "run", m.results[0].Word)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.cursor)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.False(t, m.searching)

	m, _ = update(t, m, cmd())
	assert.Equal(t, "run__en", m.root)
	assert.Empty(t, m.message)
	assert.Equal(t, "run__en", m.session.Engine().Selected())
	assert.Contains(t, m.View(), "run")
}

func TestExploreStaleSearchIgnored(t *testing.T) {
	m := newTestModel(t, "")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("rin")})
	m, _ = update(t, m, foundMsg{query: "ru", results: []lexicon.SearchResult{{Word: "run", LangCode: "en"}}})
	assert.Empty(t, m.results)
}

func TestExploreOpenError(t *testing.T) {
	m := newTestModel(t, "")
	m, _ = update(t, m, m.openCmd("nope__xx")())
	assert.True(t, m.failed)
	assert.Contains(t, m.message, "nope__xx")
}

func TestExploreKeys(t *testing.T) {
	m := newTestModel(t, "run__en")
	m, _ = update(t, m, m.openCmd("run__en")())
	view := m.session.Viewport()

	before := view.Transform()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, before.TranslateX+panStep, view.Transform().TranslateX)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd, "enter expands the selected word")
	m, _ = update(t, m, cmd())
	assert.True(t, m.session.Engine().IsExpanded("run__en"))
	assert.True(t, m.fitOnSettle)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.NotEqual(t, "run__en", m.session.Engine().Selected())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, m.session.Engine().Selected())

	rows := m.canvasRows()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	assert.Less(t, m.canvasRows(), rows, "full help takes canvas rows")

	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestExploreMouse(t *testing.T) {
	m := newTestModel(t, "run__en")
	m, _ = update(t, m, m.openCmd("run__en")())
	m.session.Settle(50)
	view := m.session.Viewport()
	view.SetTransform(view.FitTransform(m.session.Engine().Nodes()))

	n, ok := m.session.Engine().Node("run__en")
	require.True(t, ok)
	x, y := toCell(view.WorldToScreen(n.Position))
	row := y + 1

	// A click on the background clears the selection.
	m, _ = update(t, m, tea.MouseMsg{X: 1, Y: 2, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	m, _ = update(t, m, tea.MouseMsg{X: 1, Y: 2, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	assert.Empty(t, m.session.Engine().Selected())

	// A click on a word selects it.
	m, _ = update(t, m, tea.MouseMsg{X: x, Y: row, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	assert.Equal(t, "run__en", m.ptr.node)
	m, cmd := update(t, m, tea.MouseMsg{X: x, Y: row, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	assert.Equal(t, "run__en", m.session.Engine().Selected())

	// Dragging the background pans.
	before := view.Transform()
	m, _ = update(t, m, tea.MouseMsg{X: 1, Y: 2, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	m, _ = update(t, m, tea.MouseMsg{X: 4, Y: 3, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	m, _ = update(t, m, tea.MouseMsg{X: 4, Y: 3, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	after := view.Transform()
	assert.InDelta(t, before.TranslateX+3*cellWidth, after.TranslateX, 1e-9)
	assert.InDelta(t, before.TranslateY+cellHeight, after.TranslateY, 1e-9)
	assert.Equal(t, "run__en", m.session.Engine().Selected(), "a drag is not a click")

	// The wheel zooms.
	scale := view.Transform().Scale
	m, _ = update(t, m, tea.MouseMsg{X: 10, Y: 10, Button: tea.MouseButtonWheelDown})
	assert.Less(t, view.Transform().Scale, scale)
	_ = m
}

func TestExploreFrameTick(t *testing.T) {
	m := newTestModel(t, "run__en")
	m, _ = update(t, m, m.openCmd("run__en")())
	m, cmd := update(t, m, frameMsg(time.Now()))
	assert.NotNil(t, cmd, "frames keep coming")
	assert.Positive(t, m.session.Simulation().Ticks())
}

func TestMinimapBox(t *testing.T) {
	_, ok := minimapBox(40, 30)
	assert.False(t, ok, "too narrow")

	b, ok := minimapBox(100, 30)
	require.True(t, ok)
	assert.Equal(t, 100-minimapCols-1, b.x)
	assert.Equal(t, 30-minimapRows, b.y)
	assert.False(t, b.contains(b.x, b.y), "the border is not inside")
	assert.True(t, b.contains(b.x+1, b.y+1))

	cfg := viewport.DefaultConfig()
	p := b.toMinimap(b.x+1, b.y+1, cfg)
	assert.Greater(t, p.X, 0.0)
	assert.Less(t, p.X, cfg.MinimapWidth/float64(b.w-2))
	q := b.toMinimap(b.x+b.w-2, b.y+b.h-2, cfg)
	assert.Less(t, q.X, cfg.MinimapWidth)
	assert.Less(t, q.Y, cfg.MinimapHeight)
}

func TestRenderGraphDrawsLabels(t *testing.T) {
	m := newTestModel(t, "run__en")
	m, _ = update(t, m, m.openCmd("run__en")())
	require.NoError(t, m.session.Engine().Expand(context.Background(), "run__en"))
	m.session.Settle(300)
	m.session.Viewport().SetTransform(m.session.Viewport().FitTransform(m.session.Engine().Nodes()))

	out := renderGraph(m.session, m.session.Frame(time.Now()), 100, 30)
	assert.Equal(t, 30, strings.Count(out, "\n")+1)
	assert.Contains(t, out, "run")
	assert.Contains(t, out, "rinnan")
}

func TestArrow(t *testing.T) {
	assert.Equal(t, '▸', arrow(10, 1))
	assert.Equal(t, '◂', arrow(-10, 1))
	assert.Equal(t, '▾', arrow(1, 10))
	assert.Equal(t, '▴', arrow(1, -10))
}
