package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dd0wney/etymograph/pkg/explorer"
	"github.com/dd0wney/etymograph/pkg/lexicon"
	"github.com/dd0wney/etymograph/pkg/logging"
	"github.com/dd0wney/etymograph/pkg/projection"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

const (
	// One terminal cell stands for this many canvas units.
	cellWidth  = 8.0
	cellHeight = 16.0

	frameInterval = 33 * time.Millisecond
	panStep       = 4 * cellWidth
	wheelZoom     = 1.1
	maxResults    = 6
)

func exploreCmd(a *app) *cobra.Command {
	var logFile string
	cmd := &cobra.Command{
		Use:   "explore [WORD_ID]",
		Short: "Browse etymologies interactively",
		Long: "Explore opens an interactive graph in the terminal. Click a word to\n" +
			"select it and click it again to reveal its relatives. Drag words to\n" +
			"move them, drag the background to pan and scroll to zoom.",
		Example: "  etymograph explore run__en\n  etymograph -c remote.yaml explore",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if fd := os.Stdout.Fd(); !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
				return errors.New("explore needs an interactive terminal; use `etymograph layout` for scripted output")
			}
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
				if err != nil {
					return err
				}
				defer f.Close()
				a.log = logging.NewJSONLogger(f, a.cfg.LogLevel)
			} else {
				a.log = logging.NewNopLogger()
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			b, err := a.openBackend(ctx, nil)
			if err != nil {
				return err
			}
			defer b.Close()

			sess, err := explorer.NewSession(b.lookup, a.engineOptions(), a.cfg.Explorer)
			if err != nil {
				return err
			}
			defer sess.Close()

			root := ""
			if len(args) == 1 {
				root = args[0]
			}
			p := tea.NewProgram(newExploreModel(ctx, sess, b, root), tea.WithAltScreen(), tea.WithMouseCellMotion())
			_, err = p.Run()
			return err
		},
	}
	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs here instead of discarding them")
	return cmd
}

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Left    key.Binding
	Right   key.Binding
	ZoomIn  key.Binding
	ZoomOut key.Binding
	Fit     key.Binding
	Next    key.Binding
	Expand  key.Binding
	Clear   key.Binding
	Search  key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Next, k.Expand, k.Fit, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.ZoomIn, k.ZoomOut, k.Fit},
		{k.Next, k.Expand, k.Clear},
		{k.Search, k.Help, k.Quit},
	}
}

var exploreKeys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "pan up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "pan down"),
	),
	Left: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "pan left"),
	),
	Right: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "pan right"),
	),
	ZoomIn: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+", "zoom in"),
	),
	ZoomOut: key.NewBinding(
		key.WithKeys("-", "_"),
		key.WithHelp("-", "zoom out"),
	),
	Fit: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "fit"),
	),
	Next: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next word"),
	),
	Expand: key.NewBinding(
		key.WithKeys("enter", "e"),
		key.WithHelp("enter", "expand"),
	),
	Clear: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "deselect"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "more keys"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

type frameMsg time.Time

type openedMsg struct {
	id  string
	err error
}

type clickedMsg struct {
	id  string
	err error
}

type foundMsg struct {
	query   string
	results []lexicon.SearchResult
	err     error
}

// pointer tracks a left-button gesture on the canvas.
type pointer struct {
	down      bool
	node      string
	moved     bool
	lastX     int
	lastY     int
	onMinimap bool
}

type exploreModel struct {
	ctx     context.Context
	session *explorer.Session
	search  interface {
		Search(ctx context.Context, q string, limit int) ([]lexicon.SearchResult, error)
	}

	keys  keyMap
	help  help.Model
	input textinput.Model

	searching bool
	results   []lexicon.SearchResult
	cursor    int

	width, height int
	ptr           pointer
	fitOnSettle   bool
	message       string
	failed        bool
	root          string
}

func newExploreModel(ctx context.Context, sess *explorer.Session, b *backend, root string) exploreModel {
	ti := textinput.New()
	ti.Placeholder = "word prefix"
	ti.Prompt = "/ "
	ti.CharLimit = 64

	m := exploreModel{
		ctx:     ctx,
		session: sess,
		search:  b,
		keys:    exploreKeys,
		help:    help.New(),
		input:   ti,
		root:    root,
		width:   100,
		height:  30,
	}
	if root == "" {
		m.searching = true
		m.input.Focus()
	}
	return m
}

func frameCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m exploreModel) openCmd(id string) tea.Cmd {
	return func() tea.Msg {
		return openedMsg{id: id, err: m.session.Open(m.ctx, id)}
	}
}

func (m exploreModel) clickCmd(id string) tea.Cmd {
	return func() tea.Msg {
		return clickedMsg{id: id, err: m.session.Viewport().ClickNode(m.ctx, id)}
	}
}

func (m exploreModel) expandCmd(id string) tea.Cmd {
	return func() tea.Msg {
		return clickedMsg{id: id, err: m.session.Engine().Expand(m.ctx, id)}
	}
}

func (m exploreModel) findCmd(q string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.search.Search(m.ctx, q, maxResults)
		return foundMsg{query: q, results: res, err: err}
	}
}

func (m exploreModel) Init() tea.Cmd {
	cmds := []tea.Cmd{frameCmd()}
	if m.root != "" {
		cmds = append(cmds, m.openCmd(m.root))
	} else {
		cmds = append(cmds, textinput.Blink)
	}
	return tea.Batch(cmds...)
}

// canvasRows is the height left for the graph after the title, search
// panel, status and help lines.
func (m exploreModel) canvasRows() int {
	rows := m.height - 2 - strings.Count(m.help.View(m.keys), "\n") - 1
	if m.searching {
		rows -= 1 + maxResults
	}
	return max(rows, 3)
}

func (m exploreModel) resize() {
	m.session.Viewport().Resize(float64(m.width)*cellWidth, float64(m.canvasRows())*cellHeight)
}

// screenAt maps a terminal cell to canvas coordinates. row counts from
// the top of the terminal.
func (m exploreModel) screenAt(col, row int) projection.Position {
	return projection.Position{
		X: (float64(col) + 0.5) * cellWidth,
		Y: (float64(row-1) + 0.5) * cellHeight,
	}
}

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resize()
		return m, nil

	case frameMsg:
		now := time.Time(msg)
		moving := m.session.Tick(now)
		if m.fitOnSettle && !moving {
			m.fitOnSettle = false
			m.session.Fit(now)
		}
		return m, frameCmd()

	case openedMsg:
		if msg.err != nil {
			m.message, m.failed = fmt.Sprintf("could not open %s: %v", msg.id, msg.err), true
			return m, nil
		}
		m.root = msg.id
		m.message, m.failed = "", false
		m.fitOnSettle = true
		return m, nil

	case clickedMsg:
		m.message, m.failed = "", false
		if msg.err != nil {
			m.message, m.failed = fmt.Sprintf("%s: %v", msg.id, msg.err), true
		}
		if m.session.Engine().IsExpanded(msg.id) {
			m.fitOnSettle = true
		}
		return m, nil

	case foundMsg:
		if msg.query != strings.TrimSpace(m.input.Value()) {
			return m, nil
		}
		if msg.err != nil {
			m.message, m.failed = "search failed: "+msg.err.Error(), true
		}
		m.results = msg.results
		m.cursor = 0
		return m, nil

	case tea.MouseMsg:
		return m.mouse(msg)

	case tea.KeyMsg:
		if m.searching {
			return m.searchKey(msg)
		}
		return m.key(msg)
	}
	return m, nil
}

func (m exploreModel) key(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	view := m.session.Viewport()
	engine := m.session.Engine()
	now := time.Now()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		view.Pan(0, panStep)
	case key.Matches(msg, m.keys.Down):
		view.Pan(0, -panStep)
	case key.Matches(msg, m.keys.Left):
		view.Pan(panStep, 0)
	case key.Matches(msg, m.keys.Right):
		view.Pan(-panStep, 0)
	case key.Matches(msg, m.keys.ZoomIn):
		view.ZoomIn(now)
	case key.Matches(msg, m.keys.ZoomOut):
		view.ZoomOut(now)
	case key.Matches(msg, m.keys.Fit):
		m.session.Fit(now)
	case key.Matches(msg, m.keys.Next):
		if id := nextNode(m.session, engine.Selected()); id != "" {
			_ = engine.Select(id)
		}
	case key.Matches(msg, m.keys.Expand):
		if id := engine.Selected(); id != "" {
			m.message, m.failed = "expanding "+id, false
			return m, m.expandCmd(id)
		}
	case key.Matches(msg, m.keys.Clear):
		_ = view.ClickCanvas()
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.input.SetValue("")
		m.results = nil
		m.resize()
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
	}
	return m, nil
}

func (m exploreModel) searchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.searching = false
		m.input.Blur()
		m.resize()
		return m, nil
	case "up":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "tab":
		if m.cursor < len(m.results)-1 {
			m.cursor++
		}
		return m, nil
	case "enter":
		if len(m.results) == 0 {
			return m, nil
		}
		id := m.results[m.cursor].ID()
		m.searching = false
		m.input.Blur()
		m.resize()
		m.message, m.failed = "opening "+id, false
		return m, m.openCmd(id)
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	q := strings.TrimSpace(m.input.Value())
	if m.input.Value() == before {
		return m, cmd
	}
	if len([]rune(q)) < 2 {
		m.results = nil
		return m, cmd
	}
	return m, tea.Batch(cmd, m.findCmd(q))
}

func (m exploreModel) mouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	view := m.session.Viewport()
	rows := m.canvasRows()
	row := msg.Y - 1
	inCanvas := row >= 0 && row < rows
	at := m.screenAt(msg.X, msg.Y)

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if inCanvas {
			view.ZoomBy(wheelZoom, at)
		}
		return m, nil
	case tea.MouseButtonWheelDown:
		if inCanvas {
			view.ZoomBy(1/wheelZoom, at)
		}
		return m, nil
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || !inCanvas {
			return m, nil
		}
		m.ptr = pointer{down: true, lastX: msg.X, lastY: msg.Y}
		if mb, ok := minimapBox(m.width, rows); ok && mb.contains(msg.X, row) {
			m.ptr.onMinimap = true
			view.CenterOnMinimap(mb.toMinimap(msg.X, row, view.Config()))
			return m, nil
		}
		if id, ok := view.HitTest(at, m.session.Engine().Nodes()); ok && view.DragStart(id) {
			m.ptr.node = id
		}

	case tea.MouseActionMotion:
		if !m.ptr.down {
			return m, nil
		}
		dx, dy := msg.X-m.ptr.lastX, msg.Y-m.ptr.lastY
		if dx == 0 && dy == 0 {
			return m, nil
		}
		m.ptr.moved = true
		m.ptr.lastX, m.ptr.lastY = msg.X, msg.Y
		switch {
		case m.ptr.onMinimap:
			if mb, ok := minimapBox(m.width, rows); ok && mb.contains(msg.X, row) {
				view.CenterOnMinimap(mb.toMinimap(msg.X, row, view.Config()))
			}
		case m.ptr.node != "":
			view.DragMove(m.ptr.node, at)
		default:
			view.Pan(float64(dx)*cellWidth, float64(dy)*cellHeight)
		}

	case tea.MouseActionRelease:
		if !m.ptr.down {
			return m, nil
		}
		ptr := m.ptr
		m.ptr = pointer{}
		switch {
		case ptr.onMinimap:
		case ptr.node != "":
			view.DragEnd(ptr.node)
			if !ptr.moved {
				return m, m.clickCmd(ptr.node)
			}
		case !ptr.moved:
			_ = view.ClickCanvas()
		}
	}
	return m, nil
}

// nextNode returns the node after current in display order, wrapping.
func nextNode(sess *explorer.Session, current string) string {
	nodes := sess.Engine().Nodes()
	if len(nodes) == 0 {
		return ""
	}
	for i, n := range nodes {
		if n.ID == current {
			return nodes[(i+1)%len(nodes)].ID
		}
	}
	return nodes[0].ID
}
