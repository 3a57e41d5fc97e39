package main

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dd0wney/etymograph/pkg/explorer"
	"github.com/dd0wney/etymograph/pkg/projection"
	"github.com/dd0wney/etymograph/pkg/viewport"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF"))

	edgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#555555"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Reverse(true)

	minimapStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FFFF"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#FF00FF"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
)

type cellKind uint8

const (
	blankCell cellKind = iota
	edgeCell
	nodeCell
	selectedCell
	minimapCell
)

type cell struct {
	r     rune
	kind  cellKind
	color string
}

// canvas is a grid of styled terminal cells.
type canvas struct {
	w, h  int
	cells [][]cell
}

func newCanvas(w, h int) *canvas {
	c := &canvas{w: w, h: h, cells: make([][]cell, h)}
	for y := range c.cells {
		row := make([]cell, w)
		for x := range row {
			row[x] = cell{r: ' '}
		}
		c.cells[y] = row
	}
	return c
}

func (c *canvas) set(x, y int, r rune, kind cellKind, color string) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	c.cells[y][x] = cell{r: r, kind: kind, color: color}
}

func (c *canvas) text(x, y int, s string, kind cellKind, color string) {
	for _, r := range s {
		c.set(x, y, r, kind, color)
		x++
	}
}

// plot marks an edge cell without overwriting labels.
func (c *canvas) plot(x, y int, r rune) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	if c.cells[y][x].kind == blankCell {
		c.cells[y][x] = cell{r: r, kind: edgeCell}
	}
}

func (c *canvas) String() string {
	var b strings.Builder
	for y, row := range c.cells {
		if y > 0 {
			b.WriteByte('\n')
		}
		start := 0
		for x := 1; x <= len(row); x++ {
			if x < len(row) && row[x].kind == row[start].kind && row[x].color == row[start].color {
				continue
			}
			run := make([]rune, 0, x-start)
			for _, cl := range row[start:x] {
				run = append(run, cl.r)
			}
			b.WriteString(styleFor(row[start]).Render(string(run)))
			start = x
		}
	}
	return b.String()
}

func styleFor(cl cell) lipgloss.Style {
	switch cl.kind {
	case edgeCell:
		return edgeStyle
	case nodeCell:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(cl.color))
	case selectedCell:
		return selectedStyle.Foreground(lipgloss.Color(cl.color))
	case minimapCell:
		if cl.color != "" {
			return lipgloss.NewStyle().Foreground(lipgloss.Color(cl.color))
		}
		return minimapStyle
	default:
		return lipgloss.NewStyle()
	}
}

// toCell maps canvas coordinates to a terminal cell.
func toCell(p projection.Position) (int, int) {
	return int(math.Floor(p.X / cellWidth)), int(math.Floor(p.Y / cellHeight))
}

// drawEdge samples the quadratic curve of a path and ends it with an
// arrow pointing at the target.
func drawEdge(c *canvas, view *viewport.Controller, path projection.Path) {
	s := view.WorldToScreen(path.Start)
	ctl := view.WorldToScreen(path.Control)
	e := view.WorldToScreen(path.End)
	if !path.Curved {
		ctl = projection.Position{X: (s.X + e.X) / 2, Y: (s.Y + e.Y) / 2}
	}
	x0, y0 := toCell(s)
	x1, y1 := toCell(e)
	steps := 2*max(abs(x1-x0), abs(y1-y0)) + 1
	if steps > 4*(c.w+c.h) {
		steps = 4 * (c.w + c.h)
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		u := 1 - t
		p := projection.Position{
			X: u*u*s.X + 2*u*t*ctl.X + t*t*e.X,
			Y: u*u*s.Y + 2*u*t*ctl.Y + t*t*e.Y,
		}
		x, y := toCell(p)
		c.plot(x, y, '·')
	}
	c.plot(x1, y1, arrow(e.X-ctl.X, e.Y-ctl.Y))
}

func arrow(dx, dy float64) rune {
	// Cells are twice as tall as they are wide.
	if math.Abs(dx) >= 2*math.Abs(dy) {
		if dx >= 0 {
			return '▸'
		}
		return '◂'
	}
	if dy >= 0 {
		return '▾'
	}
	return '▴'
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// box is a rectangle of terminal cells.
type box struct {
	x, y, w, h int
}

func (b box) contains(x, y int) bool {
	return x > b.x && x < b.x+b.w-1 && y > b.y && y < b.y+b.h-1
}

// toMinimap converts a cell inside the box to minimap coordinates.
func (b box) toMinimap(x, y int, cfg viewport.Config) projection.Position {
	return projection.Position{
		X: (float64(x-b.x-1) + 0.5) / float64(b.w-2) * cfg.MinimapWidth,
		Y: (float64(y-b.y-1) + 0.5) / float64(b.h-2) * cfg.MinimapHeight,
	}
}

const (
	minimapCols = 26
	minimapRows = 8
)

// minimapBox places the minimap in the bottom-right corner of a w by h
// canvas, or reports false when the canvas is too small for one.
func minimapBox(w, h int) (box, bool) {
	if w < 3*minimapCols || h < 2*minimapRows {
		return box{}, false
	}
	return box{x: w - minimapCols - 1, y: h - minimapRows, w: minimapCols, h: minimapRows}, true
}

func drawMinimap(c *canvas, b box, mm viewport.MinimapView, cfg viewport.Config) {
	for y := b.y; y < b.y+b.h; y++ {
		for x := b.x; x < b.x+b.w; x++ {
			c.set(x, y, ' ', minimapCell, "")
		}
	}
	inner := box{x: b.x + 1, y: b.y + 1, w: b.w - 2, h: b.h - 2}
	at := func(p projection.Position) (int, int) {
		x := inner.x + int(math.Floor(p.X/cfg.MinimapWidth*float64(inner.w)))
		y := inner.y + int(math.Floor(p.Y/cfg.MinimapHeight*float64(inner.h)))
		return x, y
	}
	clampInner := func(x, y int) (int, int) {
		return min(max(x, inner.x), inner.x+inner.w-1), min(max(y, inner.y), inner.y+inner.h-1)
	}

	vx0, vy0 := clampInner(at(projection.Position{X: mm.Viewport.X, Y: mm.Viewport.Y}))
	vx1, vy1 := clampInner(at(projection.Position{X: mm.Viewport.X + mm.Viewport.Width, Y: mm.Viewport.Y + mm.Viewport.Height}))
	for x := vx0; x <= vx1; x++ {
		c.set(x, vy0, '┄', minimapCell, "")
		c.set(x, vy1, '┄', minimapCell, "")
	}
	for y := vy0; y <= vy1; y++ {
		c.set(vx0, y, '┆', minimapCell, "")
		c.set(vx1, y, '┆', minimapCell, "")
	}

	for _, d := range mm.Dots {
		x, y := clampInner(at(d.Position))
		r := '•'
		if d.Selected {
			r = '◉'
		}
		c.set(x, y, r, minimapCell, d.Color)
	}

	right, bottom := b.x+b.w-1, b.y+b.h-1
	for x := b.x + 1; x < right; x++ {
		c.set(x, b.y, '─', minimapCell, "")
		c.set(x, bottom, '─', minimapCell, "")
	}
	for y := b.y + 1; y < bottom; y++ {
		c.set(b.x, y, '│', minimapCell, "")
		c.set(right, y, '│', minimapCell, "")
	}
	c.set(b.x, b.y, '╭', minimapCell, "")
	c.set(right, b.y, '╮', minimapCell, "")
	c.set(b.x, bottom, '╰', minimapCell, "")
	c.set(right, bottom, '╯', minimapCell, "")
}

// renderGraph draws one frame of the session onto a w by h canvas.
func renderGraph(sess *explorer.Session, frame explorer.Frame, w, h int) string {
	view := sess.Viewport()
	c := newCanvas(w, h)
	for _, e := range frame.Edges {
		drawEdge(c, view, e.Path)
	}
	for _, n := range frame.Nodes {
		label := n.Display.Word
		if n.HasExpandableNeighbors && !n.IsExpanded {
			label += "+"
		}
		x, y := toCell(view.WorldToScreen(n.Position))
		kind := nodeCell
		if n.ID == frame.Selected {
			kind = selectedCell
		}
		c.text(x-len([]rune(label))/2, y, label, kind, n.Display.Color)
	}
	if b, ok := minimapBox(w, h); ok && len(frame.Nodes) > 0 {
		drawMinimap(c, b, frame.Minimap, view.Config())
	}
	return c.String()
}

func (m exploreModel) View() string {
	now := time.Now()
	frame := m.session.Frame(now)
	rows := m.canvasRows()

	var b strings.Builder
	title := "etymograph"
	if m.root != "" {
		title += "  " + m.root
	}
	b.WriteString(titleStyle.Render(title) + "\n")
	b.WriteString(renderGraph(m.session, frame, m.width, rows) + "\n")

	if m.searching {
		b.WriteString(m.input.View() + "\n")
		for i := 0; i < maxResults; i++ {
			if i >= len(m.results) {
				b.WriteString("\n")
				continue
			}
			r := m.results[i]
			line := fmt.Sprintf("  %s (%s)", r.Word, r.Language)
			if i == m.cursor {
				line = cursorStyle.Render(line)
			}
			b.WriteString(line + "\n")
		}
	}

	b.WriteString(m.statusLine(frame) + "\n")
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m exploreModel) statusLine(frame explorer.Frame) string {
	if m.message != "" {
		if m.failed {
			return errorStyle.Render(m.message)
		}
		return statusStyle.Render(m.message)
	}
	parts := []string{fmt.Sprintf("%d words  %d links  %.0f%%",
		len(frame.Nodes), len(frame.Edges), frame.Transform.Scale*100)}
	if st := frame.Status; st != "" {
		parts = append(parts, st)
	}
	if sel := frame.Selected; sel != "" {
		if n, ok := m.session.Engine().Node(sel); ok {
			d := n.Display
			desc := d.Word + " (" + d.LanguageDisplay + ")"
			if d.Definition != "" {
				desc += ": " + d.Definition
			}
			parts = append(parts, desc)
		}
	}
	return statusStyle.Render(strings.Join(parts, "  │  "))
}
