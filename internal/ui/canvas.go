package ui

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/papapumpkin/unlockmap/internal/ansi"
	"github.com/papapumpkin/unlockmap/internal/edges"
	"github.com/papapumpkin/unlockmap/internal/scene"
)

// Canvas is a character-cell display for the map. It keeps the retained
// scene in an embedded scene.Headless, records connectors, and rasterizes
// both into text. Coordinates are in cells, so it is meant to be driven
// with a terminal spacing profile.
type Canvas struct {
	*scene.Headless

	connectors []edges.Connector
	marker     bool
}

// NewCanvas creates a canvas with a cols×rows viewport.
func NewCanvas(cols, rows int) *Canvas {
	h := scene.NewHeadless(float64(cols), float64(rows))
	h.Round = true
	return &Canvas{Headless: h}
}

// ClearConnectors implements edges.Surface.
func (c *Canvas) ClearConnectors() { c.connectors = c.connectors[:0] }

// HasMarker implements edges.Surface.
func (c *Canvas) HasMarker() bool { return c.marker }

// DefineMarker implements edges.Surface. Arrowheads are glyphs, so this only
// records that the marker exists.
func (c *Canvas) DefineMarker() { c.marker = true }

// AddConnector implements edges.Surface.
func (c *Canvas) AddConnector(conn edges.Connector) {
	c.connectors = append(c.connectors, conn)
}

// Connectors returns the connectors drawn in the last pass.
func (c *Canvas) Connectors() []edges.Connector { return c.connectors }

// RenderOptions controls rasterization.
type RenderOptions struct {
	Color    bool
	Selected string
	// Full draws the whole content instead of the scrolled window.
	Full bool
}

type cell struct {
	r     rune
	style string
}

type grid struct {
	cells      [][]cell
	cols, rows int
}

func newGrid(cols, rows int) *grid {
	g := &grid{cols: cols, rows: rows, cells: make([][]cell, rows)}
	for y := range g.cells {
		g.cells[y] = make([]cell, cols)
		for x := range g.cells[y] {
			g.cells[y][x] = cell{r: ' '}
		}
	}
	return g
}

func (g *grid) set(x, y int, r rune, style string) {
	if x < 0 || y < 0 || x >= g.cols || y >= g.rows {
		return
	}
	g.cells[y][x] = cell{r: r, style: style}
}

type box struct {
	x, y, w, h int
}

func boxOf(r scene.Rect) box {
	return box{
		x: int(math.Round(r.X)),
		y: int(math.Round(r.Y)),
		w: max(int(math.Round(r.W)), 2),
		h: max(int(math.Round(r.H)), 2),
	}
}

func (b box) contains(x, y int) bool {
	return x >= b.x && x < b.x+b.w && y >= b.y && y < b.y+b.h
}

func (b box) center() (int, int) { return b.x + b.w/2, b.y + b.h/2 }

// Render rasterizes the scene. Edges are drawn first so node boxes sit on
// top of them.
func (c *Canvas) Render(opts RenderOptions) string {
	w, h := c.ContentSize()
	cols, rows := int(math.Ceil(w)), int(math.Ceil(h))
	if cols <= 0 || rows <= 0 {
		return ""
	}
	g := newGrid(cols, rows)

	for _, conn := range c.connectors {
		from, okF := c.Rect(conn.From)
		to, okT := c.Rect(conn.To)
		if !okF || !okT {
			continue
		}
		drawEdge(g, boxOf(from), boxOf(to), c.style(opts, ansi.Dim))
	}
	for _, e := range c.Elements() {
		drawNode(g, e, c.nodeStyle(opts, e))
	}

	x0, y0, x1, y1 := 0, 0, cols, rows
	if !opts.Full {
		sx, sy, _ := c.Scroll()
		vw, vh := c.ViewportSize()
		x0, y0 = clampInt(int(sx), 0, cols), clampInt(int(sy), 0, rows)
		x1, y1 = clampInt(x0+int(vw), 0, cols), clampInt(y0+int(vh), 0, rows)
	}
	return g.text(x0, y0, x1, y1)
}

func (c *Canvas) style(opts RenderOptions, s string) string {
	if !opts.Color {
		return ""
	}
	return s
}

func (c *Canvas) nodeStyle(opts RenderOptions, e scene.Element) string {
	if !opts.Color {
		return ""
	}
	switch {
	case e.ID == opts.Selected:
		return ansi.Bold + ansi.Yellow
	case e.State.Watched:
		return ansi.Green
	case e.State.Locked:
		return ansi.Dim
	default:
		return ansi.Cyan
	}
}

// borderRunes returns [TL, TR, BL, BR, H, V] for a node's state.
func borderRunes(s scene.VisualState) [6]rune {
	switch {
	case s.Watched:
		return [6]rune{'╔', '╗', '╚', '╝', '═', '║'}
	case s.Locked:
		return [6]rune{'┌', '┐', '└', '┘', '╌', '╎'}
	default:
		return [6]rune{'┌', '┐', '└', '┘', '─', '│'}
	}
}

func drawNode(g *grid, e scene.Element, style string) {
	b := boxOf(e.Rect)
	br := borderRunes(e.State)
	for x := b.x; x < b.x+b.w; x++ {
		g.set(x, b.y, br[4], style)
		g.set(x, b.y+b.h-1, br[4], style)
	}
	for y := b.y + 1; y < b.y+b.h-1; y++ {
		g.set(b.x, y, br[5], style)
		g.set(b.x+b.w-1, y, br[5], style)
		for x := b.x + 1; x < b.x+b.w-1; x++ {
			g.set(x, y, ' ', style)
		}
	}
	g.set(b.x, b.y, br[0], style)
	g.set(b.x+b.w-1, b.y, br[1], style)
	g.set(b.x, b.y+b.h-1, br[2], style)
	g.set(b.x+b.w-1, b.y+b.h-1, br[3], style)

	label := e.Title
	if label == "" {
		label = e.ID
	}
	if e.State.Watched {
		label = "✓ " + label
	}
	label = Truncate(label, b.w-2)
	x := b.x + 1 + (b.w-2-utf8.RuneCountInString(label))/2
	for i, r := range []rune(label) {
		g.set(x+i, b.y+b.h/2, r, style)
	}
}

// drawEdge draws a line between the two box centers, skipping cells under
// either box, and caps it with an arrowhead just outside the target.
func drawEdge(g *grid, from, to box, style string) {
	x0, y0 := from.center()
	x1, y1 := to.center()
	pts := line(x0, y0, x1, y1)

	var last [2]int
	have := false
	for i, p := range pts {
		if from.contains(p[0], p[1]) || to.contains(p[0], p[1]) {
			continue
		}
		prev := pts[max(i-1, 0)]
		g.set(p[0], p[1], stroke(p[0]-prev[0], p[1]-prev[1]), style)
		last, have = p, true
	}
	if have {
		g.set(last[0], last[1], arrow(x1-x0, y1-y0), style)
	}
}

// line returns the cells of a Bresenham line from (x0, y0) to (x1, y1).
func line(x0, y0, x1, y1 int) [][2]int {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := sign(x1-x0), sign(y1-y0)
	err := dx + dy
	var out [][2]int
	for {
		out = append(out, [2]int{x0, y0})
		if x0 == x1 && y0 == y1 {
			return out
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func stroke(dx, dy int) rune {
	switch {
	case dx == 0:
		return '│'
	case dy == 0:
		return '─'
	case (dx > 0) == (dy > 0):
		return '╲'
	default:
		return '╱'
	}
}

func arrow(dx, dy int) rune {
	if abs(dy) >= abs(dx) {
		if dy >= 0 {
			return '▼'
		}
		return '▲'
	}
	if dx > 0 {
		return '▶'
	}
	return '◀'
}

// text emits the window [x0,x1)×[y0,y1) with style runs, trimming trailing
// blanks from each line.
func (g *grid) text(x0, y0, x1, y1 int) string {
	var sb strings.Builder
	for y := y0; y < y1; y++ {
		row := g.cells[y][x0:x1]
		end := len(row)
		for end > 0 && row[end-1].r == ' ' && row[end-1].style == "" {
			end--
		}
		cur := ""
		for _, cl := range row[:end] {
			if cl.style != cur {
				if cur != "" {
					sb.WriteString(ansi.Reset)
				}
				sb.WriteString(cl.style)
				cur = cl.style
			}
			sb.WriteRune(cl.r)
		}
		if cur != "" {
			sb.WriteString(ansi.Reset)
		}
		if y < y1-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
