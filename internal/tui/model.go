package tui

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/papapumpkin/unlockmap/internal/engine"
	"github.com/papapumpkin/unlockmap/internal/identity"
	"github.com/papapumpkin/unlockmap/internal/progress"
	"github.com/papapumpkin/unlockmap/internal/ui"
)

// flashTTL is how long a message stays on the message line.
const flashTTL = 4 * time.Second

// prompt identifies what the text input is collecting.
type prompt int

const (
	promptNone prompt = iota
	promptWith
	promptTogether
	promptMemory
)

// AppModel is the root BubbleTea model. It owns no progress state; every
// change goes through the session and the map is redrawn from the canvas.
type AppModel struct {
	Session   *engine.Session
	Canvas    *ui.Canvas
	Identity  identity.Provider
	Keys      KeyMap
	StatusBar StatusBar
	Panel     DetailPanel
	Width     int
	Height    int

	Selected string
	Detail   *engine.Detail

	Flash    string
	FlashErr bool
	flashSeq int

	confirmClear bool
	prompt       prompt
	input        textinput.Model
}

// NewAppModel creates a root model over a started session.
func NewAppModel(s *engine.Session, c *ui.Canvas, id identity.Provider) AppModel {
	in := textinput.New()
	in.CharLimit = 256
	if id == nil {
		id = identity.Static{}
	}
	m := AppModel{
		Session:  s,
		Canvas:   c,
		Identity: id,
		Keys:     DefaultKeyMap(),
		input:    in,
		Selected: s.Last().Centered,
	}
	if m.Selected == "" {
		m.Selected = s.Catalog().Start()
	}
	m.refreshStatus()
	return m
}

// Init has nothing to start; the session rendered when it was started.
func (m AppModel) Init() tea.Cmd {
	return nil
}

// Update handles all messages.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.StatusBar.Width = msg.Width
		m.Panel.Width = msg.Width
		m.resize()
		m.Session.Render()
		m.refreshStatus()
		return m, nil

	case tea.KeyMsg:
		if m.prompt != promptNone {
			return m.handlePrompt(msg)
		}
		return m.handleKey(msg)

	case MsgFlashExpired:
		if msg.Seq == m.flashSeq {
			m.Flash = ""
		}
	}
	return m, nil
}

func (m AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	clearArmed := m.confirmClear
	m.confirmClear = false

	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.Keys.Back):
		if m.Detail != nil {
			m.closeDetail()
			return m, nil
		}
		if m.Session.Store().ReadOnly() {
			return m.apply(m.Session.ExitPeer(), "back to your own progress")
		}

	case key.Matches(msg, m.Keys.Up):
		m.move(0, -1)
	case key.Matches(msg, m.Keys.Down):
		m.move(0, 1)
	case key.Matches(msg, m.Keys.Left):
		m.move(-1, 0)
	case key.Matches(msg, m.Keys.Right):
		m.move(1, 0)

	case key.Matches(msg, m.Keys.Enter):
		if m.Detail == nil {
			return m.openDetail()
		}
		if m.Detail.ReadOnly {
			return m, nil
		}
		return m.apply(m.Session.Activate(m.Selected), "")

	case key.Matches(msg, m.Keys.Center):
		if err := m.Session.RequestCenter(m.Selected); err != nil {
			return m.fail(err)
		}
		m.Session.Render()

	case key.Matches(msg, m.Keys.Clear):
		if m.Session.Store().ReadOnly() {
			return m.fail(engine.ErrReadOnly)
		}
		if !clearArmed {
			m.confirmClear = true
			return m.flash("press X again to clear all progress", false)
		}
		m.closeDetail()
		m.Selected = m.Session.Catalog().Start()
		return m.apply(m.Session.ClearProgress(), "progress cleared")
	}

	if m.Detail == nil || m.Detail.ReadOnly {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.Keys.Unwatch):
		return m.apply(m.Session.Unwatch(m.Selected), "marked unwatched")
	case key.Matches(msg, m.Keys.With):
		return m.ask(promptWith, "friend's name")
	case key.Matches(msg, m.Keys.Together):
		return m.ask(promptTogether, "watching with")
	case key.Matches(msg, m.Keys.Memory):
		if !m.Detail.Watched {
			return m.fail(progress.ErrNotWatched)
		}
		return m.ask(promptMemory, "photo or video URL")
	}
	return m, nil
}

func (m AppModel) ask(p prompt, placeholder string) (tea.Model, tea.Cmd) {
	m.prompt = p
	m.input.Reset()
	m.input.Placeholder = placeholder
	return m, m.input.Focus()
}

func (m AppModel) handlePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.prompt = promptNone
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		p := m.prompt
		m.prompt = promptNone
		m.input.Blur()
		if value == "" {
			return m, nil
		}
		switch p {
		case promptWith:
			return m.apply(m.Session.WatchedWith(m.Selected, value), "")
		case promptTogether:
			return m.apply(m.Session.WatchTogether(m.Selected, value), "")
		case promptMemory:
			return m.apply(m.Session.AttachMedia(m.Selected, progress.Media{URL: value, Kind: mediaKindFor(value)}), "memory added")
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// apply finishes a session mutation: report err or ok, then resync the
// detail panel and status bar with the pass the mutation triggered.
func (m AppModel) apply(err error, ok string) (tea.Model, tea.Cmd) {
	if err != nil {
		return m.fail(err)
	}
	m.refreshStatus()
	if m.Detail != nil {
		if d, derr := m.Session.Detail(m.Selected); derr == nil {
			m.Detail = &d
		} else {
			m.Detail = nil
		}
		m.resize()
		m.Session.Render()
	}
	if ok == "" {
		return m, nil
	}
	return m.flash(ok, false)
}

func (m AppModel) openDetail() (tea.Model, tea.Cmd) {
	d, err := m.Session.Detail(m.Selected)
	if err != nil {
		return m.fail(err)
	}
	m.Detail = &d
	m.resize()
	if err := m.Session.RequestCenter(m.Selected); err == nil {
		m.Session.Render()
	}
	return m, nil
}

func (m *AppModel) closeDetail() {
	m.Detail = nil
	m.resize()
}

func (m AppModel) fail(err error) (tea.Model, tea.Cmd) {
	text := err.Error()
	switch {
	case errors.Is(err, engine.ErrNotInteractive):
		text = "locked: watch its prerequisites first"
	case errors.Is(err, engine.ErrReadOnly):
		text = "read-only: press esc to leave the peer view"
	}
	return m.flash(text, true)
}

func (m AppModel) flash(text string, isErr bool) (tea.Model, tea.Cmd) {
	m.flashSeq++
	m.Flash, m.FlashErr = text, isErr
	seq := m.flashSeq
	return m, tea.Tick(flashTTL, func(time.Time) tea.Msg { return MsgFlashExpired{Seq: seq} })
}

// move selects the nearest rendered node in direction (dx, dy), weighting
// off-axis distance double so straight lines win.
func (m *AppModel) move(dx, dy int) {
	cur, ok := m.Canvas.Rect(m.Selected)
	if !ok {
		m.Selected = m.Session.Catalog().Start()
		return
	}
	cx, cy := cur.Center()
	best, bestScore := "", math.Inf(1)
	for _, v := range m.Session.Last().Visible {
		if v.ID == m.Selected {
			continue
		}
		r, ok := m.Canvas.Rect(v.ID)
		if !ok {
			continue
		}
		x, y := r.Center()
		along := (x-cx)*float64(dx) + (y-cy)*float64(dy)
		if along <= 0 {
			continue
		}
		across := math.Abs((x-cx)*float64(dy)) + math.Abs((y-cy)*float64(dx))
		if score := along + 2*across; score < bestScore {
			best, bestScore = v.ID, score
		}
	}
	if best != "" {
		m.Selected = best
	}
}

func (m *AppModel) resize() {
	h := m.Height - chromeHeight
	if m.Detail != nil {
		h -= m.Panel.Height(*m.Detail)
	}
	m.Canvas.SetViewportSize(float64(max(m.Width, 1)), float64(max(h, 1)))
}

func (m *AppModel) refreshStatus() {
	store := m.Session.Store()
	last := m.Session.Last()
	m.StatusBar.User = m.Identity.Username()
	m.StatusBar.HighestPhase = last.HighestPhase
	m.StatusBar.Watched = store.Len()
	m.StatusBar.Total = m.Session.Catalog().Len()
	m.StatusBar.Visible = len(last.Visible)
	m.StatusBar.ReadOnly = store.ReadOnly()
	m.StatusBar.Peer = store.PeerOwner()
}

// View renders the full TUI layout.
func (m AppModel) View() string {
	parts := []string{
		m.StatusBar.View(),
		m.Canvas.Render(ui.RenderOptions{Color: true, Selected: m.Selected}),
	}
	if m.Detail != nil {
		parts = append(parts, m.Panel.View(*m.Detail))
	}
	switch {
	case m.prompt != promptNone:
		parts = append(parts, stylePrompt.Render("› ")+m.input.View())
	case m.Flash != "" && m.FlashErr:
		parts = append(parts, styleFlashError.Render(m.Flash))
	default:
		parts = append(parts, styleFlashInfo.Render(m.Flash))
	}
	parts = append(parts, Footer{Width: m.Width, Bindings: m.bindings()}.View())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m AppModel) bindings() []key.Binding {
	switch {
	case m.Session.Store().ReadOnly():
		return PeerFooterBindings(m.Keys)
	case m.Detail != nil:
		return DetailFooterBindings(m.Keys)
	default:
		return MapFooterBindings(m.Keys)
	}
}

func mediaKindFor(url string) progress.MediaKind {
	lower := strings.ToLower(url)
	for _, ext := range []string{".mp4", ".mov", ".webm", ".m4v"} {
		if strings.HasSuffix(lower, ext) {
			return progress.MediaVideo
		}
	}
	return progress.MediaImage
}
