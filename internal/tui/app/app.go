// Package app is the root Bubble Tea model of the live viewer. It
// renders whatever the connection supervisor publishes and never talks
// to the server directly.
package app

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/EvanTenenbaum/terp-live/internal/cart"
	"github.com/EvanTenenbaum/terp-live/internal/live"
	"github.com/EvanTenenbaum/terp-live/internal/room"
	"github.com/EvanTenenbaum/terp-live/internal/tui/theme"
)

// snapshotMsg carries one supervisor snapshot into the update loop.
type snapshotMsg live.Snapshot

// Model is the root Bubble Tea model.
type Model struct {
	sup      *live.Supervisor
	roomCode string

	keys    KeyMap
	spinner spinner.Model
	width   int
	height  int

	snap   live.Snapshot
	offset int // first visible cart line
}

// New creates the root model. The supervisor is started by Init and
// stopped when the viewer quits.
func New(sup *live.Supervisor, roomCode string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorConnecting)
	return Model{
		sup:      sup,
		roomCode: roomCode,
		keys:     DefaultKeyMap(),
		spinner:  sp,
	}
}

// Init starts the supervisor and begins pumping its updates.
func (m Model) Init() tea.Cmd {
	m.sup.Start()
	return tea.Batch(m.spinner.Tick, waitForUpdate(m.sup.Updates()))
}

// waitForUpdate blocks on the supervisor's update channel and delivers
// the next snapshot as a message.
func waitForUpdate(updates <-chan live.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return nil
		}
		return snapshotMsg(snap)
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case snapshotMsg:
		m.snap = live.Snapshot(msg)
		m.clampOffset()
		return m, waitForUpdate(m.sup.Updates())

	case spinner.TickMsg:
		if m.snap.ConnectionStatus == live.StatusConnected {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.sup.Stop()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Down):
		m.offset++
		m.clampOffset()
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.offset--
		m.clampOffset()
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.offset = 0
		return m, nil
	}

	return m, nil
}

func (m *Model) clampOffset() {
	max := 0
	if m.snap.Cart != nil {
		max = len(m.snap.Cart.Items) - 1
	}
	if m.offset > max {
		m.offset = max
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// View renders the full viewer.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	if m.snap.SessionStatus == room.StatusEnded {
		return m.renderEnded()
	}

	sections := []string{
		m.renderStatusBar(),
		m.renderStage(),
		m.renderCart(),
		theme.StyleDimmed.Render("  j/k:scroll  g:top  q:quit"),
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderStatusBar() string {
	status := m.snap.ConnectionStatus.String()
	glyph := theme.ConnectionGlyph(status)
	if m.snap.ConnectionStatus == live.StatusConnecting {
		glyph = m.spinner.View()
	}
	conn := lipgloss.NewStyle().
		Foreground(theme.ConnectionColor(status)).
		Render(glyph + " " + status)

	title := theme.StyleHeader.Render("LIVE " + m.roomCode)

	sess := ""
	if m.snap.SessionStatus != "" {
		sess = lipgloss.NewStyle().
			Foreground(theme.SessionStatusColor(m.snap.SessionStatus)).
			Render("  [" + m.snap.SessionStatus + "]")
	}

	return title + sess + "  " + conn
}

// renderStage shows the item the host is presenting, when it is in the
// cart.
func (m Model) renderStage() string {
	if m.snap.HighlightedBatchID == nil || m.snap.Cart == nil {
		return theme.StyleDimmed.Render("  nothing on stage")
	}

	for _, it := range m.snap.Cart.Items {
		if it.BatchID != *m.snap.HighlightedBatchID {
			continue
		}
		line := fmt.Sprintf("★ NOW SHOWING  %s  (%s)  %s",
			it.ProductName, it.BatchCode, it.UnitPrice)
		return theme.StyleHighlight.Render(line)
	}

	return theme.StyleDimmed.Render(
		fmt.Sprintf("  batch %d on stage, not in cart", *m.snap.HighlightedBatchID))
}

func (m Model) renderCart() string {
	if m.snap.Cart == nil || len(m.snap.Cart.Items) == 0 {
		return theme.StyleDimmed.Render("  Cart is empty")
	}

	var lines []string
	lines = append(lines, theme.StyleHeader.Render(
		fmt.Sprintf("=== CART (%d items) ===", m.snap.Cart.ItemCount)))

	visible := m.visibleRows()
	items := m.snap.Cart.Items
	for i := m.offset; i < len(items) && i-m.offset < visible; i++ {
		lines = append(lines, m.renderItemLine(items[i]))
	}
	if len(items)-m.offset > visible {
		lines = append(lines, theme.StyleDimmed.Render(
			fmt.Sprintf("  ... %d more", len(items)-m.offset-visible)))
	}

	lines = append(lines, theme.StyleTotal.Render("  TOTAL  "+m.snap.Cart.TotalValue))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderItemLine(it cart.Item) string {
	marker := "  "
	nameStyle := lipgloss.NewStyle().Foreground(theme.ColorBright)
	if it.IsHighlighted {
		marker = "★ "
		nameStyle = theme.StyleHighlight
	}

	name := it.ProductName
	if name == "" {
		name = it.BatchCode
	}
	// Truncate by runes; slicing bytes can cut a multibyte rune in half.
	if r := []rune(name); len(r) > 32 {
		name = string(r[:31]) + "…"
	}

	qty := theme.StyleDimmed.Render("x" + it.Quantity)
	price := theme.StylePrice.Render(it.Subtotal)
	return fmt.Sprintf("%s%-34s %-5s %s", marker, nameStyle.Render(name), qty, price)
}

// visibleRows is how many cart lines fit between the chrome above and
// below the list.
func (m Model) visibleRows() int {
	rows := m.height - 6
	if rows < 3 {
		rows = 3
	}
	return rows
}

func (m Model) renderEnded() string {
	msg := lipgloss.JoinVertical(lipgloss.Center,
		theme.StyleHeader.Render("SESSION ENDED"),
		"",
		theme.StyleDimmed.Render("Thanks for watching "+m.roomCode),
		theme.StyleDimmed.Render("press q to quit"),
	)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		theme.StyleBorder.Padding(1, 4).Render(msg))
}
