package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rdowning07/starter-town-tactics-sub001/internal/sim"
)

// feedLines is how many recent event lines the viewer keeps on screen.
const feedLines = 10

// minWidthForPanel is the terminal width below which the unit panel
// moves under the board instead of beside it.
const minWidthForPanel = 76

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	feedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	pausedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	victoryStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	defeatStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	boardStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// WatchModel is the Bubble Tea model for spectating one battle. Each
// tick message advances the scheduler by one step; space pauses, n
// single-steps, +/- change the pace. Units without a controller have
// their turn ended for them, since a spectator has no input to route.
type WatchModel struct {
	battle   *sim.Sim
	canvas   *Canvas
	interval time.Duration
	paused   bool
	feed     []string
	keys     WatchKeyMap
	help     help.Model
	width    int
	height   int
	quitting bool
}

// NewWatch creates a viewer for the battle, advancing one scheduler
// step per interval.
func NewWatch(battle *sim.Sim, interval time.Duration, width, height int) WatchModel {
	if interval <= 0 {
		interval = 400 * time.Millisecond
	}
	h := help.New()
	h.ShowAll = false

	snap := battle.Snapshot()
	return WatchModel{
		battle:   battle,
		canvas:   NewCanvas(snap.Width*2-1, snap.Height),
		interval: interval,
		keys:     DefaultWatchKeyMap(),
		help:     h,
		width:    width,
		height:   height,
	}
}

// Init starts the tick loop.
func (m WatchModel) Init() tea.Cmd {
	return tickEvery(m.interval)
}

// Update handles messages for the viewer.
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
			if !m.paused && !m.battle.Done() {
				return m, tickEvery(m.interval)
			}
			return m, nil

		case key.Matches(msg, m.keys.Step):
			m.advance()
			return m, nil

		case key.Matches(msg, m.keys.Faster):
			m.interval = max(m.interval/2, minTickInterval)
			return m, nil

		case key.Matches(msg, m.keys.Slower):
			m.interval = min(m.interval*2, maxTickInterval)
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case TickMsg:
		if m.paused || m.battle.Done() {
			return m, nil
		}
		m.advance()
		if m.battle.Done() {
			return m, nil
		}
		return m, tickEvery(m.interval)
	}
	return m, nil
}

// advance runs one scheduler step and folds its events into the feed.
func (m *WatchModel) advance() {
	if m.battle.Done() {
		return
	}
	rep := m.battle.Tick()
	m.pushEvents(rep.Events)
	if rep.Waiting && !m.battle.Done() {
		events, rej := m.battle.Submit(sim.EndTurn{Unit: rep.Unit})
		if rej == nil {
			m.pushEvents(events)
		}
	}
}

// pushEvents appends event descriptions, trimming the feed to its cap.
func (m *WatchModel) pushEvents(events []sim.Event) {
	for _, ev := range events {
		m.feed = append(m.feed, fmt.Sprint(ev))
	}
	if over := len(m.feed) - feedLines; over > 0 {
		m.feed = m.feed[over:]
	}
}

// View renders the battle.
func (m WatchModel) View() string {
	if m.quitting {
		return ""
	}

	snap := m.battle.Snapshot()
	var b strings.Builder

	b.WriteString(m.renderHeader(&snap))
	b.WriteString("\n")

	PaintBoard(m.canvas, &snap)
	board := boardStyle.Render(m.canvas.Render())
	panel := m.renderUnits(&snap)

	if m.width >= minWidthForPanel {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, board, "  ", panel))
	} else {
		b.WriteString(board)
		b.WriteString("\n")
		b.WriteString(panel)
	}
	b.WriteString("\n")

	for _, line := range m.feed {
		b.WriteString(feedStyle.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// renderHeader builds the title and objective lines.
func (m WatchModel) renderHeader(snap *sim.Snapshot) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(strings.ToUpper(snap.Name)))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  seed %d  round %d  tick %d  %s/step",
		snap.Seed, snap.Round, snap.Tick, m.interval)))
	switch {
	case snap.Outcome == sim.OutcomeVictory:
		b.WriteString("  ")
		b.WriteString(victoryStyle.Render("VICTORY"))
	case snap.Outcome == sim.OutcomeDefeat:
		b.WriteString("  ")
		b.WriteString(defeatStyle.Render("DEFEAT"))
	case m.paused:
		b.WriteString("  ")
		b.WriteString(pausedStyle.Render("[paused]"))
	}
	b.WriteString("\n")

	if snap.Objective != nil {
		b.WriteString(dimStyle.Render(fmt.Sprintf("objective: %s  %d/%d",
			snap.Objective.Label, snap.Objective.Progress, snap.Objective.Goal)))
		b.WriteString("\n")
	}
	return b.String()
}

// renderUnits builds the unit panel: one row per unit with glyph,
// facing, bars and active statuses.
func (m WatchModel) renderUnits(snap *sim.Snapshot) string {
	var b strings.Builder
	for i, u := range snap.Units {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.unitRow(snap, u))
	}
	return b.String()
}

// unitRow renders one unit panel line.
func (m WatchModel) unitRow(snap *sim.Snapshot, u sim.UnitView) string {
	name := u.Name
	if name == "" {
		name = string(u.ID)
	}

	if !u.Alive {
		return dimStyle.Render(fmt.Sprintf("  %c %-10s down", unitRune(u), name))
	}

	marker := "  "
	if u.ID == snap.ActiveUnit {
		marker = "▸ "
	}
	style, ok := colorStyles[unitColor(u, snap.ActiveUnit)]
	if !ok {
		style = colorStyles[ColorDefault]
	}

	row := fmt.Sprintf("%s%s %c HP %s %2d/%-2d AP %d/%d",
		marker,
		style.Render(fmt.Sprintf("%c %-10s", unitRune(u), name)),
		facingArrow(u.Facing),
		hpBar(u.HP, u.MaxHP, 8), u.HP, u.MaxHP,
		u.AP, u.MaxAP)
	if s := statusLine(u); s != "" {
		row += "  " + dimStyle.Render(s)
	}
	return row
}

// RunWatch runs the viewer until the user quits.
func RunWatch(battle *sim.Sim, interval time.Duration, width, height int) error {
	p := tea.NewProgram(
		NewWatch(battle, interval, width, height),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
