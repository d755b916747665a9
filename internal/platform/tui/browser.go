package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rdowning07/starter-town-tactics-sub001/internal/scenario"
	"github.com/rdowning07/starter-town-tactics-sub001/internal/storage"
)

// maxBrowserRows caps how many archived battles the browser loads.
const maxBrowserRows = 100

// BrowserModel is the Bubble Tea model for the replay archive browser.
// It lists archived battles newest first; v re-runs the selected
// recording and reports whether the final hash still matches, x
// deletes it.
type BrowserModel struct {
	store    *storage.Store
	records  []storage.Record
	table    table.Model
	help     help.Model
	keys     BrowserKeyMap
	status   string
	width    int
	height   int
	quitting bool
}

// NewBrowser creates a browser over the archive.
func NewBrowser(store *storage.Store, width, height int) (BrowserModel, error) {
	records, err := store.Recent("", maxBrowserRows)
	if err != nil {
		return BrowserModel{}, err
	}

	h := help.New()
	h.ShowAll = false

	m := BrowserModel{
		store:   store,
		records: records,
		keys:    DefaultBrowserKeyMap(),
		help:    h,
		width:   width,
		height:  height,
	}
	m.table = m.createTable()
	m.updateTableRows()
	return m, nil
}

// createTable creates the archive table with appropriate columns.
func (m *BrowserModel) createTable() table.Model {
	columns := []table.Column{
		{Title: "ID", Width: 5},
		{Title: "Scenario", Width: 14},
		{Title: "Seed", Width: 10},
		{Title: "Diff", Width: 6},
		{Title: "Outcome", Width: 8},
		{Title: "Ticks", Width: 6},
		{Title: "Hash", Width: 16},
		{Title: "When", Width: 12},
	}

	height := m.height - 8
	if height < 3 {
		height = 3
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

// updateTableRows fills the table from the loaded records.
func (m *BrowserModel) updateTableRows() {
	rows := make([]table.Row, len(m.records))
	for i, r := range m.records {
		rows[i] = table.Row{
			fmt.Sprintf("%d", r.ID),
			r.Scenario,
			fmt.Sprintf("%d", r.Seed),
			r.Difficulty,
			r.Outcome,
			fmt.Sprintf("%d", r.Ticks),
			r.HashString(),
			r.CreatedAt.Format("Jan 02 15:04"),
		}
	}
	m.table.SetRows(rows)
}

// reload refreshes the record list, keeping the cursor in bounds.
func (m *BrowserModel) reload() {
	records, err := m.store.Recent("", maxBrowserRows)
	if err != nil {
		m.status = "reload failed: " + err.Error()
		return
	}
	m.records = records
	m.updateTableRows()
	if m.table.Cursor() >= len(m.records) && len(m.records) > 0 {
		m.table.SetCursor(len(m.records) - 1)
	}
}

// selected returns the record under the cursor.
func (m *BrowserModel) selected() (storage.Record, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.records) {
		return storage.Record{}, false
	}
	return m.records[i], true
}

// Init initializes the browser model.
func (m BrowserModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the browser.
func (m BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Verify):
			if rec, ok := m.selected(); ok {
				if err := verifyRecord(rec); err != nil {
					m.status = fmt.Sprintf("replay %d FAILED: %v", rec.ID, err)
				} else {
					m.status = fmt.Sprintf("replay %d verified: hash %s", rec.ID, rec.HashString())
				}
			}
			return m, nil

		case key.Matches(msg, m.keys.Delete):
			if rec, ok := m.selected(); ok {
				if err := m.store.Delete(rec.ID); err != nil {
					m.status = fmt.Sprintf("delete failed: %v", err)
				} else {
					m.status = fmt.Sprintf("replay %d deleted", rec.ID)
					m.reload()
				}
			}
			return m, nil

		case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		cursor := m.table.Cursor()
		m.table = m.createTable()
		m.updateTableRows()
		m.table.SetCursor(cursor)
		return m, nil
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the browser.
func (m BrowserModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("REPLAY ARCHIVE"))
	b.WriteString("\n\n")

	if len(m.records) == 0 {
		empty := lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true).
			Padding(2, 4)
		b.WriteString(empty.Render("No battles archived yet.\nRun one with --save to record it."))
	} else {
		b.WriteString(m.table.View())
	}
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString(m.status)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.help.View(m.keys)))
	return b.String()
}

// verifyRecord re-runs an archived recording under its original
// scenario and difficulty and checks the final hash.
func verifyRecord(rec storage.Record) error {
	rep, err := rec.Recording()
	if err != nil {
		return err
	}
	desc, err := scenario.Resolve(rep.Scenario)
	if err != nil {
		return err
	}
	desc.Difficulty = scenario.Preset(rec.Difficulty)
	setup, err := desc.Setup(rep.Seed)
	if err != nil {
		return err
	}
	return rep.Verify(setup)
}

// RunBrowser runs the archive browser until the user quits.
func RunBrowser(store *storage.Store, width, height int) error {
	m, err := NewBrowser(store, width, height)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
