// Package tui is the Bubble Tea presentation layer: the live battle
// viewer, the replay browser and the SSH front end. It consumes sim
// snapshots and events only; nothing here reaches back into the core.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickMsg is sent to advance the watched battle by one scheduler step.
type TickMsg time.Time

// Pacing bounds for the viewer. The +/- keys halve and double the
// interval within these limits.
const (
	minTickInterval = 25 * time.Millisecond
	maxTickInterval = 4 * time.Second
)

// tickEvery returns a Bubble Tea command that sends one tick message
// after the given interval.
func tickEvery(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
