package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rdowning07/starter-town-tactics-sub001/internal/platform/tui"
)

var flagDelay int

var watchCmd = &cobra.Command{
	Use:   "watch [scenario]",
	Short: "Watch a battle play out live",
	Long: `Run the battle in the terminal, one scheduler step per tick.

Controls:
  Space      - Pause/resume
  N          - Advance one tick while paused
  +/-        - Faster/slower
  Q/Ctrl+C   - Quit

Examples:
  tactics watch
  tactics watch last-stand --delay 150
  tactics watch ./my-scenario.yaml --seed 42 --difficulty hard`,
	Args: cobra.MaximumNArgs(1),
	Run:  runWatch,
}

func init() {
	watchCmd.Flags().Uint64Var(&flagSeed, "seed", 0, "RNG seed (0 = the scenario's own seed)")
	watchCmd.Flags().StringVar(&flagDifficulty, "difficulty", "", "Difficulty preset: easy, normal, hard")
	watchCmd.Flags().IntVar(&flagDelay, "delay", 400, "Milliseconds between ticks")
}

func runWatch(_ *cobra.Command, args []string) {
	battle, _, err := buildBattle(scenarioArg(args), flagSeed, flagDifficulty)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	width, height := termSize()
	interval := time.Duration(flagDelay) * time.Millisecond
	if err := tui.RunWatch(battle, interval, width, height); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// termSize probes the terminal size, defaulting to 80x24.
func termSize() (int, int) {
	width, height := 80, 24
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width, height = w, h
	}
	return width, height
}
