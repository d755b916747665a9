// tactics runs deterministic tactical battles in the terminal.
//
// Usage:
//
//	tactics run [scenario]       - Run a battle headless and print the outcome
//	tactics watch [scenario]     - Watch a battle live in the terminal
//	tactics scenarios            - List built-in scenarios
//	tactics replay list          - Browse the replay archive
//	tactics replay verify <ref>  - Re-run a recording and check its hash
//	tactics soak                 - Run many seeds and flag determinism drift
//	tactics serve                - Serve battles to SSH spectators
//
// Global flags:
//
//	--db <path>          - Replay archive path (default: ~/.tactics/replays.db)
//	--log-level <level>  - Log verbosity: debug, info, warn, error
//
// Exit codes: 0 on normal completion (victory or defeat both count), 1
// on ingestion or usage errors, 2 when a replay hash fails to verify.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	flagDBPath   string
	flagLogLevel string
)

// logger carries warnings and errors; battle reports go to stdout.
var logger = log.NewWithOptions(os.Stderr, log.Options{
	Prefix: "tactics",
})

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tactics",
	Short: "Deterministic tactical battles in your terminal",
	Long: `tactics drives a deterministic, turn-based battle core: seeded
scenarios, behavior-tree AI and replayable outcomes. The same scenario
and seed always produce the same battle, tick for tick.

Available commands:
  run        - Run a battle headless and print the outcome
  watch      - Watch a battle play out live
  scenarios  - List built-in scenarios
  replay     - Browse, verify and export archived recordings
  soak       - Run many seeded battles and check for drift
  serve      - Serve battles to SSH spectators

Examples:
  tactics run skirmish --seed 42
  tactics run ./my-scenario.yaml --difficulty hard --save
  tactics watch last-stand
  tactics replay verify 7
  tactics soak --runs 50
  tactics serve --ssh :2222`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if lvl, err := log.ParseLevel(flagLogLevel); err == nil {
			logger.SetLevel(lvl)
		}
	},
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "~/.tactics/replays.db", "Path to the replay archive database")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(scenariosCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(soakCmd)
	rootCmd.AddCommand(serveCmd)
}
