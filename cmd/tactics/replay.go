package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rdowning07/starter-town-tactics-sub001/internal/platform/tui"
	"github.com/rdowning07/starter-town-tactics-sub001/internal/scenario"
	"github.com/rdowning07/starter-town-tactics-sub001/internal/sim"
	"github.com/rdowning07/starter-town-tactics-sub001/internal/storage"
)

var (
	flagListScenario string
	flagListLimit    int
	flagListPlain    bool
	flagVerifyDiff   string
	flagExportOut    string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Browse, verify and export archived recordings",
	Long: `Work with the replay archive.

Every battle run with --save lands in the archive: scenario, seed,
difficulty, outcome, tick count, final hash and the full command log.
A recording plus the scenario it names is enough to reproduce the
battle exactly.`,
}

var replayListCmd = &cobra.Command{
	Use:   "list",
	Short: "Browse archived battles",
	Long: `Open the interactive archive browser. Inside it, v re-runs the
selected recording and checks its hash, x deletes it.

With --plain the archive prints as a table instead.

Examples:
  tactics replay list
  tactics replay list --plain
  tactics replay list --scenario skirmish --limit 5 --plain`,
	Run: runReplayList,
}

var replayVerifyCmd = &cobra.Command{
	Use:   "verify <id|file>",
	Short: "Re-run a recording and check its final hash",
	Long: `Rebuild the recording's scenario, feed the recorded commands back
through the engine and compare the final state hash against the one
recorded. A mismatch means the recording and the engine disagree and
exits with code 2.

A numeric argument is an archive id; anything else is read as a replay
JSON file. Archived recordings carry their difficulty; for files,
pass the same --difficulty the battle was run with.

Examples:
  tactics replay verify 7
  tactics replay verify skirmish.json
  tactics replay verify hard-run.json --difficulty hard`,
	Args: cobra.ExactArgs(1),
	Run:  runReplayVerify,
}

var replayExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Write an archived recording to a JSON file",
	Long: `Export the recording of an archived battle as JSON, suitable for
'tactics replay verify <file>' or for feeding to other tools.

Examples:
  tactics replay export 7
  tactics replay export 7 --out skirmish-42.json`,
	Args: cobra.ExactArgs(1),
	Run:  runReplayExport,
}

var replayStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the archive per scenario",
	Long: `Aggregate the archive per scenario: battles run, how they ended,
average length and when the scenario was last played.

Examples:
  tactics replay stats`,
	Run: runReplayStats,
}

func init() {
	replayListCmd.Flags().StringVar(&flagListScenario, "scenario", "", "Only list battles of this scenario")
	replayListCmd.Flags().IntVar(&flagListLimit, "limit", 20, "Maximum rows to list")
	replayListCmd.Flags().BoolVar(&flagListPlain, "plain", false, "Print a table instead of the browser")
	replayVerifyCmd.Flags().StringVar(&flagVerifyDiff, "difficulty", "", "Difficulty the file's battle was run with")
	replayExportCmd.Flags().StringVar(&flagExportOut, "out", "", "Output path (default replay-<id>.json)")

	replayCmd.AddCommand(replayListCmd)
	replayCmd.AddCommand(replayVerifyCmd)
	replayCmd.AddCommand(replayExportCmd)
	replayCmd.AddCommand(replayStatsCmd)
}

// openStore opens the replay archive named by the global --db flag.
func openStore() *storage.Store {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot open replay archive: %v\n", err)
		os.Exit(1)
	}
	return store
}

func runReplayList(_ *cobra.Command, _ []string) {
	store := openStore()
	defer store.Close()

	if !flagListPlain {
		width, height := termSize()
		if err := tui.RunBrowser(store, width, height); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	records, err := store.Recent(flagListScenario, flagListLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(records) == 0 {
		fmt.Println("No battles archived yet. Run one with --save to record it.")
		return
	}

	fmt.Printf("  %-4s  %-14s  %-10s  %-6s  %-8s  %-6s  %-16s  %s\n",
		"ID", "Scenario", "Seed", "Diff", "Outcome", "Ticks", "Hash", "When")
	for _, r := range records {
		fmt.Printf("  %-4d  %-14s  %-10d  %-6s  %-8s  %-6d  %-16s  %s\n",
			r.ID, r.Scenario, r.Seed, r.Difficulty, r.Outcome, r.Ticks,
			r.HashString(), r.CreatedAt.Format("2006-01-02 15:04"))
	}
}

func runReplayVerify(_ *cobra.Command, args []string) {
	ref := args[0]

	var (
		rep        sim.Replay
		difficulty string
	)
	if id, idErr := strconv.ParseInt(ref, 10, 64); idErr == nil {
		store := openStore()
		rec, err := store.ByID(id)
		store.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if rec == nil {
			fmt.Fprintf(os.Stderr, "Error: no replay with id %d\n", id)
			os.Exit(1)
		}
		var decodeErr error
		rep, decodeErr = rec.Recording()
		if decodeErr != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", decodeErr)
			os.Exit(1)
		}
		difficulty = rec.Difficulty
	} else {
		data, err := os.ReadFile(ref)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		rep, err = sim.ParseReplay(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		difficulty = flagVerifyDiff
	}

	desc, err := scenario.Resolve(rep.Scenario)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if difficulty != "" {
		desc.Difficulty = scenario.Preset(difficulty)
	}
	setup, err := desc.Setup(rep.Seed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := rep.Verify(setup); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, sim.ErrHashMismatch) {
			os.Exit(2)
		}
		os.Exit(1)
	}

	fmt.Printf("Replay %s verified: %s, %s, seed %d, %d ticks, hash %016x\n",
		ref, rep.Scenario, rep.Outcome, rep.Seed, rep.Ticks, rep.FinalHash)
}

func runReplayExport(_ *cobra.Command, args []string) {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: replay id must be a number, got %q\n", args[0])
		os.Exit(1)
	}

	store := openStore()
	rec, err := store.ByID(id)
	store.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if rec == nil {
		fmt.Fprintf(os.Stderr, "Error: no replay with id %d\n", id)
		os.Exit(1)
	}

	out := flagExportOut
	if out == "" {
		out = fmt.Sprintf("replay-%d.json", id)
	}
	if err := os.WriteFile(out, rec.Log, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Exported replay %d (%s, seed %d) to %s\n", id, rec.Scenario, rec.Seed, out)
}

func runReplayStats(_ *cobra.Command, _ []string) {
	store := openStore()
	defer store.Close()

	stats, err := store.Stats()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(stats) == 0 {
		fmt.Println("No battles archived yet. Run one with --save to record it.")
		return
	}

	fmt.Printf("  %-14s  %-7s  %-9s  %-7s  %-9s  %s\n",
		"Scenario", "Battles", "Victories", "Defeats", "Avg ticks", "Last played")
	for _, st := range stats {
		fmt.Printf("  %-14s  %-7d  %-9d  %-7d  %-9.1f  %s\n",
			st.Scenario, st.Battles, st.Victories, st.Defeats, st.AvgTicks,
			st.LastPlayed.Format("2006-01-02 15:04"))
	}
}
