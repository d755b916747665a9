package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rdowning07/starter-town-tactics-sub001/internal/scenario"
	"github.com/rdowning07/starter-town-tactics-sub001/internal/sim"
	"github.com/rdowning07/starter-town-tactics-sub001/internal/storage"
)

var (
	flagSeed       uint64
	flagDifficulty string
	flagEvents     bool
	flagSave       bool
	flagOut        string
)

var runCmd = &cobra.Command{
	Use:   "run [scenario]",
	Short: "Run a battle headless and print the outcome",
	Long: `Run a battle to completion without a UI and print its report.

The scenario is a built-in name or a path to a YAML descriptor; it
defaults to "skirmish". The same scenario, seed and difficulty always
produce the same battle, so a printed final hash identifies the entire
run.

Difficulty presets scale enemy stats:
  easy   - 75% HP, 75% power
  normal - unscaled
  hard   - 130% HP, 125% power

Examples:
  tactics run
  tactics run warlord --seed 99
  tactics run ./my-scenario.yaml --difficulty hard --events
  tactics run skirmish --save
  tactics run skirmish --out skirmish.json`,
	Args: cobra.MaximumNArgs(1),
	Run:  runRun,
}

func init() {
	runCmd.Flags().Uint64Var(&flagSeed, "seed", 0, "RNG seed (0 = the scenario's own seed)")
	runCmd.Flags().StringVar(&flagDifficulty, "difficulty", "", "Difficulty preset: easy, normal, hard")
	runCmd.Flags().BoolVar(&flagEvents, "events", false, "Print the event feed while running")
	runCmd.Flags().BoolVar(&flagSave, "save", false, "Archive the recording in the replay database")
	runCmd.Flags().StringVar(&flagOut, "out", "", "Write the recording as JSON to this file")
}

func runRun(_ *cobra.Command, args []string) {
	battle, difficulty, err := buildBattle(scenarioArg(args), flagSeed, flagDifficulty)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var onEvents func([]sim.Event)
	if flagEvents {
		onEvents = printEvents
	}

	start := time.Now()
	driveBattle(battle, onEvents)
	elapsed := time.Since(start)

	rep := battle.ReplayLog()
	fmt.Printf("Battle: %s (seed %d, %s)\n", battle.Name(), battle.Seed(), difficulty)
	fmt.Printf("Outcome: %s after %d rounds, %d ticks (%s)\n",
		battle.Outcome(), battle.Round(), battle.TickCount(), elapsed.Round(time.Millisecond))
	fmt.Printf("Commands: %d  Events: %d\n", len(rep.Entries), battle.EventsDelivered())
	fmt.Printf("Final hash: %016x\n", rep.FinalHash)

	if flagOut != "" {
		data, err := rep.Marshal()
		if err != nil {
			logger.Error("cannot encode recording", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(flagOut, data, 0o644); err != nil {
			logger.Error("cannot write recording", "path", flagOut, "error", err)
			os.Exit(1)
		}
		fmt.Printf("Recording written to %s\n", flagOut)
	}

	if flagSave {
		rec, err := storage.NewRecord(rep, difficulty)
		if err != nil {
			logger.Error("cannot encode recording", "error", err)
			os.Exit(1)
		}
		store := openStore()
		id, err := store.Save(rec)
		store.Close()
		if err != nil {
			logger.Error("cannot archive recording", "error", err)
			os.Exit(1)
		}
		fmt.Printf("Archived as replay %d\n", id)
	}
}

// scenarioArg returns the positional scenario reference, defaulting to
// the skirmish builtin.
func scenarioArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "skirmish"
}

// buildBattle resolves a scenario reference and constructs the battle
// under the given seed and difficulty overrides. It returns the
// effective difficulty so archive records capture what actually ran.
func buildBattle(ref string, seed uint64, difficulty string) (*sim.Sim, string, error) {
	desc, err := scenario.Resolve(ref)
	if err != nil {
		return nil, "", err
	}
	if difficulty != "" {
		desc.Difficulty = scenario.Preset(difficulty)
	}
	if seed == 0 {
		seed = desc.Seed
	}
	battle, err := desc.BuildSeeded(seed)
	if err != nil {
		return nil, "", err
	}
	effective := string(desc.Difficulty)
	if effective == "" {
		effective = "normal"
	}
	return battle, effective, nil
}

// driveBattle advances the battle until it is decided. Units without a
// controller have their turn ended for them; a headless driver has no
// input to route.
func driveBattle(battle *sim.Sim, onEvents func([]sim.Event)) {
	for !battle.Done() {
		rep := battle.Tick()
		if onEvents != nil && len(rep.Events) > 0 {
			onEvents(rep.Events)
		}
		if rep.Waiting && !battle.Done() {
			events, rej := battle.Submit(sim.EndTurn{Unit: rep.Unit})
			if rej != nil {
				logger.Error("end turn rejected", "unit", rep.Unit, "reason", rej)
				return
			}
			if onEvents != nil && len(events) > 0 {
				onEvents(events)
			}
		}
	}
}

// printEvents writes event feed lines to stdout.
func printEvents(events []sim.Event) {
	for _, ev := range events {
		fmt.Printf("  %v\n", ev)
	}
}
