package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rdowning07/starter-town-tactics-sub001/internal/scenario"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios [scenario]",
	Short: "List built-in scenarios",
	Long: `List the scenarios shipped with the binary, or show one in detail.

The argument may also be a path to a YAML descriptor, which validates
and describes your own scenario file.

Examples:
  tactics scenarios
  tactics scenarios warlord
  tactics scenarios ./my-scenario.yaml`,
	Args: cobra.MaximumNArgs(1),
	Run:  runScenarios,
}

func runScenarios(_ *cobra.Command, args []string) {
	if len(args) == 1 {
		describeScenario(args[0])
		return
	}

	names, err := scenario.BuiltinNames()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(names) == 0 {
		fmt.Println("No built-in scenarios available.")
		return
	}

	descs := make([]scenario.Descriptor, 0, len(names))
	maxNameLen := len("Name")
	for _, name := range names {
		d, err := scenario.Builtin(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(d.Name) > maxNameLen {
			maxNameLen = len(d.Name)
		}
		descs = append(descs, d)
	}

	fmt.Println("Built-in scenarios:")
	fmt.Println()
	fmt.Printf("  %-*s  %-7s  %-5s  %-30s  %s\n", maxNameLen, "Name", "Board", "Units", "Objective", "Description")
	fmt.Printf("  %-*s  %-7s  %-5s  %-30s  %s\n", maxNameLen, "----", "-----", "-----", "---------", "-----------")
	for _, d := range descs {
		board := fmt.Sprintf("%dx%d", boardWidth(&d), len(d.Grid.Rows))
		fmt.Printf("  %-*s  %-7s  %-5d  %-30s  %s\n",
			maxNameLen, d.Name, board, len(d.Units), objectiveSummary(d.Objective), d.Description)
	}
	fmt.Println()
	fmt.Println("Run 'tactics watch <name>' to see one play out.")
}

func describeScenario(ref string) {
	d, err := scenario.Resolve(ref)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s - %s\n", d.Name, d.Description)
	fmt.Printf("  seed %d", d.Seed)
	if d.Difficulty != "" {
		fmt.Printf("  difficulty %s", d.Difficulty)
	}
	if d.MaxRounds > 0 {
		fmt.Printf("  max %d rounds", d.MaxRounds)
	}
	fmt.Println()
	fmt.Printf("  objective: %s\n", objectiveSummary(d.Objective))
	fmt.Println()

	fmt.Println("Board:")
	for _, row := range d.Grid.Rows {
		fmt.Printf("  %s\n", row)
	}
	fmt.Println()

	fmt.Println("Units:")
	fmt.Printf("  %-8s %-12s %-8s %-7s %4s %4s %5s %5s %4s  %s\n",
		"ID", "Name", "Team", "At", "HP", "AP", "Power", "Range", "Init", "AI")
	for _, u := range d.Units {
		ai := u.AI
		if ai == "" {
			ai = "-"
		}
		rng := u.Range
		if rng == 0 {
			rng = 1
		}
		fmt.Printf("  %-8s %-12s %-8s %-7s %4d %4d %5d %5d %4d  %s\n",
			u.ID, u.Name, u.Team, fmt.Sprintf("(%d,%d)", u.At.X, u.At.Y),
			u.HP, u.AP, u.Power, rng, u.Initiative, ai)
	}
}

// boardWidth measures the widest row in runes.
func boardWidth(d *scenario.Descriptor) int {
	w := 0
	for _, row := range d.Grid.Rows {
		if n := len([]rune(row)); n > w {
			w = n
		}
	}
	return w
}

// objectiveSummary renders an objective spec tree as one line.
func objectiveSummary(o *scenario.ObjectiveSpec) string {
	if o == nil {
		return "none"
	}
	switch o.Kind {
	case scenario.KindAllOf, scenario.KindAnyOf:
		parts := make([]string, 0, len(o.Children))
		for i := range o.Children {
			parts = append(parts, objectiveSummary(&o.Children[i]))
		}
		return fmt.Sprintf("%s(%s)", o.Kind, strings.Join(parts, ", "))
	case scenario.KindEliminateBoss:
		return "eliminate " + o.Unit
	case scenario.KindSurviveTurns:
		return fmt.Sprintf("survive %d turns", o.Turns)
	case scenario.KindHoldZones:
		return fmt.Sprintf("hold %d zones for %d rounds", len(o.Zones), o.Rounds)
	case scenario.KindEscort:
		return "escort " + o.Unit
	default:
		return o.Kind
	}
}
