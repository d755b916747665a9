package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rdowning07/starter-town-tactics-sub001/internal/platform/tui"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
)

var serveCmd = &cobra.Command{
	Use:   "serve [scenario]",
	Short: "Serve battles to SSH spectators",
	Long: `Start an SSH server where every session spectates the configured
battle. Each connection gets its own fresh, deterministic run, so
spectators can pause and step independently.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.tactics/host_key

Examples:
  tactics serve                         # Serve skirmish on :23234
  tactics serve warlord --ssh :2222     # Serve warlord on port 2222
  tactics serve --seed 42 --difficulty hard

Spectators connect with:
  ssh localhost -p 23234`,
	Args: cobra.MaximumNArgs(1),
	Run:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", ":23234", "SSH server address (host:port)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "Idle timeout in minutes before disconnecting")
	serveCmd.Flags().Uint64Var(&flagSeed, "seed", 0, "RNG seed (0 = the scenario's own seed)")
	serveCmd.Flags().StringVar(&flagDifficulty, "difficulty", "", "Difficulty preset: easy, normal, hard")
	serveCmd.Flags().IntVar(&flagDelay, "delay", 400, "Milliseconds between ticks")
}

func runServe(_ *cobra.Command, args []string) {
	cfg := tui.SSHServerConfig{
		Address:     flagSSHAddr,
		HostKeyPath: flagHostKey,
		Scenario:    scenarioArg(args),
		Seed:        flagSeed,
		Difficulty:  flagDifficulty,
		Interval:    time.Duration(flagDelay) * time.Millisecond,
		IdleTimeout: time.Duration(flagIdleTimeout) * time.Minute,
	}

	server, err := tui.NewSSHServer(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating server: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Starting tactics SSH server on %s\n", cfg.Address)
	fmt.Printf("Spectating %q - connect with: ssh localhost -p 23234\n", cfg.Scenario)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.ListenAndServe(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
