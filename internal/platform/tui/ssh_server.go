package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/rdowning07/starter-town-tactics-sub001/internal/scenario"
	"github.com/rdowning07/starter-town-tactics-sub001/internal/sim"
)

// SSHServerConfig holds configuration for the spectator SSH server.
type SSHServerConfig struct {
	// Address is the host:port to listen on (e.g., ":23234").
	Address string

	// HostKeyPath is the path to the host key file.
	// If empty, a key will be auto-generated at ~/.tactics/host_key.
	HostKeyPath string

	// Scenario is what every session spectates: a builtin name or a
	// YAML file path.
	Scenario string

	// Seed overrides the scenario's seed when non-zero. Sessions are
	// deterministic, so every spectator sees the same battle.
	Seed uint64

	// Difficulty overrides the scenario's preset when non-empty.
	Difficulty string

	// Interval is the viewer's initial pace.
	Interval time.Duration

	// IdleTimeout is how long to wait before closing idle connections.
	IdleTimeout time.Duration
}

// DefaultSSHServerConfig returns a config with sensible defaults.
func DefaultSSHServerConfig() SSHServerConfig {
	return SSHServerConfig{
		Address:     ":23234",
		Scenario:    "skirmish",
		Interval:    400 * time.Millisecond,
		IdleTimeout: 30 * time.Minute,
	}
}

// SSHServer serves read-only battle spectating over SSH via Wish.
// Each session drives its own fresh battle, so a mid-battle disconnect
// never disturbs anyone else.
type SSHServer struct {
	config SSHServerConfig
	server *ssh.Server
	desc   scenario.Descriptor
	logger *log.Logger
}

// NewSSHServer creates an SSH server with the given configuration. The
// scenario is resolved and built once up front so a broken reference
// fails at startup, not per session.
func NewSSHServer(cfg SSHServerConfig) (*SSHServer, error) {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "tactics-ssh",
	})

	desc, err := scenario.Resolve(cfg.Scenario)
	if err != nil {
		return nil, err
	}

	srv := &SSHServer{
		config: cfg,
		desc:   desc,
		logger: logger,
	}
	if _, err := srv.buildBattle(); err != nil {
		return nil, err
	}

	// Resolve host key path
	hostKeyPath := cfg.HostKeyPath
	if hostKeyPath == "" {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return nil, fmt.Errorf("cannot get home directory: %w", homeErr)
		}
		hostKeyPath = filepath.Join(home, ".tactics", "host_key")
	}
	if mkdirErr := os.MkdirAll(filepath.Dir(hostKeyPath), 0o700); mkdirErr != nil {
		return nil, fmt.Errorf("cannot create host key directory: %w", mkdirErr)
	}

	server, err := wish.NewServer(
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.loggingMiddleware,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("cannot create SSH server: %w", err)
	}

	srv.server = server
	return srv, nil
}

// buildBattle constructs a fresh battle from the configured scenario,
// seed and difficulty.
func (s *SSHServer) buildBattle() (*sim.Sim, error) {
	desc := s.desc
	if s.config.Difficulty != "" {
		desc.Difficulty = scenario.Preset(s.config.Difficulty)
	}
	seed := s.config.Seed
	if seed == 0 {
		seed = desc.Seed
	}
	return desc.BuildSeeded(seed)
}

// teaHandler creates a viewer program for each SSH session.
func (s *SSHServer) teaHandler(sshSession ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sshSession.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sshSession.User())
		return nil, nil
	}

	battle, err := s.buildBattle()
	if err != nil {
		s.logger.Error("cannot build battle", "error", err)
		return nil, nil
	}

	s.logger.Info("spectating",
		"user", sshSession.User(),
		"scenario", battle.Name(),
		"seed", battle.Seed(),
	)

	model := NewWatch(battle, s.config.Interval, pty.Window.Width, pty.Window.Height)
	return model, []tea.ProgramOption{
		tea.WithAltScreen(),
	}
}

// loggingMiddleware logs SSH session events.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sshSession ssh.Session) {
		s.logger.Info("session started",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
		next(sshSession)
		s.logger.Info("session ended",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
	}
}

// ListenAndServe starts the SSH server and blocks until shutdown.
func (s *SSHServer) ListenAndServe() error {
	s.logger.Info("starting SSH server",
		"address", s.config.Address,
		"scenario", s.desc.Name,
	)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			s.logger.Error("server error", "error", err)
		}
	}()

	<-done
	s.logger.Info("shutting down...")
	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.config.Address
}
