package sim

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrHashMismatch reports a replay whose re-run diverged from the
// recorded final state.
var ErrHashMismatch = errors.New("sim: replay hash mismatch")

// CommandRecord is the JSON envelope for one command variant.
type CommandRecord struct {
	Kind   string       `json:"kind"`
	Move   *Move        `json:"move,omitempty"`
	Attack *Attack      `json:"attack,omitempty"`
	Status *ApplyStatus `json:"status,omitempty"`
	End    *EndTurn     `json:"end,omitempty"`
}

// RecordCommand wraps a command for serialization.
func RecordCommand(c Command) CommandRecord {
	switch v := c.(type) {
	case Move:
		return CommandRecord{Kind: v.Kind(), Move: &v}
	case Attack:
		return CommandRecord{Kind: v.Kind(), Attack: &v}
	case ApplyStatus:
		return CommandRecord{Kind: v.Kind(), Status: &v}
	case EndTurn:
		return CommandRecord{Kind: v.Kind(), End: &v}
	default:
		return CommandRecord{Kind: c.Kind()}
	}
}

// Command unwraps the envelope.
func (r CommandRecord) Command() (Command, error) {
	switch r.Kind {
	case "move":
		if r.Move == nil {
			return nil, fmt.Errorf("sim: move record without payload")
		}
		return *r.Move, nil
	case "attack":
		if r.Attack == nil {
			return nil, fmt.Errorf("sim: attack record without payload")
		}
		return *r.Attack, nil
	case "apply_status":
		if r.Status == nil {
			return nil, fmt.Errorf("sim: apply_status record without payload")
		}
		return *r.Status, nil
	case "end_turn":
		if r.End == nil {
			return nil, fmt.Errorf("sim: end_turn record without payload")
		}
		return *r.End, nil
	default:
		return nil, fmt.Errorf("sim: unknown command kind %q", r.Kind)
	}
}

// ReplayEntry is one accepted command at one tick.
type ReplayEntry struct {
	Tick    uint64        `json:"tick"`
	Unit    UnitID        `json:"unit"`
	Command CommandRecord `json:"command"`
}

// Replay is a complete battle recording: seed, scenario name and every
// accepted command in submission order. Rebuilding the same setup and
// feeding the entries must reproduce the recorded final hash.
type Replay struct {
	Scenario  string        `json:"scenario"`
	Seed      uint64        `json:"seed"`
	Entries   []ReplayEntry `json:"entries"`
	Ticks     uint64        `json:"ticks"`
	Outcome   string        `json:"outcome"`
	FinalHash uint64        `json:"final_hash"`
}

// recorder accumulates accepted commands during a battle.
type recorder struct {
	scenario string
	seed     uint64
	entries  []ReplayEntry
}

func newRecorder(scenario string, seed uint64) *recorder {
	return &recorder{scenario: scenario, seed: seed}
}

func (r *recorder) record(tick uint64, cmd Command) {
	r.entries = append(r.entries, ReplayEntry{
		Tick:    tick,
		Unit:    cmd.Actor(),
		Command: RecordCommand(cmd),
	})
}

// ReplayLog exports the battle's recording. Ticks, Outcome and
// FinalHash describe the battle as it stands; they are final once the
// battle is done.
func (s *Sim) ReplayLog() Replay {
	return Replay{
		Scenario:  s.name,
		Seed:      s.seed,
		Entries:   append([]ReplayEntry(nil), s.recorder.entries...),
		Ticks:     s.tick,
		Outcome:   s.outcome.String(),
		FinalHash: s.Snapshot().Hash(),
	}
}

// Marshal renders the replay as indented JSON.
func (r Replay) Marshal() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// ParseReplay decodes a JSON replay.
func ParseReplay(data []byte) (Replay, error) {
	var r Replay
	if err := json.Unmarshal(data, &r); err != nil {
		return Replay{}, fmt.Errorf("sim: parsing replay: %w", err)
	}
	return r, nil
}

// Run re-executes the recording against a fresh setup of the same
// scenario. Controllers are stripped so only the recorded commands
// drive the battle; ticks are consumed to match the original timeline.
func (r Replay) Run(setup Setup) (Snapshot, error) {
	setup.Seed = r.Seed
	setup.Controllers = nil
	s, err := New(setup)
	if err != nil {
		return Snapshot{}, err
	}
	for _, e := range r.Entries {
		for s.TickCount() < e.Tick {
			if s.Done() {
				return Snapshot{}, fmt.Errorf("sim: replay diverged: battle over at tick %d, entry expected at %d",
					s.TickCount(), e.Tick)
			}
			s.Tick()
		}
		cmd, err := e.Command.Command()
		if err != nil {
			return Snapshot{}, err
		}
		if _, rej := s.Submit(cmd); rej != nil {
			return Snapshot{}, fmt.Errorf("sim: replay diverged at tick %d: %s rejected: %s",
				e.Tick, cmd.Kind(), rej)
		}
	}
	for s.TickCount() < r.Ticks && !s.Done() {
		s.Tick()
	}
	return s.Snapshot(), nil
}

// Verify re-runs the recording and compares final hashes.
func (r Replay) Verify(setup Setup) error {
	snap, err := r.Run(setup)
	if err != nil {
		return err
	}
	if got := snap.Hash(); got != r.FinalHash {
		return fmt.Errorf("%w: recorded %016x, replayed %016x", ErrHashMismatch, r.FinalHash, got)
	}
	return nil
}
