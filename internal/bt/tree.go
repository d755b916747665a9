// Package bt implements the behavior trees that drive computer-led
// units. A tree is a flat node arena evaluated against the read-only
// battle state; the command it picks travels the same pipeline as
// player input, so the rules engine stays the single authority on
// legality.
package bt

import (
	"fmt"

	"github.com/rdowning07/starter-town-tactics-sub001/internal/sim"
)

// NodeKind selects how a node is evaluated.
type NodeKind string

const (
	KindSelector  NodeKind = "selector"
	KindSequence  NodeKind = "sequence"
	KindCondition NodeKind = "condition"
	KindAction    NodeKind = "action"
)

// Node is one entry in the arena. Branch nodes reference children by
// arena index; leaves carry a condition or action id plus parameters.
// Value holds the leaf's primary number (a percent threshold, an AP
// minimum, a status magnitude), Duration the status turn count.
type Node struct {
	Kind      NodeKind       `yaml:"kind" json:"kind"`
	Children  []int          `yaml:"children,omitempty" json:"children,omitempty"`
	Condition ConditionID    `yaml:"condition,omitempty" json:"condition,omitempty"`
	Action    ActionID       `yaml:"action,omitempty" json:"action,omitempty"`
	Value     int            `yaml:"value,omitempty" json:"value,omitempty"`
	Duration  int            `yaml:"duration,omitempty" json:"duration,omitempty"`
	Status    sim.StatusKind `yaml:"status,omitempty" json:"status,omitempty"`
}

// Tree is a complete behavior tree: the node arena plus its root index.
type Tree struct {
	Name  string `yaml:"name" json:"name"`
	Root  int    `yaml:"root" json:"root"`
	Nodes []Node `yaml:"nodes" json:"nodes"`
}

// Validate checks arena consistency: the root and every child index in
// range, no cycles, branches non-empty, and every leaf naming a known
// condition or action.
func (t *Tree) Validate() error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("bt: tree %q has no nodes", t.Name)
	}
	if t.Root < 0 || t.Root >= len(t.Nodes) {
		return fmt.Errorf("bt: tree %q root %d out of range", t.Name, t.Root)
	}
	for i, n := range t.Nodes {
		switch n.Kind {
		case KindSelector, KindSequence:
			if len(n.Children) == 0 {
				return fmt.Errorf("bt: tree %q node %d: %s without children", t.Name, i, n.Kind)
			}
			for _, c := range n.Children {
				if c < 0 || c >= len(t.Nodes) {
					return fmt.Errorf("bt: tree %q node %d: child %d out of range", t.Name, i, c)
				}
			}
		case KindCondition:
			if !KnownCondition(n.Condition) {
				return fmt.Errorf("bt: tree %q node %d: unknown condition %q", t.Name, i, n.Condition)
			}
		case KindAction:
			if !KnownAction(n.Action) {
				return fmt.Errorf("bt: tree %q node %d: unknown action %q", t.Name, i, n.Action)
			}
		default:
			return fmt.Errorf("bt: tree %q node %d: unknown kind %q", t.Name, i, n.Kind)
		}
	}

	// Walk from the root with three-color marking to refuse cycles.
	state := make([]int, len(t.Nodes))
	var walk func(int) error
	walk = func(i int) error {
		switch state[i] {
		case 1:
			return fmt.Errorf("bt: tree %q has a cycle through node %d", t.Name, i)
		case 2:
			return nil
		}
		state[i] = 1
		for _, c := range t.Nodes[i].Children {
			if err := walk(c); err != nil {
				return err
			}
		}
		state[i] = 2
		return nil
	}
	return walk(t.Root)
}

// Builder assembles a tree bottom-up: leaves first, then branches over
// the returned indices. Build finalizes with the root index.
type Builder struct {
	name  string
	nodes []Node
}

// NewBuilder starts an empty tree.
func NewBuilder(name string) *Builder {
	return &Builder{name: name}
}

func (b *Builder) add(n Node) int {
	b.nodes = append(b.nodes, n)
	return len(b.nodes) - 1
}

// Condition adds a predicate leaf. Value is the predicate's threshold
// where one applies.
func (b *Builder) Condition(id ConditionID, value int) int {
	return b.add(Node{Kind: KindCondition, Condition: id, Value: value})
}

// StatusCondition adds a has_status leaf for the given kind.
func (b *Builder) StatusCondition(kind sim.StatusKind) int {
	return b.add(Node{Kind: KindCondition, Condition: CondHasStatus, Status: kind})
}

// Action adds an action leaf.
func (b *Builder) Action(id ActionID) int {
	return b.add(Node{Kind: KindAction, Action: id})
}

// StatusAction adds an action leaf that applies a status effect with
// the given magnitude and duration.
func (b *Builder) StatusAction(id ActionID, kind sim.StatusKind, magnitude, duration int) int {
	return b.add(Node{Kind: KindAction, Action: id, Status: kind, Value: magnitude, Duration: duration})
}

// Sequence adds a branch that requires every child in order.
func (b *Builder) Sequence(children ...int) int {
	return b.add(Node{Kind: KindSequence, Children: append([]int(nil), children...)})
}

// Selector adds a branch that takes the first child that works.
func (b *Builder) Selector(children ...int) int {
	return b.add(Node{Kind: KindSelector, Children: append([]int(nil), children...)})
}

// Build finalizes and validates the tree.
func (b *Builder) Build(root int) (*Tree, error) {
	t := &Tree{Name: b.name, Root: root, Nodes: append([]Node(nil), b.nodes...)}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}
