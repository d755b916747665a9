package bt

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rdowning07/starter-town-tactics-sub001/internal/sim"
)

// Factory builds a fresh tree for one unit. Trees carry no runtime
// state, but handing each unit its own copy keeps scenarios free to
// tweak them later.
type Factory func() *Tree

var (
	factories = make(map[string]Factory)
	mu        sync.RWMutex
)

// Register adds an archetype factory under a name. Panics if the name
// is taken; archetypes are wired at init time and a clash is a
// programming error.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[name]; exists {
		panic(fmt.Sprintf("bt: archetype %q already registered", name))
	}
	factories[name] = f
}

// Build instantiates an archetype's tree by name.
func Build(name string) (*Tree, error) {
	mu.RLock()
	defer mu.RUnlock()

	f, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("bt: unknown archetype %q", name)
	}
	return f(), nil
}

// Exists reports whether an archetype is registered.
func Exists(name string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := factories[name]
	return ok
}

// List returns all registered archetype names, sorted.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register("aggressive", aggressiveTree)
	Register("defensive", defensiveTree)
	Register("skirmisher", skirmisherTree)
	Register("healer", healerTree)
	Register("guardian", guardianTree)
	Register("boss", bossTree)
}

func mustTree(b *Builder, root int) *Tree {
	t, err := b.Build(root)
	if err != nil {
		panic("bt: " + err.Error())
	}
	return t
}

// aggressiveTree closes distance and trades blows until the AP runs
// out.
func aggressiveTree() *Tree {
	b := NewBuilder("aggressive")
	strike := b.Sequence(
		b.Condition(CondEnemyInRange, 0),
		b.Condition(CondHasAP, sim.AttackAPCost),
		b.Action(ActAttackWeakest),
	)
	chase := b.Sequence(
		b.Condition(CondHasAP, 1),
		b.Action(ActMoveToNearestEnemy),
	)
	return mustTree(b, b.Selector(strike, chase, b.Action(ActEndTurn)))
}

// defensiveTree backs off when wounded, otherwise punishes whoever
// comes close.
func defensiveTree() *Tree {
	b := NewBuilder("defensive")
	flee := b.Sequence(
		b.Condition(CondHPBelow, 40),
		b.Action(ActRetreat),
	)
	strike := b.Sequence(
		b.Condition(CondEnemyInRange, 0),
		b.Condition(CondHasAP, sim.AttackAPCost),
		b.Action(ActAttackNearest),
	)
	return mustTree(b, b.Selector(flee, strike, b.Action(ActHoldPosition)))
}

// skirmisherTree never stands next to anyone: disengage, strike from
// reach, reposition.
func skirmisherTree() *Tree {
	b := NewBuilder("skirmisher")
	disengage := b.Sequence(
		b.Condition(CondEnemyAdjacent, 0),
		b.Action(ActRetreat),
	)
	strike := b.Sequence(
		b.Condition(CondEnemyInRange, 0),
		b.Condition(CondHasAP, sim.AttackAPCost),
		b.Action(ActAttackWeakest),
	)
	reposition := b.Sequence(
		b.Condition(CondHasAP, 1),
		b.Action(ActMoveToNearestEnemy),
	)
	return mustTree(b, b.Selector(disengage, strike, reposition, b.Action(ActEndTurn)))
}

// healerTree patches the most wounded friend, keeps out of melee and
// otherwise stays put.
func healerTree() *Tree {
	b := NewBuilder("healer")
	mend := b.Sequence(
		b.Condition(CondAllyHPBelow, 60),
		b.Condition(CondHasAP, sim.StatusAPCost),
		b.StatusAction(ActHealWeakestAlly, sim.StatusRegen, 2, 2),
	)
	disengage := b.Sequence(
		b.Condition(CondEnemyAdjacent, 0),
		b.Action(ActRetreat),
	)
	return mustTree(b, b.Selector(mend, disengage, b.Action(ActHoldPosition)))
}

// guardianTree holds its cell and strikes whatever steps into reach.
func guardianTree() *Tree {
	b := NewBuilder("guardian")
	strike := b.Sequence(
		b.Condition(CondEnemyInRange, 0),
		b.Condition(CondHasAP, sim.AttackAPCost),
		b.Action(ActAttackNearest),
	)
	return mustTree(b, b.Selector(strike, b.Action(ActHoldPosition)))
}

// bossTree opens adjacent fights with venom while it can still afford
// the follow-up blow, then falls back to aggressive play.
func bossTree() *Tree {
	b := NewBuilder("boss")
	venom := b.Sequence(
		b.Condition(CondEnemyAdjacent, 0),
		b.Condition(CondHasAP, sim.AttackAPCost+sim.StatusAPCost),
		b.StatusAction(ActPoisonNearest, sim.StatusPoison, 2, 3),
	)
	strike := b.Sequence(
		b.Condition(CondEnemyInRange, 0),
		b.Condition(CondHasAP, sim.AttackAPCost),
		b.Action(ActAttackWeakest),
	)
	chase := b.Sequence(
		b.Condition(CondHasAP, 1),
		b.Action(ActMoveToNearestEnemy),
	)
	return mustTree(b, b.Selector(venom, strike, chase, b.Action(ActEndTurn)))
}
