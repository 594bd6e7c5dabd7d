package planner

import "github.com/rsned/craft-planner/pkg/crafting"

// PruneConfig controls the pruning ceilings.
type PruneConfig struct {
	// GlobalCap bounds every item without a derived ceiling.
	GlobalCap int `json:"global_cap" yaml:"global_cap" validate:"min=1"`

	// ToolCap bounds tools. Tools are possession items, so 1 is enough.
	ToolCap int `json:"tool_cap" yaml:"tool_cap" validate:"min=1"`

	// Tools and Resources name the tool and raw-resource items.
	Tools     []string `json:"-" yaml:"-"`
	Resources []string `json:"-" yaml:"-"`
}

// DefaultPruneConfig returns a global cap of 40 and one copy per tool.
func DefaultPruneConfig() PruneConfig {
	return PruneConfig{GlobalCap: 40, ToolCap: 1}
}

// Pruner rejects successor states that are clearly wasteful. Its limits are
// computed once per search from the recipe table and the goal.
type Pruner struct {
	catalog *Catalog
	ceiling []int
	derived []bool

	// goalCap[i] is the quantity of goal item i beyond which more is waste,
	// -1 for items outside the goal.
	goalCap []int
}

// NewPruner derives per-item ceilings. An item that recipes consume is capped
// at the largest amount any single recipe consumes of it, widened by one
// production batch less one so that a batch can always be made while short.
// Raw resources, unconsumed items and tools are exempt from the derived cap
// and use GlobalCap or ToolCap instead. Goal items may always reach their
// target.
func NewPruner(t *Table, goal Goal, cfg PruneConfig) *Pruner {
	n := t.catalog.Len()
	p := &Pruner{
		catalog: t.catalog,
		ceiling: make([]int, n),
		derived: make([]bool, n),
		goalCap: make([]int, n),
	}

	maxConsumed := make([]int, n)
	batch := make([]int, n)
	for _, r := range t.recipes {
		for _, a := range r.consumes {
			maxConsumed[a.index] = max(maxConsumed[a.index], a.n)
		}
		for _, a := range r.produces {
			batch[a.index] = max(batch[a.index], a.n)
		}
	}
	isTool := make([]bool, n)
	for _, i := range indexesOf(t.catalog, cfg.Tools) {
		isTool[i] = true
	}
	isResource := make([]bool, n)
	for _, i := range indexesOf(t.catalog, cfg.Resources) {
		isResource[i] = true
	}

	for i := range n {
		p.goalCap[i] = -1
		switch {
		case isTool[i]:
			p.ceiling[i] = cfg.ToolCap
		case isResource[i] || maxConsumed[i] == 0:
			p.ceiling[i] = cfg.GlobalCap
		default:
			p.ceiling[i] = maxConsumed[i] + max(batch[i]-1, 0)
			p.derived[i] = true
		}
	}

	// A goal item that is also an ingredient may be needed on top of the
	// goal amount, so its waste threshold includes the derived ceiling.
	for _, a := range goal.want {
		need := a.n
		if p.derived[a.index] {
			need += maxConsumed[a.index]
		}
		p.goalCap[a.index] = need
		p.ceiling[a.index] = max(p.ceiling[a.index], need+max(batch[a.index]-1, 0))
	}
	return p
}

// Accept reports whether the candidate successor of current may enter the
// frontier. Only items whose quantity rises are checked, so a start state
// that already holds more than a ceiling is not a dead end.
func (p *Pruner) Accept(candidate, current State) bool {
	for i, n := range candidate.qty {
		prev := current.qty[i]
		if n <= prev {
			continue
		}
		if n > p.ceiling[i] {
			return false
		}
		if gc := p.goalCap[i]; gc >= 0 && prev >= gc {
			return false
		}
	}
	return true
}

// Ceiling returns the ceiling of item and whether it was derived from recipe
// consumption.
func (p *Pruner) Ceiling(item string) (int, bool) {
	i, ok := p.catalog.Index(item)
	if !ok {
		return 0, false
	}
	return p.ceiling[i], p.derived[i]
}

// Report lists every item's ceiling in catalog order.
func (p *Pruner) Report() []crafting.ItemCeiling {
	out := make([]crafting.ItemCeiling, len(p.ceiling))
	for i, c := range p.ceiling {
		out[i] = crafting.ItemCeiling{
			ItemID:  p.catalog.Name(i),
			Ceiling: c,
			Derived: p.derived[i],
		}
	}
	return out
}
