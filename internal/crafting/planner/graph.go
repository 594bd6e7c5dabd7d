package planner

import (
	"fmt"
	"iter"
)

// Successor is one outgoing edge of the state graph.
type Successor struct {
	Action string
	State  State
	Cost   float64
}

// Successors yields, in recipe declaration order, every recipe applicable in
// s with the state it leads to. The sequence holds no cursor between calls;
// ranging over it again starts from the first recipe.
func (t *Table) Successors(s State) iter.Seq[Successor] {
	return func(yield func(Successor) bool) {
		for _, r := range t.recipes {
			if !Applicable(r, s) {
				continue
			}
			if !yield(Successor{Action: r.Name, State: apply(r, s), Cost: r.Cost}) {
				return
			}
		}
	}
}

// Replay re-applies actions from start, checking each one, and returns every
// state visited including start.
func Replay(t *Table, start State, actions []string) ([]State, error) {
	states := make([]State, 0, len(actions)+1)
	states = append(states, start)
	cur := start
	for i, name := range actions {
		r := t.Recipe(name)
		if r == nil {
			return nil, fmt.Errorf("step %d: unknown recipe %q", i+1, name)
		}
		if !Applicable(r, cur) {
			return nil, fmt.Errorf("step %d: recipe %q not applicable in %s", i+1, name, cur)
		}
		cur = apply(r, cur)
		states = append(states, cur)
	}
	return states, nil
}
