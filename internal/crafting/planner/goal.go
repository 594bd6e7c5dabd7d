package planner

import "fmt"

// Goal is a compiled set of minimum item quantities.
type Goal struct {
	want []amount
}

// CompileGoal resolves the goal's items against the catalog.
func CompileGoal(cat *Catalog, goal map[string]int) (Goal, error) {
	want, err := cat.amounts(goal)
	if err != nil {
		return Goal{}, fmt.Errorf("compiling goal: %w", err)
	}
	return Goal{want: want}, nil
}

// Satisfied reports whether s holds at least the required amount of every
// goal item.
func (g Goal) Satisfied(s State) bool {
	for _, a := range g.want {
		if s.qty[a.index] < a.n {
			return false
		}
	}
	return true
}

// need returns the goal amount for the item at index i and whether it is a
// goal item at all.
func (g Goal) need(i int) (int, bool) {
	for _, a := range g.want {
		if a.index == i {
			return a.n, true
		}
	}
	return 0, false
}

// Has reports whether item is part of the goal.
func (g Goal) Has(cat *Catalog, item string) bool {
	i, ok := cat.Index(item)
	if !ok {
		return false
	}
	_, ok = g.need(i)
	return ok
}

// Amount returns the required amount of item, 0 if it is not a goal item.
func (g Goal) Amount(cat *Catalog, item string) int {
	i, ok := cat.Index(item)
	if !ok {
		return 0
	}
	n, _ := g.need(i)
	return n
}

// Map returns the goal as item quantities.
func (g Goal) Map(cat *Catalog) map[string]int { return amountsMap(cat, g.want) }
