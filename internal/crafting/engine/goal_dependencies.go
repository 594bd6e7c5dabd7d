package engine

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/rsned/craft-planner/pkg/crafting"
)

// GoalDependencies executes the goal_dependencies tool logic. It reports
// what the search sees for a goal (item ranks, tools and pruning ceilings)
// together with one recipe per item that bootstraps the goal from an empty
// inventory, deepest dependencies first.
func (e *Engine) GoalDependencies(ctx context.Context, req crafting.GoalDependenciesRequest) (*crafting.GoalDependenciesResponse, error) {
	b, err := e.loadBook(ctx)
	if err != nil {
		return nil, err
	}
	_, _, goal, err := e.resolveProblem(ctx, req.Problem, nil, req.Goal)
	if err != nil {
		return nil, err
	}
	s, err := e.setup(b, goal)
	if err != nil {
		return nil, err
	}

	resp := &crafting.GoalDependenciesResponse{
		Goal:         s.goal.Map(b.catalog),
		Priorities:   s.prio.Report(b.catalog),
		ItemCeilings: s.pruner.Report(),
		Tools:        []string{},
	}
	for _, p := range resp.Priorities {
		if p.IsTool {
			resp.Tools = append(resp.Tools, p.ItemID)
		}
	}

	chosen, unresolved := chooseProducers(b.defs, sortedKeys(goal))
	order, err := topologicalSort(chosen)
	if err != nil {
		return nil, fmt.Errorf("topological sort: %w", err)
	}
	for i, item := range order {
		resp.BuildOrder = append(resp.BuildOrder, crafting.BuildStep{
			StepNumber: i + 1,
			ItemID:     item,
			Recipe:     chosen[item].Name,
		})
	}
	resp.Unresolved = unresolved
	return resp, nil
}

// chooseProducers picks one producing recipe for every item the goal
// transitively needs. When several recipes produce an item, prefer:
//  1. Shortest craft time
//  2. Highest output quantity
//  3. Lexicographically first name
//
// A candidate is skipped when one of its inputs is an item already being
// resolved further up, since it cannot be made before itself; the next
// candidate is tried instead. Items no recipe produces are leaves. Goal items
// for which every candidate fails are returned as unresolved.
func chooseProducers(defs []crafting.RecipeDef, goal []string) (map[string]*crafting.RecipeDef, []string) {
	producers := make(map[string][]*crafting.RecipeDef)
	for i := range defs {
		for item := range defs[i].Produces {
			producers[item] = append(producers[item], &defs[i])
		}
	}
	for item, rs := range producers {
		slices.SortFunc(rs, func(a, b *crafting.RecipeDef) int {
			switch {
			case a.Time != b.Time:
				if a.Time < b.Time {
					return -1
				}
				return 1
			case a.Produces[item] != b.Produces[item]:
				return b.Produces[item] - a.Produces[item]
			}
			return strings.Compare(a.Name, b.Name)
		})
	}

	chosen := make(map[string]*crafting.RecipeDef)
	var picked []string // choice order, for rollback
	pathStack := make(map[string]bool)

	var dfs func(item string) bool
	dfs = func(item string) bool {
		if chosen[item] != nil || len(producers[item]) == 0 {
			return true
		}
		pathStack[item] = true
		defer delete(pathStack, item)

	candidates:
		for _, r := range producers[item] {
			inputs := recipeInputs(r)
			for _, in := range inputs {
				if pathStack[in] {
					continue candidates
				}
			}
			mark := len(picked)
			for _, in := range inputs {
				if !dfs(in) {
					for _, undo := range picked[mark:] {
						delete(chosen, undo)
					}
					picked = picked[:mark]
					continue candidates
				}
			}
			chosen[item] = r
			picked = append(picked, item)
			return true
		}
		return false
	}

	var unresolved []string
	for _, item := range goal {
		if !dfs(item) {
			unresolved = append(unresolved, item)
		}
	}
	return chosen, unresolved
}

// recipeInputs returns the consumed and required items of r, sorted and
// without duplicates.
func recipeInputs(r *crafting.RecipeDef) []string {
	set := make(map[string]bool, len(r.Consumes)+len(r.Requires))
	for item := range r.Consumes {
		set[item] = true
	}
	for item := range r.Requires {
		set[item] = true
	}
	return slices.Sorted(maps.Keys(set))
}

// topologicalSort performs a topological sort on the chosen producers.
// Returns items in dependency order (deepest dependencies first); items that
// become ready together are taken in name order.
func topologicalSort(chosen map[string]*crafting.RecipeDef) ([]string, error) {
	// Build in-degree map
	inDegree := make(map[string]int)
	adjacency := make(map[string][]string)

	for item, r := range chosen {
		if _, exists := inDegree[item]; !exists {
			inDegree[item] = 0
		}
		for _, in := range recipeInputs(r) {
			// Only consider produced inputs as dependencies
			if chosen[in] != nil {
				adjacency[in] = append(adjacency[in], item)
				inDegree[item]++
			}
		}
	}

	// Find nodes with no incoming edges
	var queue []string
	for item, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, item)
		}
	}
	slices.Sort(queue)

	var sorted []string
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		sorted = append(sorted, current)

		// Reduce in-degree for dependents
		var ready []string
		for _, dependent := range adjacency[current] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
		slices.Sort(ready)
		queue = append(queue, ready...)
	}

	// Check for cycles
	if len(sorted) != len(chosen) {
		return nil, fmt.Errorf("cycle detected in recipe dependencies")
	}

	return sorted, nil
}
