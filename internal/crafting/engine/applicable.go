package engine

import (
	"context"
	"errors"
	"time"

	"github.com/rsned/craft-planner/internal/crafting/db"
	"github.com/rsned/craft-planner/internal/crafting/planner"
	"github.com/rsned/craft-planner/pkg/crafting"
)

// Applicable executes the applicable_recipes tool logic: every recipe that
// can run on the inventory, in declaration order, with the inventory it
// leads to and whether pruning would keep that successor.
func (e *Engine) Applicable(ctx context.Context, req crafting.ApplicableRequest) (*crafting.ApplicableResponse, error) {
	startTime := time.Now()

	// Apply defaults
	if req.Limit <= 0 {
		req.Limit = 50
	}

	b, err := e.loadBook(ctx)
	if err != nil {
		return nil, err
	}
	state, err := planner.NewState(b.catalog, req.Inventory)
	if err != nil {
		return nil, err
	}

	// Without a stored problem there is no goal, so no goal item is capped.
	goal := map[string]int{}
	if _, _, g, err := e.resolveProblem(ctx, req.Problem, nil, nil); err == nil {
		goal = g
	} else if !errors.Is(err, db.ErrProblemNotFound) {
		return nil, err
	}
	g, err := planner.CompileGoal(b.catalog, goal)
	if err != nil {
		return nil, err
	}
	pruner := planner.NewPruner(b.table, g, e.cfg.PruneConfig(b.items))

	resp := &crafting.ApplicableResponse{}
	for succ := range b.table.Successors(state) {
		resp.Applicable = append(resp.Applicable, crafting.ApplicableRecipe{
			Recipe:    b.defOf(succ.Action),
			Resulting: succ.State.Map(),
			Accepted:  pruner.Accept(succ.State, state),
		})
		if len(resp.Applicable) >= req.Limit {
			break
		}
	}

	resp.QueryStats = crafting.QueryStats{
		TotalRecipesChecked: b.table.Len(),
		ItemsProvided:       len(req.Inventory),
		ProcessingTimeMs:    time.Since(startTime).Milliseconds(),
	}
	return resp, nil
}
