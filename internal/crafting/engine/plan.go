package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rsned/craft-planner/internal/crafting/planner"
	"github.com/rsned/craft-planner/pkg/crafting"
)

// Plan executes the plan_craft tool logic: it runs a best-first search from
// the problem's initial inventory to its goal. A search that ends without a
// plan is not an error; the response carries Solved false and the reason.
func (e *Engine) Plan(ctx context.Context, req crafting.PlanRequest) (*crafting.PlanResponse, error) {
	b, err := e.loadBook(ctx)
	if err != nil {
		return nil, err
	}
	name, initial, goal, err := e.resolveProblem(ctx, req.Problem, req.Initial, req.Goal)
	if err != nil {
		return nil, err
	}

	start, err := planner.NewState(b.catalog, initial)
	if err != nil {
		return nil, err
	}
	s, err := e.setup(b, goal)
	if err != nil {
		return nil, err
	}

	deadline := e.cfg.Search.Deadline
	if req.DeadlineSec > 0 {
		deadline = time.Duration(req.DeadlineSec * float64(time.Second))
	}

	runID := e.newRunID()
	plan, err := planner.Search(ctx, b.table, start, s.goal, planner.Options{
		Deadline: deadline,
		Scorer:   s.heuristic,
		Pruner:   s.pruner,
	})

	resp := &crafting.PlanResponse{Problem: name}
	var se *planner.SearchError
	switch {
	case errors.As(err, &se) && se.Status != planner.StatusCanceled:
		resp.Failure = se.Error()
		resp.Diagnostics = diagnostics(runID, se.Diagnostics)
		e.logger.Info("search finished",
			"run_id", runID,
			"problem", name,
			"status", se.Status.String(),
			"expanded", se.Diagnostics.Expanded,
			"elapsed", se.Diagnostics.Elapsed,
		)
		return resp, nil
	case err != nil:
		return nil, err
	}

	if err := verify(b.table, start, plan); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	resp.Solved = true
	resp.TotalCost = plan.Cost
	resp.Diagnostics = diagnostics(runID, plan.Diagnostics)
	for i, step := range plan.Steps {
		resp.Steps = append(resp.Steps, crafting.PlanStep{
			StepNumber: i,
			Action:     step.Action,
			Cost:       step.Cost,
			Inventory:  step.State.Map(),
		})
	}

	e.logger.Info("search finished",
		"run_id", runID,
		"problem", name,
		"status", plan.Diagnostics.Status.String(),
		"expanded", plan.Diagnostics.Expanded,
		"path_length", len(plan.Steps),
		"cost", plan.Cost,
		"elapsed", plan.Diagnostics.Elapsed,
	)
	return resp, nil
}

// verify replays the plan's actions from start and checks every
// intermediate state against the plan.
func verify(t *planner.Table, start planner.State, plan *planner.Plan) error {
	states, err := planner.Replay(t, start, plan.Actions())
	if err != nil {
		return fmt.Errorf("plan does not replay: %w", err)
	}
	for i, s := range states {
		if !s.Equal(plan.Steps[i].State) {
			return fmt.Errorf("plan step %d: replay reached %s, plan says %s", i, s, plan.Steps[i].State)
		}
	}
	return nil
}

func diagnostics(runID string, d planner.Diagnostics) crafting.SearchDiagnostics {
	return crafting.SearchDiagnostics{
		RunID:        runID,
		Status:       d.Status.String(),
		ElapsedMs:    d.Elapsed.Milliseconds(),
		Expanded:     d.Expanded,
		Generated:    d.Generated,
		Pruned:       d.Pruned,
		Stale:        d.Stale,
		FrontierPeak: d.FrontierPeak,
		PathLength:   d.PathLength,
		PathCost:     d.PathCost,
	}
}
