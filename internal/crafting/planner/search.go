package planner

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"
)

// Action sentinels that bracket a plan.
const (
	ActionStart = "start"
	ActionEnd   = "end of path"
)

// DefaultDeadline is the search deadline used when Options.Deadline is zero.
const DefaultDeadline = 210 * time.Second

var (
	// ErrExhausted is returned when the frontier empties before a goal
	// state is reached.
	ErrExhausted = errors.New("search exhausted")

	// ErrDeadlineExceeded is returned when the wall-clock deadline elapses
	// before a goal state is reached.
	ErrDeadlineExceeded = errors.New("search deadline exceeded")
)

// Status is the state of a search.
type Status int

const (
	StatusInitialized Status = iota
	StatusExpanding
	StatusSolved
	StatusExhausted
	StatusDeadlineExceeded
	StatusCanceled
)

func (s Status) String() string {
	switch s {
	case StatusInitialized:
		return "initialized"
	case StatusExpanding:
		return "expanding"
	case StatusSolved:
		return "solved"
	case StatusExhausted:
		return "exhausted"
	case StatusDeadlineExceeded:
		return "deadline_exceeded"
	case StatusCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Diagnostics are the counters of one search, as plain data.
type Diagnostics struct {
	Status       Status
	Elapsed      time.Duration
	Expanded     int
	Generated    int
	Pruned       int
	Stale        int
	FrontierPeak int
	PathLength   int
	PathCost     float64
}

// SearchError reports a search that ended without a plan.
type SearchError struct {
	Status      Status
	Diagnostics Diagnostics
	cause       error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("%v after expanding %d states in %v", e.cause, e.Diagnostics.Expanded, e.Diagnostics.Elapsed)
}

// Unwrap returns ErrExhausted, ErrDeadlineExceeded or the context error.
func (e *SearchError) Unwrap() error { return e.cause }

// Step is one state of a plan and the action that produced it. Cost is the
// path cost from the start to State.
type Step struct {
	State  State
	Action string
	Cost   float64
}

// Transition is a state paired with the action taken from it.
type Transition struct {
	State  State
	Action string
}

// Plan is a solved search: the steps from start to a goal state.
type Plan struct {
	Steps       []Step
	Cost        float64
	Diagnostics Diagnostics
}

// Actions returns the recipe names of the plan in order.
func (p *Plan) Actions() []string {
	out := make([]string, 0, len(p.Steps))
	for _, s := range p.Steps[1:] {
		out = append(out, s.Action)
	}
	return out
}

// Final returns the goal state the plan ends in.
func (p *Plan) Final() State { return p.Steps[len(p.Steps)-1].State }

// Transitions returns the plan as (state, next action) pairs; the last pair
// holds the goal state and ActionEnd.
func (p *Plan) Transitions() []Transition {
	out := make([]Transition, len(p.Steps))
	for i, s := range p.Steps {
		action := ActionEnd
		if i+1 < len(p.Steps) {
			action = p.Steps[i+1].Action
		}
		out[i] = Transition{State: s.State, Action: action}
	}
	return out
}

// Options tune a search. The zero value searches with DefaultDeadline, no
// pruning and a terminal-only heuristic.
type Options struct {
	Deadline time.Duration
	Scorer   Scorer
	Pruner   *Pruner

	// Clock returns the current time; time.Now when nil.
	Clock func() time.Time
}

// node is the bookkeeping kept per discovered state.
type node struct {
	state  State
	dist   float64
	parent StateKey
	action string
	root   bool
}

// run holds the bookkeeping of one search call. It is never reused.
type run struct {
	table  *Table
	goal   Goal
	scorer Scorer
	pruner *Pruner
	clock  func() time.Time

	status Status
	nodes  map[StateKey]*node
	front  frontier
	diag   Diagnostics

	// onRelax, when set, observes every distance update.
	onRelax func(StateKey, float64)
}

// Search runs a best-first search from start to any state satisfying goal.
// Frontier entries are ordered by path cost plus the scorer's adjustment;
// the distance used for relaxation is the path cost alone. Because the
// scorer is not admissible in general, the plan is low-cost but not
// guaranteed optimal.
//
// On failure the error is a *SearchError wrapping ErrExhausted,
// ErrDeadlineExceeded or the context's error.
func Search(ctx context.Context, t *Table, start State, goal Goal, opts Options) (*Plan, error) {
	if start.cat != t.catalog {
		return nil, errors.New("start state was built from a different catalog than the recipe table")
	}
	return newRun(t, goal, opts).search(ctx, start, opts.Deadline)
}

func newRun(t *Table, goal Goal, opts Options) *run {
	r := &run{
		table:  t,
		goal:   goal,
		scorer: opts.Scorer,
		pruner: opts.Pruner,
		clock:  opts.Clock,
		status: StatusInitialized,
		nodes:  make(map[StateKey]*node),
	}
	if r.scorer == nil {
		r.scorer = terminalOnly{goal: goal, bonus: DefaultWeights().Terminal}
	}
	if r.clock == nil {
		r.clock = time.Now
	}
	return r
}

func (r *run) search(ctx context.Context, start State, limit time.Duration) (*Plan, error) {
	if limit == 0 {
		limit = DefaultDeadline
	}
	began := r.clock()
	deadline := began.Add(limit)

	startKey := start.Key()
	r.nodes[startKey] = &node{state: start, root: true}
	r.front.push(&entry{state: start, key: startKey})
	r.status = StatusExpanding

	for {
		now := r.clock()
		if !now.Before(deadline) {
			return nil, r.fail(StatusDeadlineExceeded, ErrDeadlineExceeded, now.Sub(began))
		}
		if err := ctx.Err(); err != nil {
			return nil, r.fail(StatusCanceled, err, now.Sub(began))
		}
		if r.front.len() == 0 {
			return nil, r.fail(StatusExhausted, ErrExhausted, now.Sub(began))
		}

		e := r.front.pop()
		cur := r.nodes[e.key]
		if e.pathCost > cur.dist {
			r.diag.Stale++
			continue
		}
		r.diag.Expanded++

		if r.goal.Satisfied(e.state) {
			plan := r.reconstruct(e.key)
			r.status = StatusSolved
			r.finish(r.clock().Sub(began))
			r.diag.PathLength = len(plan.Steps)
			r.diag.PathCost = plan.Cost
			plan.Diagnostics = r.diag
			observeSearch(r.diag)
			return plan, nil
		}

		r.expand(e, cur)
	}
}

func (r *run) expand(e *entry, cur *node) {
	for succ := range r.table.Successors(e.state) {
		r.diag.Generated++
		if r.pruner != nil && !r.pruner.Accept(succ.State, e.state) {
			r.diag.Pruned++
			continue
		}

		dist := cur.dist + succ.Cost
		key := succ.State.Key()
		if n, seen := r.nodes[key]; seen && dist >= n.dist {
			continue
		}
		r.nodes[key] = &node{state: succ.State, dist: dist, parent: e.key, action: succ.Action}
		if r.onRelax != nil {
			r.onRelax(key, dist)
		}

		r.front.push(&entry{
			priority: dist + r.scorer.Score(e.state, succ.State),
			state:    succ.State,
			key:      key,
			depth:    e.depth + 1,
			edgeCost: succ.Cost,
			pathCost: dist,
		})
	}
}

// reconstruct follows parent links from the goal back to the root.
func (r *run) reconstruct(goal StateKey) *Plan {
	var steps []Step
	for key := goal; ; {
		n := r.nodes[key]
		if n.root {
			steps = append(steps, Step{State: n.state, Action: ActionStart})
			break
		}
		steps = append(steps, Step{State: n.state, Action: n.action, Cost: n.dist})
		key = n.parent
	}
	slices.Reverse(steps)
	return &Plan{Steps: steps, Cost: steps[len(steps)-1].Cost}
}

func (r *run) finish(elapsed time.Duration) {
	r.diag.Status = r.status
	r.diag.Elapsed = elapsed
	r.diag.FrontierPeak = r.front.peak
}

func (r *run) fail(status Status, cause error, elapsed time.Duration) error {
	r.status = status
	r.finish(elapsed)
	observeSearch(r.diag)
	return &SearchError{Status: status, Diagnostics: r.diag, cause: cause}
}
