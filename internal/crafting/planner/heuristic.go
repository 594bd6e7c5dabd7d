package planner

// Scorer adjusts the frontier priority of a transition. More negative values
// are preferred. Scores only bias expansion order; they never enter the path
// cost used for relaxation.
type Scorer interface {
	Score(current, next State) float64
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(current, next State) float64

// Score calls f.
func (f ScorerFunc) Score(current, next State) float64 { return f(current, next) }

// Weights are the magnitudes of the general shaping terms. Each is
// subtracted from the score when its condition holds.
type Weights struct {
	// Shaping is divided by an item's rank when the item increases.
	Shaping float64 `json:"shaping" yaml:"shaping" validate:"gte=0"`

	// ToolAcquire applies when a transition first acquires a needed tool.
	ToolAcquire float64 `json:"tool_acquire" yaml:"tool_acquire" validate:"gte=0"`

	// GoalProgress applies when an unmet goal item increases.
	GoalProgress float64 `json:"goal_progress" yaml:"goal_progress" validate:"gte=0"`

	// Terminal applies when the next state satisfies the goal. It must be
	// the largest of all adjustments.
	Terminal float64 `json:"terminal" yaml:"terminal" validate:"gte=0"`
}

// DefaultWeights returns the weights used when no configuration is given.
func DefaultWeights() Weights {
	return Weights{
		Shaping:      10,
		ToolAcquire:  1000,
		GoalProgress: 1000,
		Terminal:     1e12,
	}
}

// HeuristicConfig is the full heuristic configuration.
type HeuristicConfig struct {
	Weights Weights `json:"weights" yaml:"weights"`
	Rules   []Rule  `json:"rules,omitempty" yaml:"rules,omitempty" validate:"dive"`
}

// Heuristic combines goal- and priority-weighted shaping with a table of
// named special-case rules. It is built once per search.
type Heuristic struct {
	goal    Goal
	prio    *Priorities
	weights Weights
	rules   []compiledRule
}

// NewHeuristic builds the heuristic for goal over t. Rules whose goal shape
// does not fit goal are dropped here.
func NewHeuristic(t *Table, goal Goal, prio *Priorities, cfg HeuristicConfig) (*Heuristic, error) {
	rules, err := compileRules(t.catalog, goal, cfg.Rules)
	if err != nil {
		return nil, err
	}
	if prio == nil {
		prio = BuildPriorities(t, goal)
	}
	return &Heuristic{
		goal:    goal,
		prio:    prio,
		weights: cfg.Weights,
		rules:   rules,
	}, nil
}

// RuleNames returns the names of the rules active for this goal, in
// evaluation order.
func (h *Heuristic) RuleNames() []string {
	names := make([]string, len(h.rules))
	for i, r := range h.rules {
		names[i] = r.name
	}
	return names
}

// Score returns the adjustment for moving from current to next.
//
// Evaluation order: a goal-satisfying next state returns the terminal bonus
// at once; then the rules run in declaration order, where a "set" rule ends
// evaluation with its amount; finally the shaping terms are added.
func (h *Heuristic) Score(current, next State) float64 {
	if h.goal.Satisfied(next) {
		return -h.weights.Terminal
	}

	var adj float64
	for _, r := range h.rules {
		if !r.matches(current, next) {
			continue
		}
		v, stop := r.apply(next)
		if stop {
			return v
		}
		adj += v
	}

	for i, n := range next.qty {
		prev := current.qty[i]
		if n <= prev {
			continue
		}
		if h.prio.IsTool(i) {
			if prev == 0 {
				adj -= h.weights.ToolAcquire
			}
			continue
		}
		want, isGoal := h.goal.need(i)
		if isGoal && prev < want {
			adj -= h.weights.GoalProgress
			continue
		}
		if isGoal {
			continue
		}
		if rank := h.prio.Rank(i); rank > 0 {
			adj -= h.weights.Shaping / float64(rank)
		}
	}
	return adj
}

// terminalOnly is the scorer used when none is configured: it only pulls
// goal states forward.
type terminalOnly struct {
	goal  Goal
	bonus float64
}

func (t terminalOnly) Score(_, next State) float64 {
	if t.goal.Satisfied(next) {
		return -t.bonus
	}
	return 0
}
