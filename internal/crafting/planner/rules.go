package planner

import (
	"fmt"
	"slices"
)

// Side selects which state of a transition a condition reads.
type Side string

const (
	SideCurrent Side = "current"
	SideNext    Side = "next"
)

// Op is a condition comparison.
type Op string

const (
	OpGreater      Op = "gt"
	OpGreaterEqual Op = "ge"
	OpEqual        Op = "eq"
	OpNotEqual     Op = "ne"
	OpLess         Op = "lt"
	OpLessEqual    Op = "le"

	// OpIncreased and OpDecreased compare next against current and ignore
	// Side and Value.
	OpIncreased Op = "increased"
	OpDecreased Op = "decreased"

	// OpBelowGoal holds while the item is short of its goal amount.
	OpBelowGoal Op = "below_goal"
)

// EffectKind is what a matching rule does to the score.
type EffectKind string

const (
	// EffectAdd adds Amount.
	EffectAdd EffectKind = "add"
	// EffectPerUnit adds Amount times the next quantity of Item.
	EffectPerUnit EffectKind = "per_unit"
	// EffectSet stops evaluation; the score becomes Amount.
	EffectSet EffectKind = "set"
)

// GoalShape gates a rule on the goal of the search. It is evaluated once,
// when the heuristic is built.
type GoalShape struct {
	Has     []string       `json:"has,omitempty" yaml:"has,omitempty"`
	Lacks   []string       `json:"lacks,omitempty" yaml:"lacks,omitempty"`
	AtLeast map[string]int `json:"at_least,omitempty" yaml:"at_least,omitempty"`
}

// Condition is one item threshold on a transition.
type Condition struct {
	Item  string `json:"item" yaml:"item" validate:"required"`
	Side  Side   `json:"side,omitempty" yaml:"side,omitempty" validate:"omitempty,oneof=current next"`
	Op    Op     `json:"op" yaml:"op" validate:"required,oneof=gt ge eq ne lt le increased decreased below_goal"`
	Value int    `json:"value,omitempty" yaml:"value,omitempty"`
}

// Effect is the adjustment of a matching rule.
type Effect struct {
	Kind   EffectKind `json:"kind" yaml:"kind" validate:"required,oneof=add per_unit set"`
	Amount float64    `json:"amount" yaml:"amount"`
	Item   string     `json:"item,omitempty" yaml:"item,omitempty" validate:"required_if=Kind per_unit"`
}

// Rule is a named special-case adjustment. A rule matches when its goal
// shape fits the search goal and all of its conditions hold.
type Rule struct {
	Name   string      `json:"name" yaml:"name" validate:"required"`
	Goal   GoalShape   `json:"goal,omitempty" yaml:"goal,omitempty"`
	When   []Condition `json:"when" yaml:"when" validate:"dive"`
	Effect Effect      `json:"effect" yaml:"effect"`
}

type compiledCondition struct {
	index int
	side  Side
	op    Op
	value int
	goal  int
}

type compiledRule struct {
	name   string
	when   []compiledCondition
	effect EffectKind
	amount float64
	unit   int
}

// fits reports whether the goal matches the rule's goal shape. Items outside
// the catalog count as absent from the goal.
func (g GoalShape) fits(cat *Catalog, goal Goal) bool {
	for _, it := range g.Has {
		if !goal.Has(cat, it) {
			return false
		}
	}
	for _, it := range g.Lacks {
		if goal.Has(cat, it) {
			return false
		}
	}
	for it, n := range g.AtLeast {
		if !goal.Has(cat, it) || goal.Amount(cat, it) < n {
			return false
		}
	}
	return true
}

// compileRules keeps the rules whose goal shape fits and resolves their item
// references. A kept rule naming an unknown item is an error.
func compileRules(cat *Catalog, goal Goal, rules []Rule) ([]compiledRule, error) {
	var out []compiledRule
	for _, r := range rules {
		if !r.Goal.fits(cat, goal) {
			continue
		}
		cr := compiledRule{
			name:   r.Name,
			effect: r.Effect.Kind,
			amount: r.Effect.Amount,
			unit:   -1,
		}
		for _, c := range r.When {
			i, ok := cat.Index(c.Item)
			if !ok {
				return nil, fmt.Errorf("rule %q: %w: %q", r.Name, ErrUnknownItem, c.Item)
			}
			side := c.Side
			if side == "" {
				side = SideNext
			}
			if !slices.Contains([]Op{OpGreater, OpGreaterEqual, OpEqual, OpNotEqual, OpLess,
				OpLessEqual, OpIncreased, OpDecreased, OpBelowGoal}, c.Op) {
				return nil, fmt.Errorf("rule %q: unknown op %q", r.Name, c.Op)
			}
			n, _ := goal.need(i)
			cr.when = append(cr.when, compiledCondition{index: i, side: side, op: c.Op, value: c.Value, goal: n})
		}
		switch r.Effect.Kind {
		case EffectAdd, EffectSet:
		case EffectPerUnit:
			i, ok := cat.Index(r.Effect.Item)
			if !ok {
				return nil, fmt.Errorf("rule %q: %w: %q", r.Name, ErrUnknownItem, r.Effect.Item)
			}
			cr.unit = i
		default:
			return nil, fmt.Errorf("rule %q: unknown effect %q", r.Name, r.Effect.Kind)
		}
		out = append(out, cr)
	}
	return out, nil
}

func (c compiledCondition) holds(cur, next State) bool {
	switch c.op {
	case OpIncreased:
		return next.qty[c.index] > cur.qty[c.index]
	case OpDecreased:
		return next.qty[c.index] < cur.qty[c.index]
	}
	q := next.qty[c.index]
	if c.side == SideCurrent {
		q = cur.qty[c.index]
	}
	switch c.op {
	case OpGreater:
		return q > c.value
	case OpGreaterEqual:
		return q >= c.value
	case OpEqual:
		return q == c.value
	case OpNotEqual:
		return q != c.value
	case OpLess:
		return q < c.value
	case OpLessEqual:
		return q <= c.value
	case OpBelowGoal:
		return q < c.goal
	}
	return false
}

func (r compiledRule) matches(cur, next State) bool {
	for _, c := range r.when {
		if !c.holds(cur, next) {
			return false
		}
	}
	return true
}

// apply returns the rule's adjustment and whether evaluation stops here.
func (r compiledRule) apply(next State) (float64, bool) {
	switch r.effect {
	case EffectSet:
		return r.amount, true
	case EffectPerUnit:
		return r.amount * float64(next.qty[r.unit]), false
	default:
		return r.amount, false
	}
}
