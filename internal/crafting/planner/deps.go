package planner

import (
	"slices"

	"github.com/rsned/craft-planner/pkg/crafting"
)

// ToolRank is the rank given to every item some relevant recipe needs as a
// tool, regardless of how deep in the dependency tree it sits.
const ToolRank = 1

// Priorities ranks items by their distance from the goal in the recipe
// dependency tree: goal items are rank 1, the ingredients of a recipe that
// produces a rank-p item are rank p+1. Unrelated items have rank 0.
type Priorities struct {
	rank []int
	tool []bool
}

// BuildPriorities walks the recipe table backwards from every goal item.
// The walk is breadth-first, so each item keeps the smallest rank at which it
// is reached and cycles in the recipe graph terminate.
func BuildPriorities(t *Table, goal Goal) *Priorities {
	n := t.catalog.Len()
	p := &Priorities{rank: make([]int, n), tool: make([]bool, n)}

	// producers[i] lists the recipes that produce item i.
	producers := make([][]*Recipe, n)
	for _, r := range t.recipes {
		for _, a := range r.produces {
			producers[a.index] = append(producers[a.index], r)
		}
	}

	var queue []int
	for _, a := range goal.want {
		if p.rank[a.index] == 0 {
			p.rank[a.index] = 1
			queue = append(queue, a.index)
		}
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		depth := p.rank[cur] + 1

		for _, r := range producers[cur] {
			for _, c := range r.consumes {
				if p.rank[c.index] == 0 {
					p.rank[c.index] = depth
					queue = append(queue, c.index)
				}
			}
			for _, tool := range r.requires {
				p.tool[tool] = true
				if p.rank[tool] == 0 {
					p.rank[tool] = depth
					queue = append(queue, tool)
				}
			}
		}
	}
	return p
}

// Rank returns the item's rank, ToolRank for tools and 0 for items the goal
// does not depend on.
func (p *Priorities) Rank(i int) int {
	if p.tool[i] {
		return ToolRank
	}
	return p.rank[i]
}

// Depth returns the raw dependency depth of the item, ignoring the tool bump.
func (p *Priorities) Depth(i int) int { return p.rank[i] }

// IsTool reports whether some relevant recipe requires the item as a tool.
func (p *Priorities) IsTool(i int) bool { return p.tool[i] }

// Report lists every ranked item in catalog order.
func (p *Priorities) Report(cat *Catalog) []crafting.ItemPriority {
	var out []crafting.ItemPriority
	for i := range p.rank {
		if p.rank[i] == 0 {
			continue
		}
		out = append(out, crafting.ItemPriority{
			ItemID: cat.Name(i),
			Rank:   p.Rank(i),
			IsTool: p.tool[i],
		})
	}
	return out
}

// Classify derives item categories from the recipes: an item any recipe
// requires is a tool; an item produced only by recipes that consume nothing
// is a raw resource; everything else is a material.
func Classify(items []string, defs []crafting.RecipeDef) map[string]crafting.ItemCategory {
	tools := make(map[string]bool)
	producedFromNothing := make(map[string]bool)
	producedFromInputs := make(map[string]bool)
	for _, d := range defs {
		for it := range d.Requires {
			tools[it] = true
		}
		for it := range d.Produces {
			if len(d.Consumes) == 0 {
				producedFromNothing[it] = true
			} else {
				producedFromInputs[it] = true
			}
		}
	}

	out := make(map[string]crafting.ItemCategory, len(items))
	for _, it := range items {
		switch {
		case tools[it]:
			out[it] = crafting.CategoryTool
		case producedFromNothing[it] && !producedFromInputs[it]:
			out[it] = crafting.CategoryResource
		default:
			out[it] = crafting.CategoryMaterial
		}
	}
	return out
}

// indexesOf resolves item names, skipping names outside the catalog.
func indexesOf(cat *Catalog, items []string) []int {
	out := make([]int, 0, len(items))
	for _, it := range items {
		if i, ok := cat.Index(it); ok {
			out = append(out, i)
		}
	}
	slices.Sort(out)
	return out
}
