package planner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rsned/craft-planner/pkg/crafting"
)

// minecraftItems is the item catalog of the sample recipe book.
var minecraftItems = []string{
	"bench", "cart", "coal", "cobble", "furnace", "ingot", "iron_axe",
	"iron_pickaxe", "ore", "plank", "rail", "stick", "stone_axe",
	"stone_pickaxe", "wood", "wooden_axe", "wooden_pickaxe",
}

func minecraftRecipes() []crafting.RecipeDef {
	return []crafting.RecipeDef{
		{Name: "punch for wood", Produces: map[string]int{"wood": 1}, Time: 4},
		{Name: "craft plank", Consumes: map[string]int{"wood": 1}, Produces: map[string]int{"plank": 4}, Time: 1},
		{Name: "craft stick", Consumes: map[string]int{"plank": 2}, Produces: map[string]int{"stick": 4}, Time: 1},
		{Name: "craft bench", Consumes: map[string]int{"plank": 4}, Produces: map[string]int{"bench": 1}, Time: 1},
		{Name: "craft wooden_pickaxe at bench", Requires: map[string]int{"bench": 1}, Consumes: map[string]int{"plank": 3, "stick": 2}, Produces: map[string]int{"wooden_pickaxe": 1}, Time: 1},
		{Name: "craft wooden_axe at bench", Requires: map[string]int{"bench": 1}, Consumes: map[string]int{"plank": 3, "stick": 2}, Produces: map[string]int{"wooden_axe": 1}, Time: 1},
		{Name: "wooden_axe for wood", Requires: map[string]int{"wooden_axe": 1}, Produces: map[string]int{"wood": 1}, Time: 2},
		{Name: "wooden_pickaxe for cobble", Requires: map[string]int{"wooden_pickaxe": 1}, Produces: map[string]int{"cobble": 1}, Time: 4},
		{Name: "wooden_pickaxe for coal", Requires: map[string]int{"wooden_pickaxe": 1}, Produces: map[string]int{"coal": 1}, Time: 4},
		{Name: "craft stone_pickaxe at bench", Requires: map[string]int{"bench": 1}, Consumes: map[string]int{"cobble": 3, "stick": 2}, Produces: map[string]int{"stone_pickaxe": 1}, Time: 1},
		{Name: "craft stone_axe at bench", Requires: map[string]int{"bench": 1}, Consumes: map[string]int{"cobble": 3, "stick": 2}, Produces: map[string]int{"stone_axe": 1}, Time: 1},
		{Name: "stone_axe for wood", Requires: map[string]int{"stone_axe": 1}, Produces: map[string]int{"wood": 1}, Time: 1},
		{Name: "stone_pickaxe for cobble", Requires: map[string]int{"stone_pickaxe": 1}, Produces: map[string]int{"cobble": 1}, Time: 2},
		{Name: "stone_pickaxe for coal", Requires: map[string]int{"stone_pickaxe": 1}, Produces: map[string]int{"coal": 1}, Time: 2},
		{Name: "stone_pickaxe for ore", Requires: map[string]int{"stone_pickaxe": 1}, Produces: map[string]int{"ore": 1}, Time: 4},
		{Name: "craft furnace at bench", Requires: map[string]int{"bench": 1}, Consumes: map[string]int{"cobble": 8}, Produces: map[string]int{"furnace": 1}, Time: 1},
		{Name: "smelt ore in furnace", Requires: map[string]int{"furnace": 1}, Consumes: map[string]int{"ore": 1, "coal": 1}, Produces: map[string]int{"ingot": 1}, Time: 5},
		{Name: "craft iron_pickaxe at bench", Requires: map[string]int{"bench": 1}, Consumes: map[string]int{"ingot": 3, "stick": 2}, Produces: map[string]int{"iron_pickaxe": 1}, Time: 1},
		{Name: "craft iron_axe at bench", Requires: map[string]int{"bench": 1}, Consumes: map[string]int{"ingot": 3, "stick": 2}, Produces: map[string]int{"iron_axe": 1}, Time: 1},
		{Name: "iron_axe for wood", Requires: map[string]int{"iron_axe": 1}, Produces: map[string]int{"wood": 1}, Time: 1},
		{Name: "iron_pickaxe for cobble", Requires: map[string]int{"iron_pickaxe": 1}, Produces: map[string]int{"cobble": 1}, Time: 1},
		{Name: "iron_pickaxe for coal", Requires: map[string]int{"iron_pickaxe": 1}, Produces: map[string]int{"coal": 1}, Time: 1},
		{Name: "iron_pickaxe for ore", Requires: map[string]int{"iron_pickaxe": 1}, Produces: map[string]int{"ore": 1}, Time: 2},
		{Name: "craft cart at bench", Requires: map[string]int{"bench": 1}, Consumes: map[string]int{"ingot": 5}, Produces: map[string]int{"cart": 1}, Time: 1},
		{Name: "craft rail at bench", Requires: map[string]int{"bench": 1}, Consumes: map[string]int{"ingot": 6, "stick": 1}, Produces: map[string]int{"rail": 16}, Time: 1},
	}
}

type fixture struct {
	cat   *Catalog
	table *Table
}

func newFixture(t *testing.T, items []string, defs []crafting.RecipeDef) fixture {
	t.Helper()
	cat, err := NewCatalog(items)
	require.NoError(t, err)
	table, err := Compile(cat, defs)
	require.NoError(t, err)
	return fixture{cat: cat, table: table}
}

func minecraftFixture(t *testing.T) fixture {
	t.Helper()
	return newFixture(t, minecraftItems, minecraftRecipes())
}

func plankFixture(t *testing.T) fixture {
	t.Helper()
	return newFixture(t, []string{"wood", "plank"}, []crafting.RecipeDef{
		{Name: "make plank", Consumes: map[string]int{"wood": 1}, Produces: map[string]int{"plank": 1}, Time: 1},
	})
}

func (f fixture) state(t *testing.T, m map[string]int) State {
	t.Helper()
	s, err := NewState(f.cat, m)
	require.NoError(t, err)
	return s
}

func (f fixture) goal(t *testing.T, m map[string]int) Goal {
	t.Helper()
	g, err := CompileGoal(f.cat, m)
	require.NoError(t, err)
	return g
}

// pruneConfig classifies the fixture's items the way the importer does.
func (f fixture) pruneConfig(defs []crafting.RecipeDef) PruneConfig {
	cfg := DefaultPruneConfig()
	for item, cat := range Classify(f.cat.Items(), defs) {
		switch cat {
		case crafting.CategoryTool:
			cfg.Tools = append(cfg.Tools, item)
		case crafting.CategoryResource:
			cfg.Resources = append(cfg.Resources, item)
		}
	}
	return cfg
}
