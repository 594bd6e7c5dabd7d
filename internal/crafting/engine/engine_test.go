package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsned/craft-planner/internal/crafting/config"
	"github.com/rsned/craft-planner/internal/crafting/db"
	"github.com/rsned/craft-planner/internal/crafting/planner"
	"github.com/rsned/craft-planner/internal/crafting/sync"
	"github.com/rsned/craft-planner/pkg/crafting"
)

const minecraftBook = "../sync/testdata/crafting.json"

func newTestEngine(t *testing.T, cfg *config.Config) (*Engine, *db.DB) {
	t.Helper()
	database, err := db.OpenAndInit(context.Background(), db.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	e, err := New(database, cfg, nil)
	require.NoError(t, err)
	e.newRunID = func() string { return "run-1" }
	return e, database
}

func importMinecraft(t *testing.T, database *db.DB) {
	t.Helper()
	_, err := sync.NewSyncer(database, nil).ImportBookFromFile(context.Background(), minecraftBook, "")
	require.NoError(t, err)
}

func TestEngine_NoBook(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	_, err := e.Plan(context.Background(), crafting.PlanRequest{})
	assert.ErrorIs(t, err, ErrNoBook)
}

func TestEngine_BookCacheFollowsRevision(t *testing.T) {
	ctx := context.Background()
	e, database := newTestEngine(t, nil)
	importMinecraft(t, database)

	b1, err := e.loadBook(ctx)
	require.NoError(t, err)
	again, err := e.loadBook(ctx)
	require.NoError(t, err)
	assert.Same(t, b1, again)

	importMinecraft(t, database)
	b2, err := e.loadBook(ctx)
	require.NoError(t, err)
	assert.NotSame(t, b1, b2)
	assert.Equal(t, b1.revision+1, b2.revision)
	assert.Equal(t, 25, b2.table.Len())
}

func TestPlan_InlineGoal(t *testing.T) {
	e, database := newTestEngine(t, nil)
	importMinecraft(t, database)

	resp, err := e.Plan(context.Background(), crafting.PlanRequest{
		Goal: map[string]int{"bench": 1},
	})
	require.NoError(t, err)
	require.True(t, resp.Solved, resp.Failure)

	assert.Equal(t, InlineProblem, resp.Problem)
	assert.Equal(t, "run-1", resp.Diagnostics.RunID)
	assert.Equal(t, "solved", resp.Diagnostics.Status)

	require.NotEmpty(t, resp.Steps)
	assert.Equal(t, planner.ActionStart, resp.Steps[0].Action)
	assert.Empty(t, resp.Steps[0].Inventory)
	last := resp.Steps[len(resp.Steps)-1]
	assert.GreaterOrEqual(t, last.Inventory["bench"], 1)
	assert.Equal(t, resp.TotalCost, last.Cost)
	for i, s := range resp.Steps {
		assert.Equal(t, i, s.StepNumber)
	}
}

func TestPlan_StoredProblem(t *testing.T) {
	e, database := newTestEngine(t, nil)
	importMinecraft(t, database)

	resp, err := e.Plan(context.Background(), crafting.PlanRequest{})
	require.NoError(t, err)
	require.True(t, resp.Solved, resp.Failure)

	assert.Equal(t, db.DefaultProblem, resp.Problem)
	assert.GreaterOrEqual(t, resp.Steps[len(resp.Steps)-1].Inventory["stone_pickaxe"], 1)
	assert.Equal(t, len(resp.Steps), resp.Diagnostics.PathLength)
}

func TestPlan_InitialOverride(t *testing.T) {
	e, database := newTestEngine(t, nil)
	importMinecraft(t, database)

	resp, err := e.Plan(context.Background(), crafting.PlanRequest{
		Problem: db.DefaultProblem,
		Initial: map[string]int{"stone_pickaxe": 1},
	})
	require.NoError(t, err)
	require.True(t, resp.Solved)
	require.Len(t, resp.Steps, 1, "start already satisfies the goal")
	assert.Equal(t, 0.0, resp.TotalCost)
}

func TestPlan_Errors(t *testing.T) {
	e, database := newTestEngine(t, nil)
	importMinecraft(t, database)
	ctx := context.Background()

	_, err := e.Plan(ctx, crafting.PlanRequest{Problem: "missing"})
	assert.ErrorIs(t, err, db.ErrProblemNotFound)

	_, err = e.Plan(ctx, crafting.PlanRequest{Goal: map[string]int{"diamond": 1}})
	assert.ErrorIs(t, err, planner.ErrUnknownItem)

	_, err = e.Plan(ctx, crafting.PlanRequest{
		Initial: map[string]int{"wood": -1},
		Goal:    map[string]int{"plank": 1},
	})
	assert.ErrorIs(t, err, planner.ErrInvalidAmount)
}

func TestPlan_ExhaustedIsNotAnError(t *testing.T) {
	e, database := newTestEngine(t, nil)
	_, err := sync.NewSyncer(database, nil).ImportBook(context.Background(), strings.NewReader(`{
		"Items": ["wood", "gold"],
		"Initial": {},
		"Goal": {"gold": 1},
		"Recipes": {"punch for wood": {"Produces": {"wood": 1}, "Time": 4}}
	}`), "inline", "")
	require.NoError(t, err)

	resp, err := e.Plan(context.Background(), crafting.PlanRequest{})
	require.NoError(t, err)
	assert.False(t, resp.Solved)
	assert.Empty(t, resp.Steps)
	assert.Equal(t, "exhausted", resp.Diagnostics.Status)
	assert.Contains(t, resp.Failure, "exhausted")
	assert.Positive(t, resp.Diagnostics.Pruned, "wood stops at the global cap")
}

func TestPlan_Canceled(t *testing.T) {
	e, database := newTestEngine(t, nil)
	importMinecraft(t, database)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Plan(ctx, crafting.PlanRequest{Goal: map[string]int{"bench": 1}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestApplicable(t *testing.T) {
	e, database := newTestEngine(t, nil)
	importMinecraft(t, database)
	ctx := context.Background()

	resp, err := e.Applicable(ctx, crafting.ApplicableRequest{
		Inventory: map[string]int{"wood": 1, "plank": 4},
	})
	require.NoError(t, err)

	var names []string
	var accepted []bool
	for _, a := range resp.Applicable {
		names = append(names, a.Recipe.Name)
		accepted = append(accepted, a.Accepted)
	}
	assert.Equal(t, []string{"punch for wood", "craft plank", "craft stick", "craft bench"}, names)
	assert.Equal(t, []bool{true, false, true, true}, accepted, "eight planks is above the plank ceiling")
	assert.Equal(t, map[string]int{"wood": 2, "plank": 4}, resp.Applicable[0].Resulting)
	assert.Equal(t, map[string]int{"wood": 1, "bench": 1}, resp.Applicable[3].Resulting)
	assert.Equal(t, 25, resp.QueryStats.TotalRecipesChecked)
	assert.Equal(t, 2, resp.QueryStats.ItemsProvided)

	resp, err = e.Applicable(ctx, crafting.ApplicableRequest{
		Inventory: map[string]int{"wood": 1, "plank": 4},
		Limit:     2,
	})
	require.NoError(t, err)
	assert.Len(t, resp.Applicable, 2)
}

func TestApplicable_PruningFlag(t *testing.T) {
	e, database := newTestEngine(t, nil)
	importMinecraft(t, database)

	resp, err := e.Applicable(context.Background(), crafting.ApplicableRequest{
		Inventory: map[string]int{"bench": 1, "plank": 10},
	})
	require.NoError(t, err)

	accepted := make(map[string]bool)
	for _, a := range resp.Applicable {
		accepted[a.Recipe.Name] = a.Accepted
	}
	assert.False(t, accepted["craft bench"], "a second bench is never kept")
	assert.True(t, accepted["craft stick"])
	assert.True(t, accepted["punch for wood"])
}

func TestRecipeLookup(t *testing.T) {
	e, database := newTestEngine(t, nil)
	importMinecraft(t, database)
	ctx := context.Background()

	resp, err := e.RecipeLookup(ctx, crafting.RecipeLookupRequest{Search: "furnace"})
	require.NoError(t, err)
	assert.Equal(t, []string{"craft furnace at bench", "smelt ore in furnace"}, resp.SearchResults)
	assert.Nil(t, resp.Recipe)

	resp, err = e.RecipeLookup(ctx, crafting.RecipeLookupRequest{Search: "craft plank"})
	require.NoError(t, err)
	require.NotNil(t, resp.Recipe, "a single hit is selected")
	assert.Equal(t, map[string]int{"plank": 4}, resp.Recipe.Produces)
	assert.Equal(t, []string{"craft stick", "craft bench", "craft wooden_pickaxe at bench", "craft wooden_axe at bench"}, resp.UsedInRecipes)

	resp, err = e.RecipeLookup(ctx, crafting.RecipeLookupRequest{Name: "craft bench"})
	require.NoError(t, err)
	require.NotNil(t, resp.Recipe)
	assert.Len(t, resp.UsedInRecipes, 9, "every recipe that needs a bench")

	resp, err = e.RecipeLookup(ctx, crafting.RecipeLookupRequest{Name: "craft diamond"})
	require.NoError(t, err)
	assert.Nil(t, resp.Recipe)
}

func TestItemUses(t *testing.T) {
	e, database := newTestEngine(t, nil)
	importMinecraft(t, database)
	ctx := context.Background()

	resp, err := e.ItemUses(ctx, crafting.ItemUsesRequest{Item: "stick"})
	require.NoError(t, err)
	assert.Equal(t, crafting.CategoryMaterial, resp.Category)
	assert.Len(t, resp.ConsumedBy, 7)
	assert.Equal(t, crafting.ItemUse{Recipe: "craft wooden_pickaxe at bench", Quantity: 2, Time: 1}, resp.ConsumedBy[0])
	assert.Empty(t, resp.RequiredBy)
	assert.NotNil(t, resp.RequiredBy)
	assert.Equal(t, []crafting.ItemUse{{Recipe: "craft stick", Quantity: 4, Time: 1}}, resp.ProducedBy)
	assert.Equal(t, 7, resp.TotalUses)

	resp, err = e.ItemUses(ctx, crafting.ItemUsesRequest{Item: "stone_pickaxe"})
	require.NoError(t, err)
	assert.Equal(t, crafting.CategoryTool, resp.Category)
	assert.Equal(t, []string{"stone_pickaxe for cobble", "stone_pickaxe for coal", "stone_pickaxe for ore"}, resp.RequiredBy)
	assert.Empty(t, resp.ConsumedBy)

	_, err = e.ItemUses(ctx, crafting.ItemUsesRequest{Item: "diamond"})
	assert.ErrorIs(t, err, planner.ErrUnknownItem)
}

func TestItemUses_CategoryOverride(t *testing.T) {
	cfg, err := config.Parse([]byte(`
search:
  categories:
    stick: resource
`))
	require.NoError(t, err)
	e, database := newTestEngine(t, cfg)
	importMinecraft(t, database)

	resp, err := e.ItemUses(context.Background(), crafting.ItemUsesRequest{Item: "stick"})
	require.NoError(t, err)
	assert.Equal(t, crafting.CategoryResource, resp.Category)
}

func TestGoalDependencies(t *testing.T) {
	e, database := newTestEngine(t, nil)
	importMinecraft(t, database)

	resp, err := e.GoalDependencies(context.Background(), crafting.GoalDependenciesRequest{})
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"stone_pickaxe": 1}, resp.Goal)
	assert.Contains(t, resp.Tools, "bench")
	assert.Contains(t, resp.Tools, "wooden_pickaxe")
	assert.Contains(t, resp.Priorities, crafting.ItemPriority{ItemID: "stick", Rank: 2})
	assert.Contains(t, resp.ItemCeilings, crafting.ItemCeiling{ItemID: "plank", Ceiling: 7, Derived: true})

	var order []string
	for i, step := range resp.BuildOrder {
		assert.Equal(t, i+1, step.StepNumber)
		order = append(order, step.ItemID+": "+step.Recipe)
	}
	assert.Equal(t, []string{
		"wood: punch for wood",
		"plank: craft plank",
		"bench: craft bench",
		"stick: craft stick",
		"wooden_pickaxe: craft wooden_pickaxe at bench",
		"cobble: wooden_pickaxe for cobble",
		"stone_pickaxe: craft stone_pickaxe at bench",
	}, order)
	assert.Empty(t, resp.Unresolved)
}

func TestChooseProducers_Unresolved(t *testing.T) {
	defs := []crafting.RecipeDef{
		{Name: "egg from chicken", Produces: map[string]int{"egg": 1}, Consumes: map[string]int{"chicken": 1}, Time: 1},
		{Name: "chicken from egg", Produces: map[string]int{"chicken": 1}, Consumes: map[string]int{"egg": 1}, Time: 1},
		{Name: "gather", Produces: map[string]int{"grain": 1}, Time: 1},
	}
	chosen, unresolved := chooseProducers(defs, []string{"egg", "grain"})
	assert.Equal(t, []string{"egg"}, unresolved)
	assert.Len(t, chosen, 1)
	assert.Equal(t, "gather", chosen["grain"].Name)
}

func TestChooseProducers_Preference(t *testing.T) {
	defs := []crafting.RecipeDef{
		{Name: "slow", Produces: map[string]int{"x": 4}, Time: 3},
		{Name: "b small", Produces: map[string]int{"x": 1}, Time: 1},
		{Name: "a big", Produces: map[string]int{"x": 2}, Time: 1},
		{Name: "c big", Produces: map[string]int{"x": 2}, Time: 1},
	}
	chosen, unresolved := chooseProducers(defs, []string{"x"})
	assert.Empty(t, unresolved)
	assert.Equal(t, "a big", chosen["x"].Name)
}
