package engine

import (
	"context"

	"github.com/rsned/craft-planner/pkg/crafting"
)

// RecipeLookup executes the recipe_lookup tool logic.
func (e *Engine) RecipeLookup(ctx context.Context, req crafting.RecipeLookupRequest) (*crafting.RecipeLookupResponse, error) {
	resp := &crafting.RecipeLookupResponse{}

	// If search term provided, search first
	if req.Search != "" {
		hits, err := e.recipes.SearchRecipes(ctx, req.Search, 10)
		if err != nil {
			return nil, err
		}
		resp.SearchResults = hits

		// A single hit is looked up as if it had been named.
		if len(hits) == 1 && req.Name == "" {
			req.Name = hits[0]
		}
	}

	if req.Name == "" {
		return resp, nil
	}

	recipe, err := e.recipes.GetRecipe(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if recipe == nil {
		return resp, nil
	}
	resp.Recipe = recipe

	usedIn, err := e.recipes.GetRecipesUsingOutput(ctx, recipe.Name)
	if err != nil {
		return nil, err
	}
	resp.UsedInRecipes = usedIn

	return resp, nil
}
