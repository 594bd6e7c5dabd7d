package engine

import (
	"context"
	"fmt"

	"github.com/rsned/craft-planner/internal/crafting/planner"
	"github.com/rsned/craft-planner/pkg/crafting"
)

// ItemUses executes the item_uses tool logic: every recipe that consumes,
// requires or produces an item, in declaration order.
func (e *Engine) ItemUses(ctx context.Context, req crafting.ItemUsesRequest) (*crafting.ItemUsesResponse, error) {
	item, err := e.items.GetItem(ctx, req.Item)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: %q", planner.ErrUnknownItem, req.Item)
	}

	resp := &crafting.ItemUsesResponse{
		Item:     item.ID,
		Category: e.cfg.Category(*item),
	}
	if resp.ConsumedBy, err = e.recipes.FindRecipesConsuming(ctx, item.ID); err != nil {
		return nil, err
	}
	if resp.RequiredBy, err = e.recipes.FindRecipesRequiring(ctx, item.ID); err != nil {
		return nil, err
	}
	if resp.ProducedBy, err = e.recipes.FindRecipesByOutput(ctx, item.ID); err != nil {
		return nil, err
	}

	// Always arrays in JSON output
	if resp.ConsumedBy == nil {
		resp.ConsumedBy = []crafting.ItemUse{}
	}
	if resp.RequiredBy == nil {
		resp.RequiredBy = []string{}
	}
	if resp.ProducedBy == nil {
		resp.ProducedBy = []crafting.ItemUse{}
	}

	resp.TotalUses = len(resp.ConsumedBy) + len(resp.RequiredBy)
	return resp, nil
}
