// Package crafting contains the core types for the crafting planner.
package crafting

// ============================================
// INPUT TYPES
// ============================================

// RecipeDef is a recipe as declared in a recipe book. Consumes and Requires
// may be empty. Requires is a presence test only: the amount is ignored.
type RecipeDef struct {
	Name     string         `json:"name"`
	Consumes map[string]int `json:"consumes,omitempty"`
	Requires map[string]int `json:"requires,omitempty"`
	Produces map[string]int `json:"produces"`
	Time     float64        `json:"time"`
}

// ItemCategory classifies catalog items for pruning.
type ItemCategory string

const (
	CategoryResource ItemCategory = "resource"
	CategoryMaterial ItemCategory = "material"
	CategoryTool     ItemCategory = "tool"
)

// ValidCategories returns all valid item categories.
func ValidCategories() []ItemCategory {
	return []ItemCategory{
		CategoryResource,
		CategoryMaterial,
		CategoryTool,
	}
}

// IsValid checks if the category is a known valid category.
func (c ItemCategory) IsValid() bool {
	for _, valid := range ValidCategories() {
		if c == valid {
			return true
		}
	}
	return false
}

// Item is one entry of the item catalog.
type Item struct {
	ID       string       `json:"id"`
	Category ItemCategory `json:"category"`
}

// Problem is a complete planning input: the catalog, the recipes in
// declaration order, the starting inventory and the goal.
type Problem struct {
	Name    string         `json:"name"`
	Items   []Item         `json:"items"`
	Recipes []RecipeDef    `json:"recipes"`
	Initial map[string]int `json:"initial"`
	Goal    map[string]int `json:"goal"`
}

// ItemIDs returns the catalog item identifiers in catalog order.
func (p *Problem) ItemIDs() []string {
	ids := make([]string, len(p.Items))
	for i, it := range p.Items {
		ids[i] = it.ID
	}
	return ids
}

// ItemsIn returns the identifiers of the items in the given category.
func (p *Problem) ItemsIn(cat ItemCategory) []string {
	var ids []string
	for _, it := range p.Items {
		if it.Category == cat {
			ids = append(ids, it.ID)
		}
	}
	return ids
}

// ============================================
// PLAN TYPES
// ============================================

// PlanStep is one state along a plan together with the action that
// produced it. The first step carries the start sentinel.
type PlanStep struct {
	StepNumber int            `json:"step_number"`
	Action     string         `json:"action"`
	Cost       float64        `json:"cost"`
	Inventory  map[string]int `json:"inventory"`
}

// SearchDiagnostics are the per-run counters of one search.
type SearchDiagnostics struct {
	RunID        string  `json:"run_id,omitempty"`
	Status       string  `json:"status"`
	ElapsedMs    int64   `json:"elapsed_ms"`
	Expanded     int     `json:"states_expanded"`
	Generated    int     `json:"states_generated"`
	Pruned       int     `json:"states_pruned"`
	Stale        int     `json:"stale_entries"`
	FrontierPeak int     `json:"frontier_peak"`
	PathLength   int     `json:"path_length"`
	PathCost     float64 `json:"path_cost"`
}

// ============================================
// TOOL REQUEST/RESPONSE TYPES
// ============================================

// PlanRequest is the input for the plan_craft tool. When Initial or Goal is
// set it replaces the stored problem's value.
type PlanRequest struct {
	Problem     string         `json:"problem,omitempty"`
	Initial     map[string]int `json:"initial,omitempty"`
	Goal        map[string]int `json:"goal,omitempty"`
	DeadlineSec float64        `json:"deadline_sec,omitempty"`
}

// PlanResponse is the output for the plan_craft tool.
type PlanResponse struct {
	Problem     string            `json:"problem"`
	Solved      bool              `json:"solved"`
	Steps       []PlanStep        `json:"steps,omitempty"`
	TotalCost   float64           `json:"total_cost"`
	Failure     string            `json:"failure,omitempty"`
	Diagnostics SearchDiagnostics `json:"diagnostics"`
}

// ApplicableRequest is the input for the applicable_recipes tool. The goal
// of Problem decides which successors pruning would accept.
type ApplicableRequest struct {
	Inventory map[string]int `json:"inventory"`
	Problem   string         `json:"problem,omitempty"`
	Limit     int            `json:"limit,omitempty"`
}

// ApplicableRecipe is a recipe that can be applied to an inventory.
type ApplicableRecipe struct {
	Recipe    RecipeDef      `json:"recipe"`
	Resulting map[string]int `json:"resulting_inventory"`
	Accepted  bool           `json:"accepted_by_pruning"`
}

// ApplicableResponse is the output for the applicable_recipes tool.
type ApplicableResponse struct {
	Applicable []ApplicableRecipe `json:"applicable"`
	QueryStats QueryStats         `json:"query_stats"`
}

// QueryStats contains metadata about a query execution.
type QueryStats struct {
	TotalRecipesChecked int   `json:"total_recipes_checked"`
	ItemsProvided       int   `json:"items_provided"`
	ProcessingTimeMs    int64 `json:"processing_time_ms"`
}

// RecipeLookupRequest is the input for the recipe_lookup tool.
type RecipeLookupRequest struct {
	Name   string `json:"name,omitempty"`
	Search string `json:"search,omitempty"`
}

// RecipeLookupResponse is the output for the recipe_lookup tool.
type RecipeLookupResponse struct {
	Recipe        *RecipeDef `json:"recipe,omitempty"`
	UsedInRecipes []string   `json:"used_in_recipes,omitempty"`
	SearchResults []string   `json:"search_results,omitempty"`
}

// ItemUsesRequest is the input for the item_uses tool.
type ItemUsesRequest struct {
	Item string `json:"item"`
}

// ItemUsesResponse is the output for the item_uses tool.
type ItemUsesResponse struct {
	Item       string       `json:"item"`
	Category   ItemCategory `json:"category,omitempty"`
	ConsumedBy []ItemUse    `json:"consumed_by"`
	RequiredBy []string     `json:"required_by"`
	ProducedBy []ItemUse    `json:"produced_by"`
	TotalUses  int          `json:"total_uses"`
}

// ItemUse describes how much of an item one recipe moves.
type ItemUse struct {
	Recipe   string  `json:"recipe"`
	Quantity int     `json:"quantity"`
	Time     float64 `json:"time"`
}

// GoalDependenciesRequest is the input for the goal_dependencies tool.
type GoalDependenciesRequest struct {
	Problem string         `json:"problem,omitempty"`
	Goal    map[string]int `json:"goal,omitempty"`
}

// GoalDependenciesResponse is the output for the goal_dependencies tool.
type GoalDependenciesResponse struct {
	Goal         map[string]int `json:"goal"`
	Priorities   []ItemPriority `json:"priorities"`
	ItemCeilings []ItemCeiling  `json:"item_ceilings"`
	Tools        []string       `json:"tools"`
	BuildOrder   []BuildStep    `json:"build_order"`
	Unresolved   []string       `json:"unresolved,omitempty"`
}

// BuildStep names the recipe chosen to make an item when bootstrapping a
// goal from nothing. Steps are ordered deepest dependency first.
type BuildStep struct {
	StepNumber int    `json:"step_number"`
	ItemID     string `json:"item_id"`
	Recipe     string `json:"recipe"`
}

// ItemPriority is an item's distance from the goal in the recipe
// dependency tree. Tools carry IsTool and a fixed rank.
type ItemPriority struct {
	ItemID string `json:"item_id"`
	Rank   int    `json:"rank"`
	IsTool bool   `json:"is_tool,omitempty"`
}

// ItemCeiling is the most of an item a plan may hold.
type ItemCeiling struct {
	ItemID  string `json:"item_id"`
	Ceiling int    `json:"ceiling"`
	Derived bool   `json:"derived"`
}
