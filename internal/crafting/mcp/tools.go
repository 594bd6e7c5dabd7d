package mcp

import (
	"context"
	"encoding/json"

	"github.com/rsned/craft-planner/pkg/crafting"
)

// ToolDefinition describes an MCP tool.
type ToolDefinition struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	InputSchema JSONSchema `json:"inputSchema"`
}

// JSONSchema is a simplified JSON Schema representation.
type JSONSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes a schema property.
type Property struct {
	Type                 string              `json:"type,omitempty"`
	Description          string              `json:"description,omitempty"`
	Default              any                 `json:"default,omitempty"`
	Enum                 []string            `json:"enum,omitempty"`
	Minimum              *float64            `json:"minimum,omitempty"`
	Maximum              *float64            `json:"maximum,omitempty"`
	Items                *Property           `json:"items,omitempty"`
	Properties           map[string]Property `json:"properties,omitempty"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties *Property           `json:"additionalProperties,omitempty"`
}

// GetToolDefinitions returns all tool definitions.
func GetToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		planCraftTool(),
		applicableRecipesTool(),
		recipeLookupTool(),
		itemUsesTool(),
		goalDependenciesTool(),
	}
}

// inventoryProperty is an item -> quantity object.
func inventoryProperty(description string) Property {
	return Property{
		Type:                 "object",
		Description:          description,
		AdditionalProperties: &Property{Type: "integer"},
	}
}

func problemProperty() Property {
	return Property{
		Type:        "string",
		Description: "Name of a stored problem; defaults to the problem imported with the recipe book",
	}
}

func planCraftTool() ToolDefinition {
	minDeadline := 0.0

	return ToolDefinition{
		Name:        "plan_craft",
		Description: "Search for a sequence of recipes that turns the starting inventory into one that satisfies the goal. Returns every intermediate inventory, the total time cost and search diagnostics.",
		InputSchema: JSONSchema{
			Type: "object",
			Properties: map[string]Property{
				"problem": problemProperty(),
				"initial": inventoryProperty("Starting inventory (item -> quantity); replaces the stored problem's"),
				"goal":    inventoryProperty("Goal quantities (item -> minimum quantity); replaces the stored problem's"),
				"deadline_sec": {
					Type:        "number",
					Description: "Wall-clock search budget in seconds; 0 uses the configured deadline",
					Minimum:     &minDeadline,
				},
			},
		},
	}
}

func (s *Server) toolPlanCraft(ctx context.Context, args json.RawMessage) (any, error) {
	var req crafting.PlanRequest
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, err
	}
	return s.engine.Plan(ctx, req)
}

func applicableRecipesTool() ToolDefinition {
	minLimit := 1.0
	maxLimit := 500.0

	return ToolDefinition{
		Name:        "applicable_recipes",
		Description: "List the recipes that can run on an inventory, in declaration order, with the resulting inventory and whether the planner's pruning would keep it.",
		InputSchema: JSONSchema{
			Type: "object",
			Properties: map[string]Property{
				"inventory": inventoryProperty("Current inventory (item -> quantity)"),
				"problem":   problemProperty(),
				"limit": {
					Type:        "integer",
					Description: "Max recipes returned",
					Default:     50,
					Minimum:     &minLimit,
					Maximum:     &maxLimit,
				},
			},
			Required: []string{"inventory"},
		},
	}
}

func (s *Server) toolApplicableRecipes(ctx context.Context, args json.RawMessage) (any, error) {
	var req crafting.ApplicableRequest
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, err
	}
	return s.engine.Applicable(ctx, req)
}

func recipeLookupTool() ToolDefinition {
	return ToolDefinition{
		Name:        "recipe_lookup",
		Description: "Get a recipe by name, or search recipe names. Includes the recipes that use its outputs.",
		InputSchema: JSONSchema{
			Type: "object",
			Properties: map[string]Property{
				"name": {
					Type:        "string",
					Description: "Exact recipe name",
				},
				"search": {
					Type:        "string",
					Description: "Search term for recipe names (partial match)",
				},
			},
		},
	}
}

func (s *Server) toolRecipeLookup(ctx context.Context, args json.RawMessage) (any, error) {
	var req crafting.RecipeLookupRequest
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, err
	}
	return s.engine.RecipeLookup(ctx, req)
}

func itemUsesTool() ToolDefinition {
	return ToolDefinition{
		Name:        "item_uses",
		Description: "Find every recipe that consumes, requires or produces an item.",
		InputSchema: JSONSchema{
			Type: "object",
			Properties: map[string]Property{
				"item": {
					Type:        "string",
					Description: "Item to look up",
				},
			},
			Required: []string{"item"},
		},
	}
}

func (s *Server) toolItemUses(ctx context.Context, args json.RawMessage) (any, error) {
	var req crafting.ItemUsesRequest
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, err
	}
	return s.engine.ItemUses(ctx, req)
}

func goalDependenciesTool() ToolDefinition {
	return ToolDefinition{
		Name:        "goal_dependencies",
		Description: "Explain a goal: item ranks in the dependency tree, the tools involved, pruning ceilings and one recipe per item that builds the goal from nothing, deepest dependencies first.",
		InputSchema: JSONSchema{
			Type: "object",
			Properties: map[string]Property{
				"problem": problemProperty(),
				"goal":    inventoryProperty("Goal quantities; replaces the stored problem's"),
			},
		},
	}
}

func (s *Server) toolGoalDependencies(ctx context.Context, args json.RawMessage) (any, error) {
	var req crafting.GoalDependenciesRequest
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, err
	}
	return s.engine.GoalDependencies(ctx, req)
}
