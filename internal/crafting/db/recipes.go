package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rsned/craft-planner/pkg/crafting"
)

// RecipeStore handles recipe data access.
type RecipeStore struct {
	db *DB
}

// NewRecipeStore creates a new RecipeStore.
func NewRecipeStore(db *DB) *RecipeStore {
	return &RecipeStore{db: db}
}

// recipeParts are the three item tables of a recipe.
var recipeParts = []string{"recipe_consumes", "recipe_requires", "recipe_produces"}

// GetRecipe retrieves a single recipe by name with all of its items.
func (s *RecipeStore) GetRecipe(ctx context.Context, name string) (*crafting.RecipeDef, error) {
	recipe := &crafting.RecipeDef{Name: name}

	err := s.db.QueryRowContext(ctx, `
		SELECT time_cost FROM recipes WHERE name = ?
	`, name).Scan(&recipe.Time)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying recipe: %w", err)
	}

	for i, table := range recipeParts {
		m, err := s.getRecipeItems(ctx, table, name)
		if err != nil {
			return nil, err
		}
		*part(recipe, i) = m
	}

	return recipe, nil
}

// part returns the item map of r stored in recipeParts[i].
func part(r *crafting.RecipeDef, i int) *map[string]int {
	switch i {
	case 0:
		return &r.Consumes
	case 1:
		return &r.Requires
	default:
		return &r.Produces
	}
}

// getRecipeItems reads one item table of a recipe.
func (s *RecipeStore) getRecipeItems(ctx context.Context, table, name string) (map[string]int, error) {
	// table is one of recipeParts, never user input.
	rows, err := s.db.QueryContext(ctx,
		`SELECT item_id, quantity FROM `+table+` WHERE recipe_name = ?`, name)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var out map[string]int
	for rows.Next() {
		var item string
		var qty int
		if err := rows.Scan(&item, &qty); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", table, err)
		}
		if out == nil {
			out = make(map[string]int)
		}
		out[item] = qty
	}

	return out, rows.Err()
}

// GetAllRecipes retrieves every recipe in declaration order.
func (s *RecipeStore) GetAllRecipes(ctx context.Context) ([]crafting.RecipeDef, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, time_cost FROM recipes ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying all recipes: %w", err)
	}

	var recipes []crafting.RecipeDef
	byName := make(map[string]int)
	for rows.Next() {
		var r crafting.RecipeDef
		if err := rows.Scan(&r.Name, &r.Time); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scanning recipe: %w", err)
		}
		byName[r.Name] = len(recipes)
		recipes = append(recipes, r)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// One query per part table rather than three per recipe.
	for i, table := range recipeParts {
		if err := s.loadParts(ctx, table, func(name, item string, qty int) {
			m := part(&recipes[byName[name]], i)
			if *m == nil {
				*m = make(map[string]int)
			}
			(*m)[item] = qty
		}); err != nil {
			return nil, err
		}
	}

	return recipes, nil
}

func (s *RecipeStore) loadParts(ctx context.Context, table string, fn func(name, item string, qty int)) error {
	rows, err := s.db.QueryContext(ctx, `SELECT recipe_name, item_id, quantity FROM `+table)
	if err != nil {
		return fmt.Errorf("loading %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var name, item string
		var qty int
		if err := rows.Scan(&name, &item, &qty); err != nil {
			return fmt.Errorf("scanning %s: %w", table, err)
		}
		fn(name, item, qty)
	}
	return rows.Err()
}

// SearchRecipes searches recipes by name (case-insensitive partial match).
func (s *RecipeStore) SearchRecipes(ctx context.Context, term string, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name
		FROM recipes
		WHERE name LIKE ?
		ORDER BY position
		LIMIT ?
	`, "%"+term+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("searching recipes: %w", err)
	}
	return scanNames(rows)
}

// FindRecipesByOutput returns the recipes that produce an item, with the
// quantity produced.
func (s *RecipeStore) FindRecipesByOutput(ctx context.Context, itemID string) ([]crafting.ItemUse, error) {
	return s.uses(ctx, "recipe_produces", itemID)
}

// FindRecipesConsuming returns the recipes that consume an item, with the
// quantity consumed.
func (s *RecipeStore) FindRecipesConsuming(ctx context.Context, itemID string) ([]crafting.ItemUse, error) {
	return s.uses(ctx, "recipe_consumes", itemID)
}

// FindRecipesRequiring returns the recipes that need an item as a tool.
func (s *RecipeStore) FindRecipesRequiring(ctx context.Context, itemID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.name
		FROM recipe_requires q JOIN recipes r ON r.name = q.recipe_name
		WHERE q.item_id = ?
		ORDER BY r.position
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("finding recipes requiring item: %w", err)
	}
	return scanNames(rows)
}

func (s *RecipeStore) uses(ctx context.Context, table, itemID string) ([]crafting.ItemUse, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.name, p.quantity, r.time_cost
		FROM `+table+` p JOIN recipes r ON r.name = p.recipe_name
		WHERE p.item_id = ?
		ORDER BY r.position
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("querying %s by item: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var out []crafting.ItemUse
	for rows.Next() {
		var u crafting.ItemUse
		if err := rows.Scan(&u.Recipe, &u.Quantity, &u.Time); err != nil {
			return nil, fmt.Errorf("scanning item use: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// GetRecipesUsingOutput finds recipes that consume or require any item the
// named recipe produces.
func (s *RecipeStore) GetRecipesUsingOutput(ctx context.Context, recipeName string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT r.name, r.position
		FROM recipe_produces p
		JOIN (
			SELECT recipe_name, item_id FROM recipe_consumes
			UNION
			SELECT recipe_name, item_id FROM recipe_requires
		) u ON u.item_id = p.item_id
		JOIN recipes r ON r.name = u.recipe_name
		WHERE p.recipe_name = ?
		ORDER BY r.position
	`, recipeName)
	if err != nil {
		return nil, fmt.Errorf("finding recipes using output: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		var pos int
		if err := rows.Scan(&name, &pos); err != nil {
			return nil, fmt.Errorf("scanning recipe name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// CountRecipes returns the total number of recipes.
func (s *RecipeStore) CountRecipes(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting recipes: %w", err)
	}
	return count, nil
}

func insertRecipes(ctx context.Context, tx *sql.Tx, recipes []crafting.RecipeDef) error {
	recipeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO recipes (name, position, time_cost) VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing recipe statement: %w", err)
	}
	defer func() { _ = recipeStmt.Close() }()

	partStmts := make([]*sql.Stmt, len(recipeParts))
	for i, table := range recipeParts {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO `+table+` (recipe_name, item_id, quantity) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("preparing %s statement: %w", table, err)
		}
		defer func() { _ = stmt.Close() }()
		partStmts[i] = stmt
	}

	for pos, r := range recipes {
		if _, err := recipeStmt.ExecContext(ctx, r.Name, pos, r.Time); err != nil {
			return fmt.Errorf("inserting recipe %s: %w", r.Name, err)
		}
		for i, m := range []map[string]int{r.Consumes, r.Requires, r.Produces} {
			for item, qty := range m {
				if _, err := partStmts[i].ExecContext(ctx, r.Name, item, qty); err != nil {
					return fmt.Errorf("inserting %s for %s: %w", recipeParts[i], r.Name, err)
				}
			}
		}
	}

	return nil
}

func scanNames(rows *sql.Rows) ([]string, error) {
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning recipe name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
