package planner

import (
	"errors"
	"fmt"

	"github.com/rsned/craft-planner/pkg/crafting"
)

// ErrDuplicateRecipe is returned when two recipes share a name.
var ErrDuplicateRecipe = errors.New("duplicate recipe")

// Recipe is a compiled recipe. Item references are resolved to catalog
// indexes; the struct holds data only.
type Recipe struct {
	Name string
	Cost float64

	consumes []amount
	requires []int
	produces []amount
}

// ContractViolation is the panic value raised when a recipe is applied to a
// state that fails its applicability check.
type ContractViolation struct {
	Recipe string
	State  string
}

func (v ContractViolation) Error() string {
	return fmt.Sprintf("planner: recipe %q applied to %s where it is not applicable", v.Recipe, v.State)
}

// Applicable reports whether r can be applied to s: every consumed item is
// present in the declared amount and every required tool is held.
func Applicable(r *Recipe, s State) bool {
	for _, a := range r.consumes {
		if s.qty[a.index] < a.n {
			return false
		}
	}
	for _, i := range r.requires {
		if s.qty[i] <= 0 {
			return false
		}
	}
	return true
}

// Apply returns the state after applying r to s. Calling it on a state for
// which Applicable is false panics with a ContractViolation.
func Apply(r *Recipe, s State) State {
	if !Applicable(r, s) {
		panic(ContractViolation{Recipe: r.Name, State: s.String()})
	}
	return apply(r, s)
}

// apply is Apply without the check, for callers that just ran Applicable.
func apply(r *Recipe, s State) State {
	return s.withAmounts(r.consumes, r.produces)
}

// Consumes returns the consumed items and amounts.
func (r *Recipe) Consumes(cat *Catalog) map[string]int { return amountsMap(cat, r.consumes) }

// Produces returns the produced items and amounts.
func (r *Recipe) Produces(cat *Catalog) map[string]int { return amountsMap(cat, r.produces) }

// Requires returns the required tools.
func (r *Recipe) Requires(cat *Catalog) []string {
	out := make([]string, len(r.requires))
	for i, idx := range r.requires {
		out[i] = cat.Name(idx)
	}
	return out
}

func amountsMap(cat *Catalog, amts []amount) map[string]int {
	m := make(map[string]int, len(amts))
	for _, a := range amts {
		m[cat.Name(a.index)] = a.n
	}
	return m
}

// Table is the compiled recipe table. It is immutable once built and safe to
// share between searches.
type Table struct {
	catalog *Catalog
	recipes []*Recipe
	byName  map[string]*Recipe
}

// Compile resolves every recipe against the catalog. Any reference to an item
// outside the catalog fails here, never during a search.
func Compile(cat *Catalog, defs []crafting.RecipeDef) (*Table, error) {
	t := &Table{
		catalog: cat,
		recipes: make([]*Recipe, 0, len(defs)),
		byName:  make(map[string]*Recipe, len(defs)),
	}
	for _, d := range defs {
		r, err := compileRecipe(cat, d)
		if err != nil {
			return nil, fmt.Errorf("compiling recipe %q: %w", d.Name, err)
		}
		if _, dup := t.byName[r.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateRecipe, r.Name)
		}
		t.byName[r.Name] = r
		t.recipes = append(t.recipes, r)
	}
	return t, nil
}

func compileRecipe(cat *Catalog, d crafting.RecipeDef) (*Recipe, error) {
	if d.Name == "" {
		return nil, errors.New("recipe has no name")
	}
	if d.Time < 0 {
		return nil, fmt.Errorf("%w: cost %v", ErrInvalidAmount, d.Time)
	}
	consumes, err := cat.amounts(d.Consumes)
	if err != nil {
		return nil, fmt.Errorf("consumes: %w", err)
	}
	produces, err := cat.amounts(d.Produces)
	if err != nil {
		return nil, fmt.Errorf("produces: %w", err)
	}
	reqs, err := cat.amounts(d.Requires)
	if err != nil {
		return nil, fmt.Errorf("requires: %w", err)
	}
	requires := make([]int, len(reqs))
	for i, a := range reqs {
		requires[i] = a.index
	}
	return &Recipe{
		Name:     d.Name,
		Cost:     d.Time,
		consumes: consumes,
		requires: requires,
		produces: produces,
	}, nil
}

// Catalog returns the catalog the table was compiled against.
func (t *Table) Catalog() *Catalog { return t.catalog }

// Len returns the number of recipes.
func (t *Table) Len() int { return len(t.recipes) }

// Recipes returns the recipes in declaration order.
func (t *Table) Recipes() []*Recipe { return t.recipes }

// Recipe returns the recipe with the given name, or nil.
func (t *Table) Recipe(name string) *Recipe { return t.byName[name] }
