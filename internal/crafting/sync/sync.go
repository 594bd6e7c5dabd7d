// Package sync imports recipe books into the database.
package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/rsned/craft-planner/internal/crafting/db"
	"github.com/rsned/craft-planner/internal/crafting/planner"
	"github.com/rsned/craft-planner/pkg/crafting"
)

// MaxBookSize bounds the size of an imported recipe book file.
const MaxBookSize = 16 * 1024 * 1024

// Syncer handles recipe book imports.
type Syncer struct {
	db     *db.DB
	logger *slog.Logger
}

// NewSyncer creates a new Syncer.
func NewSyncer(database *db.DB, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{db: database, logger: logger}
}

// BookImport is the Crafting.json format: the item catalog, one starting
// inventory, one goal and the recipes keyed by name. Recipe declaration
// order is the key order of the Recipes object.
type BookImport struct {
	Items   []string       `json:"Items"`
	Initial map[string]int `json:"Initial"`
	Goal    map[string]int `json:"Goal"`
	Recipes recipeList     `json:"Recipes"`
}

// RecipeImport is one recipe of a book.
type RecipeImport struct {
	Produces map[string]int `json:"Produces"`
	Consumes map[string]int `json:"Consumes,omitempty"`
	Requires requirements   `json:"Requires,omitempty"`
	Time     float64        `json:"Time"`
}

// namedRecipe keeps a recipe with its key.
type namedRecipe struct {
	Name string
	RecipeImport
}

// recipeList decodes a JSON object of recipes into a slice, keeping key
// order.
type recipeList []namedRecipe

func (l *recipeList) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("recipes: expected object, got %v", tok)
	}

	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name := tok.(string)
		if seen[name] {
			return fmt.Errorf("recipes: %w: %q", planner.ErrDuplicateRecipe, name)
		}
		seen[name] = true

		var r RecipeImport
		if err := dec.Decode(&r); err != nil {
			return fmt.Errorf("recipe %q: %w", name, err)
		}
		*l = append(*l, namedRecipe{Name: name, RecipeImport: r})
	}
	_, err = dec.Token()
	return err
}

// requirements accepts both {"bench": true} and {"bench": 1}. A false or
// zero entry is not a requirement.
type requirements map[string]int

func (r *requirements) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(requirements, len(raw))
	for item, v := range raw {
		var b bool
		if err := json.Unmarshal(v, &b); err == nil {
			if b {
				out[item] = 1
			}
			continue
		}
		var n int
		if err := json.Unmarshal(v, &n); err != nil {
			return fmt.Errorf("requirement %q: want bool or integer, got %s", item, v)
		}
		if n > 0 {
			out[item] = n
		}
	}
	*r = out
	return nil
}

// ParseBook decodes a recipe book.
func ParseBook(r io.Reader) (*BookImport, error) {
	var b BookImport
	dec := json.NewDecoder(io.LimitReader(r, MaxBookSize))
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if len(b.Items) == 0 {
		return nil, errors.New("recipe book has no items")
	}
	return &b, nil
}

// Problem converts the import into a problem named name, deriving item
// categories from the recipes. The result is compiled once so that unknown
// items and bad amounts are reported before anything is stored.
func (b *BookImport) Problem(name string) (*crafting.Problem, error) {
	p := &crafting.Problem{
		Name:    name,
		Initial: b.Initial,
		Goal:    b.Goal,
	}
	for _, r := range b.Recipes {
		p.Recipes = append(p.Recipes, transformRecipe(r))
	}

	cats := planner.Classify(b.Items, p.Recipes)
	for _, id := range b.Items {
		p.Items = append(p.Items, crafting.Item{ID: id, Category: cats[id]})
	}

	if err := check(p); err != nil {
		return nil, err
	}
	return p, nil
}

func check(p *crafting.Problem) error {
	cat, err := planner.NewCatalog(p.ItemIDs())
	if err != nil {
		return err
	}
	if _, err := planner.Compile(cat, p.Recipes); err != nil {
		return err
	}
	if _, err := planner.NewState(cat, p.Initial); err != nil {
		return err
	}
	if _, err := planner.CompileGoal(cat, p.Goal); err != nil {
		return err
	}
	return nil
}

// transformRecipe converts import format to domain format.
func transformRecipe(r namedRecipe) crafting.RecipeDef {
	def := crafting.RecipeDef{
		Name:     r.Name,
		Consumes: r.Consumes,
		Produces: r.Produces,
		Time:     r.Time,
	}
	if len(r.Requires) > 0 {
		def.Requires = map[string]int(r.Requires)
	}
	return def
}

// ImportResult summarises an import.
type ImportResult struct {
	Revision int64
	Problem  string
	Items    int
	Recipes  int
}

// ImportBookFromFile replaces the stored recipe book with the one at path.
// The book's own initial inventory and goal are stored as problem name, or
// db.DefaultProblem when name is empty.
func (s *Syncer) ImportBookFromFile(ctx context.Context, path, name string) (*ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return s.ImportBook(ctx, f, path, name)
}

// ImportBook replaces the stored recipe book with the one read from r.
func (s *Syncer) ImportBook(ctx context.Context, r io.Reader, source, name string) (*ImportResult, error) {
	book, err := ParseBook(r)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = db.DefaultProblem
	}
	p, err := book.Problem(name)
	if err != nil {
		return nil, fmt.Errorf("checking recipe book %s: %w", source, err)
	}

	rev, err := s.db.ReplaceBook(ctx, p, source)
	if err != nil {
		return nil, err
	}

	res := &ImportResult{Revision: rev, Problem: name, Items: len(p.Items), Recipes: len(p.Recipes)}
	s.logger.Info("imported recipe book",
		"source", source,
		"revision", rev,
		"items", res.Items,
		"recipes", res.Recipes,
		"problem", name,
	)
	return res, nil
}

// SaveProblem stores an additional named problem against the current book,
// checking it against the stored catalog first.
func (s *Syncer) SaveProblem(ctx context.Context, name string, initial, goal map[string]int) error {
	items, err := db.NewItemStore(s.db).ListItems(ctx)
	if err != nil {
		return err
	}
	p := &crafting.Problem{Name: name, Items: items, Initial: initial, Goal: goal}
	if err := check(p); err != nil {
		return fmt.Errorf("checking problem %s: %w", name, err)
	}
	return db.NewProblemStore(s.db).SaveProblem(ctx, name, initial, goal)
}
