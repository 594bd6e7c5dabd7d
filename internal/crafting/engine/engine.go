// Package engine contains the crafting planner business logic: it loads the
// stored recipe book, compiles it once per revision and answers the tool
// queries.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rsned/craft-planner/internal/crafting/config"
	"github.com/rsned/craft-planner/internal/crafting/db"
	"github.com/rsned/craft-planner/internal/crafting/planner"
	"github.com/rsned/craft-planner/pkg/crafting"
)

// ErrNoBook is returned before any recipe book has been imported.
var ErrNoBook = errors.New("no recipe book imported")

// bookCacheSize is the number of compiled book revisions kept.
const bookCacheSize = 4

var bookCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "craft_planner_book_cache_lookups_total",
	Help: "Compiled recipe book cache lookups by result",
}, []string{"result"})

// Engine is the main query engine for planner operations.
type Engine struct {
	db       *db.DB
	items    *db.ItemStore
	recipes  *db.RecipeStore
	problems *db.ProblemStore

	cfg    *config.Config
	logger *slog.Logger
	books  *lru.Cache[int64, *book]

	// newRunID tags each search; tests replace it.
	newRunID func() string
}

// book is one compiled revision of the stored recipe book. It is immutable
// and shared between concurrent queries.
type book struct {
	revision int64
	items    []crafting.Item
	defs     []crafting.RecipeDef
	catalog  *planner.Catalog
	table    *planner.Table
}

// New creates a new Engine over the database. A nil cfg uses the embedded
// defaults.
func New(database *db.DB, cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	if cfg == nil {
		var err error
		if cfg, err = config.Default(); err != nil {
			return nil, err
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	books, err := lru.New[int64, *book](bookCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating book cache: %w", err)
	}
	return &Engine{
		db:       database,
		items:    db.NewItemStore(database),
		recipes:  db.NewRecipeStore(database),
		problems: db.NewProblemStore(database),
		cfg:      cfg,
		logger:   logger,
		books:    books,
		newRunID: func() string { return uuid.NewString() },
	}, nil
}

// loadBook returns the compiled current revision of the recipe book.
func (e *Engine) loadBook(ctx context.Context) (*book, error) {
	rev, err := e.db.Revision(ctx)
	if err != nil {
		return nil, err
	}
	if rev == 0 {
		return nil, ErrNoBook
	}
	if b, ok := e.books.Get(rev); ok {
		bookCacheLookups.WithLabelValues("hit").Inc()
		return b, nil
	}
	bookCacheLookups.WithLabelValues("miss").Inc()

	items, err := e.items.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	defs, err := e.recipes.GetAllRecipes(ctx)
	if err != nil {
		return nil, err
	}

	b := &book{revision: rev, items: items, defs: defs}
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	if b.catalog, err = planner.NewCatalog(ids); err != nil {
		return nil, fmt.Errorf("compiling book revision %d: %w", rev, err)
	}
	if b.table, err = planner.Compile(b.catalog, defs); err != nil {
		return nil, fmt.Errorf("compiling book revision %d: %w", rev, err)
	}

	e.books.Add(rev, b)
	e.logger.Debug("compiled recipe book", "revision", rev, "items", len(items), "recipes", len(defs))
	return b, nil
}

// InlineProblem names a problem given entirely in a request.
const InlineProblem = "inline"

// resolveProblem returns the initial inventory and goal to plan for. A
// request with a goal and no problem name is planned as given; otherwise the
// named stored problem, or db.DefaultProblem, is loaded and any initial or
// goal in the request replaces the stored one.
func (e *Engine) resolveProblem(ctx context.Context, name string, initial, goal map[string]int) (string, map[string]int, map[string]int, error) {
	if name == "" && len(goal) > 0 {
		return InlineProblem, initial, goal, nil
	}
	if name == "" {
		name = db.DefaultProblem
	}
	p, err := e.problems.GetProblem(ctx, name)
	if err != nil {
		return "", nil, nil, err
	}
	if initial != nil {
		p.Initial = initial
	}
	if len(goal) > 0 {
		p.Goal = goal
	}
	return name, p.Initial, p.Goal, nil
}

// plannerSetup is everything a search needs besides the start state.
type plannerSetup struct {
	goal      planner.Goal
	prio      *planner.Priorities
	pruner    *planner.Pruner
	heuristic *planner.Heuristic
}

func (e *Engine) setup(b *book, goal map[string]int) (*plannerSetup, error) {
	g, err := planner.CompileGoal(b.catalog, goal)
	if err != nil {
		return nil, err
	}
	s := &plannerSetup{goal: g}
	s.prio = planner.BuildPriorities(b.table, g)
	s.pruner = planner.NewPruner(b.table, g, e.cfg.PruneConfig(b.items))
	if s.heuristic, err = planner.NewHeuristic(b.table, g, s.prio, e.cfg.HeuristicConfig()); err != nil {
		return nil, fmt.Errorf("building heuristic: %w", err)
	}
	return s, nil
}

// defOf returns the stored definition of a compiled recipe.
func (b *book) defOf(name string) crafting.RecipeDef {
	i := slices.IndexFunc(b.defs, func(d crafting.RecipeDef) bool { return d.Name == name })
	return b.defs[i]
}

// sortedKeys returns the keys of m in order.
func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
