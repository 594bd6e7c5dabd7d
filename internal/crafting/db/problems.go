package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rsned/craft-planner/pkg/crafting"
)

// DefaultProblem is the name an imported book's own problem is stored under.
const DefaultProblem = "default"

// ErrProblemNotFound is returned for a problem name that is not stored.
var ErrProblemNotFound = errors.New("problem not found")

// ProblemStore handles named planning problems.
type ProblemStore struct {
	db *DB
}

// NewProblemStore creates a new ProblemStore.
func NewProblemStore(db *DB) *ProblemStore {
	return &ProblemStore{db: db}
}

// SaveProblem stores the initial and goal inventories under name, replacing
// any problem of that name.
func (s *ProblemStore) SaveProblem(ctx context.Context, name string, initial, goal map[string]int) error {
	return s.db.InTransaction(ctx, func(tx *sql.Tx) error {
		return saveProblem(ctx, tx, name, initial, goal)
	})
}

func saveProblem(ctx context.Context, tx *sql.Tx, name string, initial, goal map[string]int) error {
	if name == "" {
		return errors.New("problem name is empty")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM problems WHERE name = ?`, name); err != nil {
		return fmt.Errorf("replacing problem %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO problems (name) VALUES (?)`, name); err != nil {
		return fmt.Errorf("inserting problem %s: %w", name, err)
	}

	for table, inv := range map[string]map[string]int{"problem_initial": initial, "problem_goal": goal} {
		for item, qty := range inv {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO `+table+` (problem_name, item_id, quantity) VALUES (?, ?, ?)`,
				name, item, qty)
			if err != nil {
				return fmt.Errorf("inserting %s item %s for %s: %w", table, item, name, err)
			}
		}
	}
	return nil
}

// GetProblem returns the stored problem with its Initial and Goal filled.
// Items and Recipes are left to the caller, which owns the recipe book.
func (s *ProblemStore) GetProblem(ctx context.Context, name string) (*crafting.Problem, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM problems WHERE name = ?`, name).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrProblemNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("querying problem: %w", err)
	}

	p := &crafting.Problem{Name: name}
	if p.Initial, err = s.inventory(ctx, "problem_initial", name); err != nil {
		return nil, err
	}
	if p.Goal, err = s.inventory(ctx, "problem_goal", name); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProblemStore) inventory(ctx context.Context, table, name string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT item_id, quantity FROM `+table+` WHERE problem_name = ?`, name)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	inv := make(map[string]int)
	for rows.Next() {
		var item string
		var qty int
		if err := rows.Scan(&item, &qty); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", table, err)
		}
		inv[item] = qty
	}
	return inv, rows.Err()
}

// ListProblems returns the stored problem names in alphabetical order.
func (s *ProblemStore) ListProblems(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM problems ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing problems: %w", err)
	}
	return scanNames(rows)
}

// DeleteProblem removes a problem. Deleting a missing problem is not an
// error.
func (s *ProblemStore) DeleteProblem(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM problems WHERE name = ?`, name); err != nil {
		return fmt.Errorf("deleting problem %s: %w", name, err)
	}
	return nil
}
