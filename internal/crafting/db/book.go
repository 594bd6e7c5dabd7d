package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rsned/craft-planner/pkg/crafting"
)

// ReplaceBook swaps the stored recipe book for p in one transaction: items,
// recipes and problems are cleared, the new catalog and recipes are
// inserted, p's own initial and goal are stored under p.Name, and the book
// revision is bumped. It returns the new revision.
func (db *DB) ReplaceBook(ctx context.Context, p *crafting.Problem, source string) (int64, error) {
	name := p.Name
	if name == "" {
		name = DefaultProblem
	}

	var rev int64
	err := db.InTransaction(ctx, func(tx *sql.Tx) error {
		// Problems and recipe parts cascade from these.
		for _, table := range []string{"problems", "recipes", "items"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
				return fmt.Errorf("clearing %s: %w", table, err)
			}
		}
		if err := insertItems(ctx, tx, p.Items); err != nil {
			return err
		}
		if err := insertRecipes(ctx, tx, p.Recipes); err != nil {
			return err
		}
		if err := saveProblem(ctx, tx, name, p.Initial, p.Goal); err != nil {
			return err
		}

		var err error
		if rev, err = bumpRevision(ctx, tx); err != nil {
			return err
		}
		if err := setSyncMetadata(ctx, tx, MetaBookSource, source); err != nil {
			return err
		}
		return setSyncMetadata(ctx, tx, MetaLastImport, time.Now().UTC().Format(time.RFC3339))
	})
	if err != nil {
		return 0, fmt.Errorf("replacing recipe book: %w", err)
	}
	return rev, nil
}
