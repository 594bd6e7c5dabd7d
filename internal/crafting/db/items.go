package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rsned/craft-planner/pkg/crafting"
)

// ItemStore handles item catalog access.
type ItemStore struct {
	db *DB
}

// NewItemStore creates a new ItemStore.
func NewItemStore(db *DB) *ItemStore {
	return &ItemStore{db: db}
}

// ListItems returns the catalog in catalog order.
func (s *ItemStore) ListItems(ctx context.Context) ([]crafting.Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, category FROM items ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []crafting.Item
	for rows.Next() {
		var it crafting.Item
		if err := rows.Scan(&it.ID, &it.Category); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, it)
	}

	return items, rows.Err()
}

// GetItem returns a single item, or nil if the catalog does not have it.
func (s *ItemStore) GetItem(ctx context.Context, id string) (*crafting.Item, error) {
	it := &crafting.Item{ID: id}
	err := s.db.QueryRowContext(ctx, `SELECT category FROM items WHERE id = ?`, id).Scan(&it.Category)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying item: %w", err)
	}
	return it, nil
}

// CountItems returns the catalog size.
func (s *ItemStore) CountItems(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return count, nil
}

// SetCategory changes the category of an existing item.
func (s *ItemStore) SetCategory(ctx context.Context, id string, cat crafting.ItemCategory) error {
	if !cat.IsValid() {
		return fmt.Errorf("invalid category %q", cat)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE items SET category = ? WHERE id = ?`, string(cat), id)
	if err != nil {
		return fmt.Errorf("updating item %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("item %q not in catalog", id)
	}
	return nil
}

func insertItems(ctx context.Context, tx *sql.Tx, items []crafting.Item) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO items (id, category, position) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing item statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, it := range items {
		cat := it.Category
		if cat == "" {
			cat = crafting.CategoryMaterial
		}
		if _, err := stmt.ExecContext(ctx, it.ID, string(cat), i); err != nil {
			return fmt.Errorf("inserting item %s: %w", it.ID, err)
		}
	}
	return nil
}
