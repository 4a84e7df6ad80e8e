package storage

import (
	"context"

	"budget/internal/core"
)

const categoryColumns = `id, owner_id, name, budget_limit_cents, color, created_at, updated_at`

func scanCategory(s scanner) (core.Category, error) {
	var (
		c                core.Category
		created, updated string
	)
	if err := s.Scan(&c.ID, &c.OwnerID, &c.Name, &c.BudgetLimit.Cents, &c.Color, &created, &updated); err != nil {
		return core.Category{}, err
	}
	c.CreatedAt = parseTime(created)
	c.UpdatedAt = parseTime(updated)
	return c, nil
}

// ListCategories returns the owner's categories by name.
func (r *Repository) ListCategories(ctx context.Context, ownerID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, r.q(`SELECT `+categoryColumns+` FROM categories WHERE owner_id = ? ORDER BY name`), ownerID)
	if err != nil {
		return nil, core.StoreFailure("list categories", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, core.StoreFailure("scan category", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, core.StoreFailure("list categories", err)
	}
	return out, nil
}

func (r *Repository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	ts := now()
	c.CreatedAt, c.UpdatedAt = ts, ts
	_, err := r.db.ExecContext(ctx, r.q(`INSERT INTO categories (`+categoryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		c.ID, c.OwnerID, c.Name, c.BudgetLimit.Cents, c.Color, formatTime(ts), formatTime(ts))
	if err != nil {
		return core.Category{}, core.StoreFailure("create category", err)
	}
	return c, nil
}

// UpdateCategory rewrites name, limit and color.
func (r *Repository) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	row := r.db.QueryRowContext(ctx, r.q(`UPDATE categories SET name = ?, budget_limit_cents = ?, color = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?
		RETURNING `+categoryColumns),
		c.Name, c.BudgetLimit.Cents, c.Color, formatTime(now()), c.ID, c.OwnerID)
	updated, err := scanCategory(row)
	if err != nil {
		return core.Category{}, notFoundOr("update category", err)
	}
	return updated, nil
}

// DeleteCategory leaves the category's expenses in place; they read as
// uncategorized afterwards.
func (r *Repository) DeleteCategory(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, r.q(`DELETE FROM categories WHERE id = ? AND owner_id = ?`), id, ownerID)
	if err != nil {
		return core.StoreFailure("delete category", err)
	}
	return requireAffected("delete category", res)
}
