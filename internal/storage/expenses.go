package storage

import (
	"context"
	"database/sql"
	"log/slog"

	"budget/internal/core"
)

const expenseColumns = `id, owner_id, name, amount_cents, category_id, date, is_recurring,
	exclude_from_weekly_limit, kind, debt_id, mirror_key, created_at, updated_at`

// ListExpenses returns the owner's expenses, newest first, joined with the
// category name and color when the category still exists.
func (r *Repository) ListExpenses(ctx context.Context, ownerID string) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, r.q(`
		SELECT e.id, e.owner_id, e.name, e.amount_cents, e.category_id, e.date, e.is_recurring,
		       e.exclude_from_weekly_limit, e.kind, e.debt_id, e.mirror_key, e.created_at, e.updated_at,
		       c.name, c.color
		FROM expenses e
		LEFT JOIN categories c ON c.id = e.category_id AND c.owner_id = e.owner_id
		WHERE e.owner_id = ?
		ORDER BY e.date DESC, e.created_at DESC`), ownerID)
	if err != nil {
		return nil, core.StoreFailure("list expenses", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		var (
			e                             core.Expense
			categoryID, debtID, mirrorKey sql.NullString
			categoryName, categoryColor   sql.NullString
			date, kind, created, updated  string
			recurring, excluded           int
		)
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.Name, &e.Amount.Cents, &categoryID, &date, &recurring,
			&excluded, &kind, &debtID, &mirrorKey, &created, &updated, &categoryName, &categoryColor); err != nil {
			return nil, core.StoreFailure("scan expense", err)
		}
		e.CategoryID = categoryID.String
		e.Date = parseStoredDate(date)
		e.IsRecurring = recurring != 0
		e.ExcludeFromWeeklyLimit = excluded != 0
		e.Kind = core.ExpenseKind(kind)
		e.DebtID = debtID.String
		e.MirrorKey = mirrorKey.String
		e.CreatedAt = parseTime(created)
		e.UpdatedAt = parseTime(updated)
		e.CategoryName = categoryName.String
		e.CategoryColor = categoryColor.String
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, core.StoreFailure("list expenses", err)
	}
	return out, nil
}

func (r *Repository) insertExpense(ctx context.Context, e core.Expense, suffix string) (sql.Result, core.Expense, error) {
	ts := now()
	e.CreatedAt, e.UpdatedAt = ts, ts
	if e.Kind == "" {
		e.Kind = core.StandardExpense
	}
	res, err := r.db.ExecContext(ctx, r.q(`INSERT INTO expenses (`+expenseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`+suffix),
		e.ID, e.OwnerID, e.Name, e.Amount.Cents, nullString(e.CategoryID), e.Date.String(),
		boolInt(e.IsRecurring), boolInt(e.ExcludeFromWeeklyLimit), string(e.Kind),
		nullString(e.DebtID), nullString(e.MirrorKey), formatTime(ts), formatTime(ts))
	return res, e, err
}

func (r *Repository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	_, saved, err := r.insertExpense(ctx, e, "")
	if err != nil {
		return core.Expense{}, core.StoreFailure("create expense", err)
	}

	slog.InfoContext(ctx, "Expense saved", "id", saved.ID, "amount_cents", saved.Amount.Cents, "kind", saved.Kind)
	return saved, nil
}

// CreateMirrorExpense is idempotent on MirrorKey.
func (r *Repository) CreateMirrorExpense(ctx context.Context, e core.Expense) (bool, error) {
	res, _, err := r.insertExpense(ctx, e, ` ON CONFLICT (mirror_key) DO NOTHING`)
	if err != nil {
		return false, core.StoreFailure("create mirror expense", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, core.StoreFailure("create mirror expense", err)
	}
	return n > 0, nil
}

func (r *Repository) DeleteExpense(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, r.q(`DELETE FROM expenses WHERE id = ? AND owner_id = ?`), id, ownerID)
	if err != nil {
		return core.StoreFailure("delete expense", err)
	}
	return requireAffected("delete expense", res)
}
