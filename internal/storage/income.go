package storage

import (
	"context"
	"log/slog"

	"budget/internal/core"
)

const incomeColumns = `id, owner_id, name, amount_cents, date, frequency, created_at, updated_at`

func scanIncome(s scanner) (core.IncomeEntry, error) {
	var (
		e                          core.IncomeEntry
		date, created, updated, fq string
	)
	if err := s.Scan(&e.ID, &e.OwnerID, &e.Name, &e.Amount.Cents, &date, &fq, &created, &updated); err != nil {
		return core.IncomeEntry{}, err
	}
	e.Date = parseStoredDate(date)
	e.Frequency = core.IncomeFrequency(fq)
	e.CreatedAt = parseTime(created)
	e.UpdatedAt = parseTime(updated)
	return e, nil
}

// ListIncome returns the owner's income, newest first.
func (r *Repository) ListIncome(ctx context.Context, ownerID string) ([]core.IncomeEntry, error) {
	rows, err := r.db.QueryContext(ctx, r.q(`SELECT `+incomeColumns+` FROM income WHERE owner_id = ? ORDER BY date DESC, created_at DESC`), ownerID)
	if err != nil {
		return nil, core.StoreFailure("list income", err)
	}
	defer rows.Close()

	var out []core.IncomeEntry
	for rows.Next() {
		e, err := scanIncome(rows)
		if err != nil {
			return nil, core.StoreFailure("scan income", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, core.StoreFailure("list income", err)
	}
	return out, nil
}

func (r *Repository) CreateIncome(ctx context.Context, e core.IncomeEntry) (core.IncomeEntry, error) {
	ts := now()
	e.CreatedAt, e.UpdatedAt = ts, ts
	_, err := r.db.ExecContext(ctx, r.q(`INSERT INTO income (`+incomeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		e.ID, e.OwnerID, e.Name, e.Amount.Cents, e.Date.String(), string(e.Frequency), formatTime(ts), formatTime(ts))
	if err != nil {
		return core.IncomeEntry{}, core.StoreFailure("create income", err)
	}

	slog.InfoContext(ctx, "Income saved", "id", e.ID, "amount_cents", e.Amount.Cents, "frequency", e.Frequency)
	return e, nil
}

func (r *Repository) DeleteIncome(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, r.q(`DELETE FROM income WHERE id = ? AND owner_id = ?`), id, ownerID)
	if err != nil {
		return core.StoreFailure("delete income", err)
	}
	return requireAffected("delete income", res)
}
