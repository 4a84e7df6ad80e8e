package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"budget/internal/core"
)

const debtColumns = `id, owner_id, name, total_balance_cents, amount_paid_cents, interest_rate, created_at, updated_at`

func scanDebt(s scanner) (core.Debt, error) {
	var (
		d                core.Debt
		created, updated string
	)
	if err := s.Scan(&d.ID, &d.OwnerID, &d.Name, &d.TotalBalance.Cents, &d.AmountPaid.Cents, &d.InterestRate, &created, &updated); err != nil {
		return core.Debt{}, err
	}
	d.CreatedAt = parseTime(created)
	d.UpdatedAt = parseTime(updated)
	return d, nil
}

func (r *Repository) ListDebts(ctx context.Context, ownerID string) ([]core.Debt, error) {
	rows, err := r.db.QueryContext(ctx, r.q(`SELECT `+debtColumns+` FROM debts WHERE owner_id = ? ORDER BY created_at`), ownerID)
	if err != nil {
		return nil, core.StoreFailure("list debts", err)
	}
	defer rows.Close()

	var out []core.Debt
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, core.StoreFailure("scan debt", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, core.StoreFailure("list debts", err)
	}
	return out, nil
}

func (r *Repository) GetDebt(ctx context.Context, ownerID, id string) (core.Debt, error) {
	row := r.db.QueryRowContext(ctx, r.q(`SELECT `+debtColumns+` FROM debts WHERE id = ? AND owner_id = ?`), id, ownerID)
	d, err := scanDebt(row)
	if err != nil {
		return core.Debt{}, notFoundOr("get debt", err)
	}
	return d, nil
}

func (r *Repository) CreateDebt(ctx context.Context, d core.Debt) (core.Debt, error) {
	ts := now()
	d.CreatedAt, d.UpdatedAt = ts, ts
	_, err := r.db.ExecContext(ctx, r.q(`INSERT INTO debts (`+debtColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		d.ID, d.OwnerID, d.Name, d.TotalBalance.Cents, d.AmountPaid.Cents, d.InterestRate, formatTime(ts), formatTime(ts))
	if err != nil {
		return core.Debt{}, core.StoreFailure("create debt", err)
	}
	return d, nil
}

// UpdateDebt rewrites every editable field, amount paid included.
func (r *Repository) UpdateDebt(ctx context.Context, d core.Debt) (core.Debt, error) {
	row := r.db.QueryRowContext(ctx, r.q(`UPDATE debts
		SET name = ?, total_balance_cents = ?, amount_paid_cents = ?, interest_rate = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?
		RETURNING `+debtColumns),
		d.Name, d.TotalBalance.Cents, d.AmountPaid.Cents, d.InterestRate, formatTime(now()), d.ID, d.OwnerID)
	updated, err := scanDebt(row)
	if err != nil {
		return core.Debt{}, notFoundOr("update debt", err)
	}
	return updated, nil
}

// DeleteDebt removes the debt and its payment ledger. Mirrored expenses stay.
func (r *Repository) DeleteDebt(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, r.q(`DELETE FROM debts WHERE id = ? AND owner_id = ?`), id, ownerID)
	if err != nil {
		return core.StoreFailure("delete debt", err)
	}
	return requireAffected("delete debt", res)
}

// ApplyPayment increments amount paid in place and writes the ledger row in
// the same transaction. Concurrent payments never lose an increment.
func (r *Repository) ApplyPayment(ctx context.Context, p core.DebtPayment) (core.Debt, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Debt{}, core.StoreFailure("apply payment", fmt.Errorf("begin transaction: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, r.q(`UPDATE debts
		SET amount_paid_cents = amount_paid_cents + ?, updated_at = ?
		WHERE id = ? AND owner_id = ?
		RETURNING `+debtColumns),
		p.Amount.Cents, formatTime(now()), p.DebtID, p.OwnerID)
	debt, err := scanDebt(row)
	if err != nil {
		return core.Debt{}, notFoundOr("apply payment", err)
	}

	// paid_at is fixed-width UTC so it sorts as text; paid_on keeps the payer's day.
	_, err = tx.ExecContext(ctx, r.q(`INSERT INTO debt_payments (id, debt_id, owner_id, amount_cents, paid_at, paid_on, mirror_key)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		p.ID, p.DebtID, p.OwnerID, p.Amount.Cents, formatSortableTime(p.PaidAt), p.Day().String(), p.MirrorKey)
	if err != nil {
		return core.Debt{}, core.StoreFailure("record payment", err)
	}

	if err := tx.Commit(); err != nil {
		return core.Debt{}, core.StoreFailure("apply payment", fmt.Errorf("commit: %w", err))
	}

	slog.InfoContext(ctx, "Debt payment applied",
		"debt_id", p.DebtID, "amount_cents", p.Amount.Cents, "amount_paid_cents", debt.AmountPaid.Cents)
	return debt, nil
}

const paymentColumns = `id, debt_id, owner_id, amount_cents, paid_at, paid_on, mirror_key, mirrored_at`

func scanPayment(s scanner) (core.DebtPayment, error) {
	var (
		p        core.DebtPayment
		paidAt   string
		paidOn   string
		mirrored sql.NullString
	)
	if err := s.Scan(&p.ID, &p.DebtID, &p.OwnerID, &p.Amount.Cents, &paidAt, &paidOn, &p.MirrorKey, &mirrored); err != nil {
		return core.DebtPayment{}, err
	}
	p.PaidAt = parseTime(paidAt)
	if day, err := core.ParseDate(paidOn); err == nil {
		p.PaidOn = day
	}
	if mirrored.Valid {
		p.MirroredAt = parseTime(mirrored.String)
	}
	return p, nil
}

func (r *Repository) GetPayment(ctx context.Context, mirrorKey string) (core.DebtPayment, error) {
	row := r.db.QueryRowContext(ctx, r.q(`SELECT `+paymentColumns+` FROM debt_payments WHERE mirror_key = ?`), mirrorKey)
	p, err := scanPayment(row)
	if err != nil {
		return core.DebtPayment{}, notFoundOr("get payment", err)
	}
	return p, nil
}

// MarkPaymentMirrored is a no-op for payments already marked.
func (r *Repository) MarkPaymentMirrored(ctx context.Context, mirrorKey string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, r.q(`UPDATE debt_payments SET mirrored_at = ? WHERE mirror_key = ? AND mirrored_at IS NULL`),
		formatTime(at), mirrorKey)
	if err != nil {
		return core.StoreFailure("mark payment mirrored", err)
	}
	return nil
}

// ListUnmirroredPayments returns the oldest payments still missing their
// mirrored expense, across all owners.
func (r *Repository) ListUnmirroredPayments(ctx context.Context, limit int) ([]core.DebtPayment, error) {
	rows, err := r.db.QueryContext(ctx, r.q(`SELECT `+paymentColumns+` FROM debt_payments
		WHERE mirrored_at IS NULL ORDER BY paid_at LIMIT ?`), limit)
	if err != nil {
		return nil, core.StoreFailure("list unmirrored payments", err)
	}
	defer rows.Close()

	var out []core.DebtPayment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, core.StoreFailure("scan payment", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, core.StoreFailure("list unmirrored payments", err)
	}
	return out, nil
}
