package storage

import (
	"context"

	"budget/internal/core"
)

func (r *Repository) GetProfile(ctx context.Context, ownerID string) (core.Profile, error) {
	var (
		p                core.Profile
		enabled          int
		created, updated string
	)
	err := r.db.QueryRowContext(ctx, r.q(`SELECT owner_id, currency, monthly_income_goal_cents, weekly_limit_enabled, created_at, updated_at
		FROM profiles WHERE owner_id = ?`), ownerID).
		Scan(&p.OwnerID, &p.Currency, &p.MonthlyIncomeGoal.Cents, &enabled, &created, &updated)
	if err != nil {
		return core.Profile{}, notFoundOr("get profile", err)
	}
	p.WeeklyLimitEnabled = enabled != 0
	p.CreatedAt = parseTime(created)
	p.UpdatedAt = parseTime(updated)
	return p, nil
}

// UpsertProfile inserts or replaces the owner's profile, keeping created_at.
func (r *Repository) UpsertProfile(ctx context.Context, p core.Profile) (core.Profile, error) {
	ts := formatTime(now())
	_, err := r.db.ExecContext(ctx, r.q(`INSERT INTO profiles (owner_id, currency, monthly_income_goal_cents, weekly_limit_enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id) DO UPDATE SET
			currency = excluded.currency,
			monthly_income_goal_cents = excluded.monthly_income_goal_cents,
			weekly_limit_enabled = excluded.weekly_limit_enabled,
			updated_at = excluded.updated_at`),
		p.OwnerID, p.Currency, p.MonthlyIncomeGoal.Cents, boolInt(p.WeeklyLimitEnabled), ts, ts)
	if err != nil {
		return core.Profile{}, core.StoreFailure("upsert profile", err)
	}
	return r.GetProfile(ctx, p.OwnerID)
}
