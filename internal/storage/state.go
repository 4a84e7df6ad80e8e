package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"budget/internal/budget"
	"budget/internal/core"
)

// LastVisit reads the budget_last_visit state value.
func (r *Repository) LastVisit(ctx context.Context, ownerID string) (budget.MonthWindow, bool, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, r.q(`SELECT value FROM app_state WHERE owner_id = ? AND key = ?`),
		ownerID, budget.LastVisitKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return budget.MonthWindow{}, false, nil
	}
	if err != nil {
		return budget.MonthWindow{}, false, core.StoreFailure("get last visit", err)
	}

	var w budget.MonthWindow
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return budget.MonthWindow{}, false, core.StoreFailure("decode last visit", fmt.Errorf("%q: %w", raw, err))
	}
	return w, true, nil
}

func (r *Repository) SaveVisit(ctx context.Context, ownerID string, w budget.MonthWindow) error {
	raw, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("encode last visit: %w", err)
	}
	_, err = r.db.ExecContext(ctx, r.q(`INSERT INTO app_state (owner_id, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (owner_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`),
		ownerID, budget.LastVisitKey, string(raw), formatTime(now()))
	if err != nil {
		return core.StoreFailure("save last visit", err)
	}
	return nil
}
