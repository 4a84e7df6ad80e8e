// Package memory is an in-process ports.Store used by the memory backend
// and by service tests.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"budget/internal/budget"
	"budget/internal/core"
)

type Store struct {
	mu         sync.Mutex
	income     map[string]core.IncomeEntry
	categories map[string]core.Category
	expenses   map[string]core.Expense
	debts      map[string]core.Debt
	payments   map[string]core.DebtPayment
	profiles   map[string]core.Profile
	visits     map[string]budget.MonthWindow

	mirrorErr error
}

func New() *Store {
	return &Store{
		income:     map[string]core.IncomeEntry{},
		categories: map[string]core.Category{},
		expenses:   map[string]core.Expense{},
		debts:      map[string]core.Debt{},
		payments:   map[string]core.DebtPayment{},
		profiles:   map[string]core.Profile{},
		visits:     map[string]budget.MonthWindow{},
	}
}

// FailMirrors makes CreateMirrorExpense return err until called with nil.
func (s *Store) FailMirrors(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mirrorErr = err
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

func stamp(created *time.Time, updated *time.Time) {
	ts := time.Now().UTC()
	if created.IsZero() {
		*created = ts
	}
	*updated = ts
}

func (s *Store) ListIncome(_ context.Context, ownerID string) ([]core.IncomeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.IncomeEntry
	for _, e := range s.income {
		if e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) CreateIncome(_ context.Context, e core.IncomeEntry) (core.IncomeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stamp(&e.CreatedAt, &e.UpdatedAt)
	s.income[e.ID] = e
	return e, nil
}

func (s *Store) DeleteIncome(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.income[id]; !ok || e.OwnerID != ownerID {
		return core.ErrNotFound
	}
	delete(s.income, id)
	return nil
}

func (s *Store) ListCategories(_ context.Context, ownerID string) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Category
	for _, c := range s.categories {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stamp(&c.CreatedAt, &c.UpdatedAt)
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.categories[c.ID]
	if !ok || cur.OwnerID != c.OwnerID {
		return core.Category{}, core.ErrNotFound
	}
	cur.Name, cur.BudgetLimit, cur.Color = c.Name, c.BudgetLimit, c.Color
	stamp(&cur.CreatedAt, &cur.UpdatedAt)
	s.categories[c.ID] = cur
	return cur, nil
}

func (s *Store) DeleteCategory(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.categories[id]; !ok || c.OwnerID != ownerID {
		return core.ErrNotFound
	}
	delete(s.categories, id)
	return nil
}

// ListExpenses fills category name and color the way a SQL join would.
func (s *Store) ListExpenses(_ context.Context, ownerID string) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Expense
	for _, e := range s.expenses {
		if e.OwnerID != ownerID {
			continue
		}
		e.CategoryName, e.CategoryColor = "", ""
		if c, ok := s.categories[e.CategoryID]; ok && c.OwnerID == ownerID {
			e.CategoryName, e.CategoryColor = c.Name, c.Color
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.Kind == "" {
		e.Kind = core.StandardExpense
	}
	stamp(&e.CreatedAt, &e.UpdatedAt)
	s.expenses[e.ID] = e
	return e, nil
}

func (s *Store) CreateMirrorExpense(_ context.Context, e core.Expense) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mirrorErr != nil {
		return false, core.StoreFailure("create mirror expense", s.mirrorErr)
	}
	for _, existing := range s.expenses {
		if existing.MirrorKey != "" && existing.MirrorKey == e.MirrorKey {
			return false, nil
		}
	}
	stamp(&e.CreatedAt, &e.UpdatedAt)
	s.expenses[e.ID] = e
	return true, nil
}

func (s *Store) DeleteExpense(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.expenses[id]; !ok || e.OwnerID != ownerID {
		return core.ErrNotFound
	}
	delete(s.expenses, id)
	return nil
}

func (s *Store) ListDebts(_ context.Context, ownerID string) ([]core.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Debt
	for _, d := range s.debts {
		if d.OwnerID == ownerID {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) GetDebt(_ context.Context, ownerID, id string) (core.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.debts[id]
	if !ok || d.OwnerID != ownerID {
		return core.Debt{}, core.ErrNotFound
	}
	return d, nil
}

func (s *Store) CreateDebt(_ context.Context, d core.Debt) (core.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stamp(&d.CreatedAt, &d.UpdatedAt)
	s.debts[d.ID] = d
	return d, nil
}

func (s *Store) UpdateDebt(_ context.Context, d core.Debt) (core.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.debts[d.ID]
	if !ok || cur.OwnerID != d.OwnerID {
		return core.Debt{}, core.ErrNotFound
	}
	d.CreatedAt = cur.CreatedAt
	stamp(&d.CreatedAt, &d.UpdatedAt)
	s.debts[d.ID] = d
	return d, nil
}

func (s *Store) DeleteDebt(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.debts[id]; !ok || d.OwnerID != ownerID {
		return core.ErrNotFound
	}
	delete(s.debts, id)
	for k, p := range s.payments {
		if p.DebtID == id {
			delete(s.payments, k)
		}
	}
	return nil
}

func (s *Store) ApplyPayment(_ context.Context, p core.DebtPayment) (core.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.debts[p.DebtID]
	if !ok || d.OwnerID != p.OwnerID {
		return core.Debt{}, core.ErrNotFound
	}
	if _, dup := s.payments[p.MirrorKey]; dup {
		return core.Debt{}, core.StoreFailure("record payment", errors.New("duplicate mirror key"))
	}
	d.AmountPaid = d.AmountPaid.Add(p.Amount)
	d.UpdatedAt = time.Now().UTC()
	s.debts[d.ID] = d
	s.payments[p.MirrorKey] = p
	return d, nil
}

func (s *Store) GetPayment(_ context.Context, mirrorKey string) (core.DebtPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[mirrorKey]
	if !ok {
		return core.DebtPayment{}, core.ErrNotFound
	}
	return p, nil
}

func (s *Store) MarkPaymentMirrored(_ context.Context, mirrorKey string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.payments[mirrorKey]; ok && p.MirroredAt.IsZero() {
		p.MirroredAt = at
		s.payments[mirrorKey] = p
	}
	return nil
}

func (s *Store) ListUnmirroredPayments(_ context.Context, limit int) ([]core.DebtPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.DebtPayment
	for _, p := range s.payments {
		if p.MirroredAt.IsZero() {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaidAt.Before(out[j].PaidAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) GetProfile(_ context.Context, ownerID string) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[ownerID]
	if !ok {
		return core.Profile{}, core.ErrNotFound
	}
	return p, nil
}

func (s *Store) UpsertProfile(_ context.Context, p core.Profile) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.profiles[p.OwnerID]; ok {
		p.CreatedAt = cur.CreatedAt
	}
	stamp(&p.CreatedAt, &p.UpdatedAt)
	s.profiles[p.OwnerID] = p
	return p, nil
}

func (s *Store) LastVisit(_ context.Context, ownerID string) (budget.MonthWindow, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.visits[ownerID]
	return w, ok, nil
}

func (s *Store) SaveVisit(_ context.Context, ownerID string, w budget.MonthWindow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visits[ownerID] = w
	return nil
}
