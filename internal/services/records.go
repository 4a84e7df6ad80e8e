package services

import (
	"context"
	"fmt"
	"strings"

	"budget/internal/core"
)

func (s *BudgetService) ListIncome(ctx context.Context, ownerID string) ([]core.IncomeEntry, error) {
	snap, err := s.Snapshot(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return snap.Income, nil
}

func (s *BudgetService) AddIncome(ctx context.Context, ownerID string, e core.IncomeEntry) (core.IncomeEntry, error) {
	if err := requireOwner(ownerID); err != nil {
		return core.IncomeEntry{}, err
	}
	e.ID, e.OwnerID = s.newID(), ownerID
	e.Name = strings.TrimSpace(e.Name)
	if err := e.Validate(); err != nil {
		return core.IncomeEntry{}, err
	}
	saved, err := s.store.CreateIncome(ctx, e)
	if err != nil {
		return core.IncomeEntry{}, fmt.Errorf("add income: %w", err)
	}
	s.invalidate(ownerID)
	return saved, nil
}

func (s *BudgetService) DeleteIncome(ctx context.Context, ownerID, id string) error {
	if err := requireOwner(ownerID); err != nil {
		return err
	}
	if err := s.store.DeleteIncome(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete income: %w", err)
	}
	s.invalidate(ownerID)
	return nil
}

func (s *BudgetService) ListCategories(ctx context.Context, ownerID string) ([]core.Category, error) {
	snap, err := s.Snapshot(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return snap.Categories, nil
}

func (s *BudgetService) AddCategory(ctx context.Context, ownerID string, c core.Category) (core.Category, error) {
	if err := requireOwner(ownerID); err != nil {
		return core.Category{}, err
	}
	c.ID, c.OwnerID = s.newID(), ownerID
	c.Name = strings.TrimSpace(c.Name)
	if c.Color == "" {
		c.Color = core.DefaultCategoryColor
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	saved, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("add category: %w", err)
	}
	s.invalidate(ownerID)
	return saved, nil
}

// UpdateCategory changes name, limit and color of category c.ID.
func (s *BudgetService) UpdateCategory(ctx context.Context, ownerID string, c core.Category) (core.Category, error) {
	if err := requireOwner(ownerID); err != nil {
		return core.Category{}, err
	}
	c.OwnerID = ownerID
	c.Name = strings.TrimSpace(c.Name)
	if c.Color == "" {
		c.Color = core.DefaultCategoryColor
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	saved, err := s.store.UpdateCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	s.invalidate(ownerID)
	return saved, nil
}

func (s *BudgetService) DeleteCategory(ctx context.Context, ownerID, id string) error {
	if err := requireOwner(ownerID); err != nil {
		return err
	}
	if err := s.store.DeleteCategory(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.invalidate(ownerID)
	return nil
}

func (s *BudgetService) ListExpenses(ctx context.Context, ownerID string) ([]core.Expense, error) {
	snap, err := s.Snapshot(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return snap.Expenses, nil
}

// AddExpense stores a user-entered expense. Debt-payment expenses are only
// created by RecordPayment, so kind and debt link are reset here.
func (s *BudgetService) AddExpense(ctx context.Context, ownerID string, e core.Expense) (core.Expense, error) {
	if err := requireOwner(ownerID); err != nil {
		return core.Expense{}, err
	}
	e.ID, e.OwnerID = s.newID(), ownerID
	e.Name = strings.TrimSpace(e.Name)
	e.Kind, e.DebtID, e.MirrorKey = core.StandardExpense, "", ""
	e.CategoryName, e.CategoryColor = "", ""
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	saved, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("add expense: %w", err)
	}
	s.invalidate(ownerID)
	return saved, nil
}

func (s *BudgetService) DeleteExpense(ctx context.Context, ownerID, id string) error {
	if err := requireOwner(ownerID); err != nil {
		return err
	}
	if err := s.store.DeleteExpense(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	s.invalidate(ownerID)
	return nil
}

func (s *BudgetService) ListDebts(ctx context.Context, ownerID string) ([]core.Debt, error) {
	snap, err := s.Snapshot(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return snap.Debts, nil
}

func (s *BudgetService) AddDebt(ctx context.Context, ownerID string, d core.Debt) (core.Debt, error) {
	if err := requireOwner(ownerID); err != nil {
		return core.Debt{}, err
	}
	d.ID, d.OwnerID = s.newID(), ownerID
	d.Name = strings.TrimSpace(d.Name)
	if err := d.Validate(); err != nil {
		return core.Debt{}, err
	}
	saved, err := s.store.CreateDebt(ctx, d)
	if err != nil {
		return core.Debt{}, fmt.Errorf("add debt: %w", err)
	}
	s.invalidate(ownerID)
	return saved, nil
}

func (s *BudgetService) UpdateDebt(ctx context.Context, ownerID string, d core.Debt) (core.Debt, error) {
	if err := requireOwner(ownerID); err != nil {
		return core.Debt{}, err
	}
	d.OwnerID = ownerID
	d.Name = strings.TrimSpace(d.Name)
	if err := d.Validate(); err != nil {
		return core.Debt{}, err
	}
	saved, err := s.store.UpdateDebt(ctx, d)
	if err != nil {
		return core.Debt{}, fmt.Errorf("update debt: %w", err)
	}
	s.invalidate(ownerID)
	return saved, nil
}

func (s *BudgetService) DeleteDebt(ctx context.Context, ownerID, id string) error {
	if err := requireOwner(ownerID); err != nil {
		return err
	}
	if err := s.store.DeleteDebt(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete debt: %w", err)
	}
	s.invalidate(ownerID)
	return nil
}

// Profile returns the owner's profile, creating the default one on first use.
func (s *BudgetService) Profile(ctx context.Context, ownerID string) (core.Profile, error) {
	if err := requireOwner(ownerID); err != nil {
		return core.Profile{}, err
	}
	p, err := s.store.GetProfile(ctx, ownerID)
	if err == nil {
		return p, nil
	}
	if !isNotFound(err) {
		return core.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	p, err = s.store.UpsertProfile(ctx, core.DefaultProfile(ownerID))
	if err != nil {
		return core.Profile{}, fmt.Errorf("create profile: %w", err)
	}
	s.logger.InfoContext(ctx, "Created default profile", "owner_id", ownerID)
	return p, nil
}

func (s *BudgetService) UpdateProfile(ctx context.Context, ownerID string, p core.Profile) (core.Profile, error) {
	if err := requireOwner(ownerID); err != nil {
		return core.Profile{}, err
	}
	p.OwnerID = ownerID
	p.Currency = strings.TrimSpace(p.Currency)
	if err := p.Validate(); err != nil {
		return core.Profile{}, err
	}
	saved, err := s.store.UpsertProfile(ctx, p)
	if err != nil {
		return core.Profile{}, fmt.Errorf("update profile: %w", err)
	}
	s.invalidate(ownerID)
	return saved, nil
}
