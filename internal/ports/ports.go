// Package ports declares the persistence boundaries the services depend on.
// Every method is scoped by owner; implementations never return records of
// another owner.
package ports

import (
	"context"
	"time"

	"budget/internal/budget"
	"budget/internal/core"
)

type (
	IncomeStore interface {
		ListIncome(ctx context.Context, ownerID string) ([]core.IncomeEntry, error)
		CreateIncome(ctx context.Context, e core.IncomeEntry) (core.IncomeEntry, error)
		DeleteIncome(ctx context.Context, ownerID, id string) error
	}

	CategoryStore interface {
		ListCategories(ctx context.Context, ownerID string) ([]core.Category, error)
		CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
		UpdateCategory(ctx context.Context, c core.Category) (core.Category, error)
		DeleteCategory(ctx context.Context, ownerID, id string) error
	}

	ExpenseStore interface {
		// ListExpenses returns expenses joined with their category name and color.
		ListExpenses(ctx context.Context, ownerID string) ([]core.Expense, error)
		CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
		DeleteExpense(ctx context.Context, ownerID, id string) error
		// CreateMirrorExpense inserts e unless an expense with the same
		// MirrorKey exists. created is false when nothing was written.
		CreateMirrorExpense(ctx context.Context, e core.Expense) (created bool, err error)
	}

	DebtStore interface {
		ListDebts(ctx context.Context, ownerID string) ([]core.Debt, error)
		GetDebt(ctx context.Context, ownerID, id string) (core.Debt, error)
		CreateDebt(ctx context.Context, d core.Debt) (core.Debt, error)
		UpdateDebt(ctx context.Context, d core.Debt) (core.Debt, error)
		DeleteDebt(ctx context.Context, ownerID, id string) error
	}

	// PaymentLedger applies debt payments and tracks their mirrored expenses.
	PaymentLedger interface {
		// ApplyPayment atomically increments the debt's amount paid and
		// records p. It returns the debt as stored after the increment.
		ApplyPayment(ctx context.Context, p core.DebtPayment) (core.Debt, error)
		GetPayment(ctx context.Context, mirrorKey string) (core.DebtPayment, error)
		MarkPaymentMirrored(ctx context.Context, mirrorKey string, at time.Time) error
		ListUnmirroredPayments(ctx context.Context, limit int) ([]core.DebtPayment, error)
	}

	ProfileStore interface {
		// GetProfile returns core.ErrNotFound when the owner has no profile yet.
		GetProfile(ctx context.Context, ownerID string) (core.Profile, error)
		UpsertProfile(ctx context.Context, p core.Profile) (core.Profile, error)
	}

	// VisitStore persists the month of an owner's last visit.
	VisitStore interface {
		LastVisit(ctx context.Context, ownerID string) (w budget.MonthWindow, found bool, err error)
		SaveVisit(ctx context.Context, ownerID string, w budget.MonthWindow) error
	}

	// Store is a complete backend.
	Store interface {
		IncomeStore
		CategoryStore
		ExpenseStore
		DebtStore
		PaymentLedger
		ProfileStore
		VisitStore
		Ping(ctx context.Context) error
		Close() error
	}
)
