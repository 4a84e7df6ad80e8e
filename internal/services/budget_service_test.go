package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/budget"
	"budget/internal/cache"
	"budget/internal/core"
	"budget/internal/storage/memory"
)

const owner = "owner-1"

var fixedNow = time.Date(2024, time.June, 12, 10, 0, 0, 0, time.UTC)

type fakePublisher struct {
	published []core.DebtPayment
	err       error
}

func (f *fakePublisher) PublishPaymentRecorded(_ context.Context, p core.DebtPayment) error {
	f.published = append(f.published, p)
	return f.err
}

type fakeSheet struct {
	values [][]interface{}
}

func (f *fakeSheet) ReplaceValues(_ context.Context, values [][]interface{}) error {
	f.values = values
	return nil
}

func newTestService(t *testing.T, opts ...Option) (*BudgetService, *memory.Store) {
	t.Helper()
	store := memory.New()
	seq := 0
	base := []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
	}
	return NewBudgetService(store, append(base, opts...)...), store
}

func TestRequiresOwner(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Overview(ctx, "")
	assert.ErrorIs(t, err, core.ErrNotAuthenticated)

	_, err = svc.AddIncome(ctx, " ", core.IncomeEntry{Name: "Salary"})
	assert.ErrorIs(t, err, core.ErrNotAuthenticated)

	_, err = svc.RecordPayment(ctx, "", "debt", core.Money{Cents: 100})
	assert.ErrorIs(t, err, core.ErrNotAuthenticated)
}

func TestProfileFetchOrCreate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.Profile(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, core.DefaultCurrency, p.Currency)
	assert.True(t, p.WeeklyLimitEnabled)

	p.WeeklyLimitEnabled = false
	p.Currency = "EUR"
	_, err = svc.UpdateProfile(ctx, owner, p)
	require.NoError(t, err)

	got, err := svc.Profile(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, "EUR", got.Currency)
	assert.False(t, got.WeeklyLimitEnabled)
}

func TestAddRejectsInvalidInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddIncome(ctx, owner, core.IncomeEntry{Name: "  ", Amount: core.Money{Cents: 100}, Date: core.DateOf(fixedNow), Frequency: core.OneTime})
	assert.True(t, core.IsValidationError(err))

	_, err = svc.AddExpense(ctx, owner, core.Expense{Name: "Lunch", Amount: core.Money{Cents: -1}, Date: core.DateOf(fixedNow)})
	assert.True(t, core.IsValidationError(err))
}

func TestAddExpenseIsAlwaysStandard(t *testing.T) {
	svc, _ := newTestService(t)
	e, err := svc.AddExpense(context.Background(), owner, core.Expense{
		Name:   "Coffee",
		Amount: core.Money{Cents: 350},
		Date:   core.DateOf(fixedNow),
		Kind:   core.DebtPaymentExpense,
		DebtID: "debt-x",
	})
	require.NoError(t, err)
	assert.Equal(t, core.StandardExpense, e.Kind)
	assert.Empty(t, e.DebtID)
	assert.Equal(t, owner, e.OwnerID)
}

func TestOverviewReflectsMutations(t *testing.T) {
	svc, _ := newTestService(t, WithCache(cache.NewLRU[budget.Snapshot](10, time.Minute)))
	ctx := context.Background()
	today := core.DateOf(fixedNow)

	_, err := svc.AddIncome(ctx, owner, core.IncomeEntry{Name: "Salary", Amount: core.Money{Cents: 300000}, Date: today, Frequency: core.Recurring})
	require.NoError(t, err)
	food, err := svc.AddCategory(ctx, owner, core.Category{Name: "Food", BudgetLimit: core.Money{Cents: 50000}})
	require.NoError(t, err)
	assert.Equal(t, core.DefaultCategoryColor, food.Color)

	ov, err := svc.Overview(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(300000), ov.MonthlyIncome.Cents)
	assert.Equal(t, budget.StatusUnder, ov.Summary.Status)

	_, err = svc.AddExpense(ctx, owner, core.Expense{Name: "Groceries", Amount: core.Money{Cents: 12000}, CategoryID: food.ID, Date: today})
	require.NoError(t, err)

	ov, err = svc.Overview(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(12000), ov.MonthlyExpenses.Cents)
	require.Len(t, ov.Categories, 1)
	assert.Equal(t, int64(12000), ov.Categories[0].Spent.Cents)
	assert.True(t, ov.WeeklyLimit.IsEnabled)
}

func TestRecordPayment(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	debt, err := svc.AddDebt(ctx, owner, core.Debt{Name: "Car Loan", TotalBalance: core.Money{Cents: 100000}})
	require.NoError(t, err)

	res, err := svc.RecordPayment(ctx, owner, debt.ID, core.Money{Cents: 25000})
	require.NoError(t, err)
	assert.Empty(t, res.Warning)
	assert.Equal(t, int64(25000), res.Debt.AmountPaid.Cents)
	require.NotNil(t, res.Mirror)
	assert.Equal(t, "Debt Payment: Car Loan", res.Mirror.Name)
	assert.Equal(t, core.DebtPaymentExpense, res.Mirror.Kind)
	assert.Equal(t, debt.ID, res.Mirror.DebtID)
	assert.True(t, res.Mirror.IsUncategorized())

	ov, err := svc.Overview(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(25000), ov.Summary.DebtPayments.Cents)
	assert.Equal(t, int64(75000), ov.Debts.TotalRemaining.Cents)
}

func TestRecordPaymentAddsToAmountPaid(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	debt, err := store.CreateDebt(ctx, core.Debt{
		ID: "debt-1", OwnerID: owner, Name: "Student Loan",
		TotalBalance: core.Money{Cents: 100000}, AmountPaid: core.Money{Cents: 20000},
	})
	require.NoError(t, err)

	res, err := svc.RecordPayment(ctx, owner, debt.ID, core.Money{Cents: 30000})
	require.NoError(t, err)
	assert.Equal(t, int64(50000), res.Debt.AmountPaid.Cents)
	require.NotNil(t, res.Mirror)
	assert.Equal(t, int64(30000), res.Mirror.Amount.Cents)
	assert.Equal(t, core.DateOf(fixedNow), res.Mirror.Date)
	assert.False(t, res.Mirror.IsRecurring)
	assert.False(t, res.Mirror.ExcludeFromWeeklyLimit)

	stored, err := store.GetDebt(ctx, owner, debt.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50000), stored.AmountPaid.Cents)
}

func TestRecordPaymentSameInstantKeepsBothPayments(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	debt, err := svc.AddDebt(ctx, owner, core.Debt{Name: "Card", TotalBalance: core.Money{Cents: 10000}})
	require.NoError(t, err)

	first, err := svc.RecordPayment(ctx, owner, debt.ID, core.Money{Cents: 1000})
	require.NoError(t, err)
	second, err := svc.RecordPayment(ctx, owner, debt.ID, core.Money{Cents: 1000})
	require.NoError(t, err)

	assert.NotEqual(t, first.Payment.MirrorKey, second.Payment.MirrorKey)
	assert.Equal(t, int64(2000), second.Debt.AmountPaid.Cents)
	expenses, err := svc.ListExpenses(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, expenses, 2)
}

func TestRecordPaymentRejectsNonPositive(t *testing.T) {
	svc, _ := newTestService(t)
	for _, cents := range []int64{0, -500} {
		_, err := svc.RecordPayment(context.Background(), owner, "debt", core.Money{Cents: cents})
		assert.ErrorIs(t, err, core.ErrInvalidAmount)
	}
}

func TestRecordPaymentUnknownDebt(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.RecordPayment(context.Background(), owner, "missing", core.Money{Cents: 100})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRecordPaymentMirrorFailureWarnsAndRetries(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	svc, store := newTestService(t, WithPublisher(pub))
	ctx := context.Background()

	debt, err := svc.AddDebt(ctx, owner, core.Debt{Name: "Card", TotalBalance: core.Money{Cents: 5000}})
	require.NoError(t, err)

	store.FailMirrors(errors.New("disk full"))
	res, err := svc.RecordPayment(ctx, owner, debt.ID, core.Money{Cents: 1000})
	require.NoError(t, err)
	assert.Equal(t, MirrorWarning, res.Warning)
	assert.Nil(t, res.Mirror)
	assert.Equal(t, int64(1000), res.Debt.AmountPaid.Cents)
	require.Len(t, pub.published, 1)
	assert.Equal(t, res.Payment.MirrorKey, pub.published[0].MirrorKey)

	expenses, err := svc.ListExpenses(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, expenses)

	store.FailMirrors(nil)
	n, err := svc.ReconcileMirrors(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// a second delivery of the same payment is a no-op
	require.NoError(t, svc.MirrorPayment(ctx, res.Payment.MirrorKey))
	n, err = svc.ReconcileMirrors(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, n)

	expenses, err = svc.ListExpenses(ctx, owner)
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, int64(1000), expenses[0].Amount.Cents)
	assert.True(t, expenses[0].IsDebtPayment())
}

// failingMirrorStore rejects the mirror of one payment.
type failingMirrorStore struct {
	*memory.Store
	failKey string
}

func (f *failingMirrorStore) CreateMirrorExpense(ctx context.Context, e core.Expense) (bool, error) {
	if e.MirrorKey == f.failKey {
		return false, core.StoreFailure("create mirror expense", errors.New("constraint violation"))
	}
	return f.Store.CreateMirrorExpense(ctx, e)
}

func TestReconcileSkipsFailingPayment(t *testing.T) {
	store := &failingMirrorStore{Store: memory.New()}
	now := fixedNow
	seq := 0
	svc := NewBudgetService(store,
		WithClock(func() time.Time {
			now = now.Add(time.Second)
			return now
		}),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}))
	ctx := context.Background()

	debt, err := svc.AddDebt(ctx, owner, core.Debt{Name: "Card", TotalBalance: core.Money{Cents: 10000}})
	require.NoError(t, err)

	store.FailMirrors(errors.New("disk full"))
	var keys []string
	for i := 0; i < 3; i++ {
		res, err := svc.RecordPayment(ctx, owner, debt.ID, core.Money{Cents: 100})
		require.NoError(t, err)
		keys = append(keys, res.Payment.MirrorKey)
	}
	store.FailMirrors(nil)
	store.failKey = keys[0]

	n, err := svc.ReconcileMirrors(ctx, 10)
	assert.Error(t, err)
	assert.Equal(t, 2, n, "rows after the failing one are still mirrored")

	pending, err := store.ListUnmirroredPayments(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, keys[0], pending[0].MirrorKey)
}

// pausingStore holds the first ListExpenses call after it has read the rows.
type pausingStore struct {
	*memory.Store
	once    sync.Once
	loaded  chan struct{}
	release chan struct{}
}

func (p *pausingStore) ListExpenses(ctx context.Context, ownerID string) ([]core.Expense, error) {
	list, err := p.Store.ListExpenses(ctx, ownerID)
	p.once.Do(func() {
		close(p.loaded)
		<-p.release
	})
	return list, err
}

func TestSnapshotLoadedAcrossMutationIsNotCached(t *testing.T) {
	store := &pausingStore{Store: memory.New(), loaded: make(chan struct{}), release: make(chan struct{})}
	svc := NewBudgetService(store,
		WithClock(func() time.Time { return fixedNow }),
		WithCache(cache.NewLRU[budget.Snapshot](10, time.Minute)))
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := svc.Overview(ctx, owner)
		done <- err
	}()
	<-store.loaded

	_, err := svc.AddExpense(ctx, owner, core.Expense{Name: "Coffee", Amount: core.Money{Cents: 500}, Date: core.DateOf(fixedNow)})
	require.NoError(t, err)

	close(store.release)
	require.NoError(t, <-done)

	ov, err := svc.Overview(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(500), ov.MonthlyExpenses.Cents)
}

func TestMirrorPaymentUnknownKey(t *testing.T) {
	svc, _ := newTestService(t)
	assert.NoError(t, svc.MirrorPayment(context.Background(), "nope:1"))
}

func TestRolloverDetector(t *testing.T) {
	store := memory.New()
	now := time.Date(2024, time.June, 30, 23, 0, 0, 0, time.UTC)
	d := NewRolloverDetector(store, func() time.Time { return now }, nil)
	ctx := context.Background()

	check, err := d.Check(ctx, owner)
	require.NoError(t, err)
	assert.False(t, check.IsNewMonth)
	assert.Nil(t, check.LastMonth)

	stored, found, err := store.LastVisit(ctx, owner)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, budget.MonthWindow{Month: 5, Year: 2024}, stored)

	now = time.Date(2024, time.July, 1, 8, 0, 0, 0, time.UTC)
	check, err = d.Check(ctx, owner)
	require.NoError(t, err)
	assert.True(t, check.IsNewMonth)
	require.NotNil(t, check.LastMonth)
	assert.Equal(t, 5, *check.LastMonth)

	_, err = d.Acknowledge(ctx, owner)
	require.NoError(t, err)
	check, err = d.Check(ctx, owner)
	require.NoError(t, err)
	assert.False(t, check.IsNewMonth)
}

func TestExport(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	today := core.DateOf(fixedNow)

	_, err := svc.AddIncome(ctx, owner, core.IncomeEntry{Name: "Salary", Amount: core.Money{Cents: 100000}, Date: today, Frequency: core.Recurring})
	require.NoError(t, err)
	_, err = svc.AddExpense(ctx, owner, core.Expense{Name: "Rent", Amount: core.Money{Cents: 80000}, Date: core.NewDate(2024, 6, 1), IsRecurring: true})
	require.NoError(t, err)
	_, err = svc.AddExpense(ctx, owner, core.Expense{Name: "Old", Amount: core.Money{Cents: 100}, Date: core.NewDate(2024, 5, 31)})
	require.NoError(t, err)

	var buf bytes.Buffer
	name, err := svc.ExportCSV(ctx, owner, &buf)
	require.NoError(t, err)
	assert.Equal(t, "budget-June-2024.csv", name)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date,Type,Name,Amount,Category,Frequency", lines[0])
	assert.Equal(t, `"Jun 12, 2024",Income,Salary,1000.00,-,recurring`, lines[1])
	assert.Equal(t, `"Jun 1, 2024",Expense,Rent,-800.00,Uncategorized,Recurring`, lines[2])

	sheet := &fakeSheet{}
	n, err := svc.ExportToSheet(ctx, owner, sheet)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, sheet.values, 3)
	assert.Equal(t, "Salary", sheet.values[1][2])
}

func TestRecurringTemplates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	today := core.DateOf(fixedNow)

	_, err := svc.AddIncome(ctx, owner, core.IncomeEntry{Name: "Salary", Amount: core.Money{Cents: 100}, Date: today, Frequency: core.Recurring})
	require.NoError(t, err)
	_, err = svc.AddIncome(ctx, owner, core.IncomeEntry{Name: "Gift", Amount: core.Money{Cents: 100}, Date: today, Frequency: core.OneTime})
	require.NoError(t, err)

	tpl, err := svc.RecurringTemplates(ctx, owner)
	require.NoError(t, err)
	require.Len(t, tpl.Income, 1)
	assert.Equal(t, "Salary", tpl.Income[0].Name)
	assert.Empty(t, tpl.Expenses)
}
