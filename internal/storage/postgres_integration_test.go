//go:build integration

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"budget/internal/core"
)

func newPostgresRepo(t *testing.T) *Repository {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("budget"),
		postgres.WithUsername("budget"),
		postgres.WithPassword("budget"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	repo, err := NewPostgresRepository(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestPostgresPaymentFlow(t *testing.T) {
	ctx := context.Background()
	repo := newPostgresRepo(t)
	require.Equal(t, Postgres, repo.Dialect())

	debt, err := repo.CreateDebt(ctx, core.Debt{ID: uuid.NewString(), OwnerID: "alice", Name: "Car", TotalBalance: core.Money{Cents: 500000}})
	require.NoError(t, err)

	p := core.DebtPayment{
		ID: uuid.NewString(), DebtID: debt.ID, OwnerID: "alice",
		Amount: core.Money{Cents: 20000}, PaidAt: time.Now().UTC(), MirrorKey: debt.ID + ":pg",
	}
	updated, err := repo.ApplyPayment(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, int64(20000), updated.AmountPaid.Cents)

	mirror := core.MirrorExpense(updated, p)
	mirror.ID = uuid.NewString()
	created, err := repo.CreateMirrorExpense(ctx, mirror)
	require.NoError(t, err)
	assert.True(t, created)

	mirror.ID = uuid.NewString()
	created, err = repo.CreateMirrorExpense(ctx, mirror)
	require.NoError(t, err)
	assert.False(t, created)

	expenses, err := repo.ListExpenses(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.True(t, expenses[0].IsDebtPayment())
}

func TestPostgresProfileAndVisit(t *testing.T) {
	ctx := context.Background()
	repo := newPostgresRepo(t)

	p, err := repo.UpsertProfile(ctx, core.DefaultProfile("bob"))
	require.NoError(t, err)
	assert.Equal(t, core.DefaultCurrency, p.Currency)

	_, found, err := repo.LastVisit(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, found)
}
