package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"budget/internal/budget"
	"budget/internal/cache"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/ports"
)

// PaymentPublisher announces payments whose mirror still has to be written.
type PaymentPublisher interface {
	PublishPaymentRecorded(ctx context.Context, p core.DebtPayment) error
}

// BudgetService orchestrates every owner-scoped operation over a store.
// Reads go through a per-owner snapshot cache that each mutation clears.
type BudgetService struct {
	store     ports.Store
	snapshots cache.Cache[budget.Snapshot]
	publisher PaymentPublisher
	logger    *log.Logger
	clock     func() time.Time
	newID     func() string

	// generations counts mutations per owner; a snapshot loaded across a
	// mutation is not cached.
	genMu       sync.Mutex
	generations map[string]uint64
}

type Option func(*BudgetService)

func WithCache(c cache.Cache[budget.Snapshot]) Option {
	return func(s *BudgetService) { s.snapshots = c }
}

func WithPublisher(p PaymentPublisher) Option {
	return func(s *BudgetService) { s.publisher = p }
}

func WithLogger(l *log.Logger) Option {
	return func(s *BudgetService) { s.logger = l.WithComponent(log.ComponentBudget) }
}

// WithClock replaces time.Now; tests pin "now" with it.
func WithClock(clock func() time.Time) Option {
	return func(s *BudgetService) { s.clock = clock }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *BudgetService) { s.newID = newID }
}

func NewBudgetService(store ports.Store, opts ...Option) *BudgetService {
	s := &BudgetService{
		store:       store,
		logger:      log.New(log.DefaultConfig()).WithComponent(log.ComponentBudget),
		clock:       time.Now,
		newID:       uuid.NewString,
		generations: make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now is the service clock.
func (s *BudgetService) Now() time.Time { return s.clock() }

func requireOwner(ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return core.ErrNotAuthenticated
	}
	return nil
}

func (s *BudgetService) invalidate(ownerID string) {
	if s.snapshots == nil {
		return
	}
	s.genMu.Lock()
	defer s.genMu.Unlock()
	s.generations[ownerID]++
	s.snapshots.Delete(ownerID)
}

func (s *BudgetService) generation(ownerID string) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.generations[ownerID]
}

// cacheSnapshot stores snap unless the owner was mutated after gen was read.
func (s *BudgetService) cacheSnapshot(ownerID string, gen uint64, snap budget.Snapshot) {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	if s.generations[ownerID] != gen {
		return
	}
	s.snapshots.Set(ownerID, snap)
}

// Snapshot loads the owner's five collections concurrently. The profile is
// created with defaults on first access.
func (s *BudgetService) Snapshot(ctx context.Context, ownerID string) (budget.Snapshot, error) {
	if err := requireOwner(ownerID); err != nil {
		return budget.Snapshot{}, err
	}
	var gen uint64
	if s.snapshots != nil {
		if snap, ok := s.snapshots.Get(ownerID); ok {
			return snap, nil
		}
		gen = s.generation(ownerID)
	}

	var snap budget.Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.Profile, err = s.Profile(gctx, ownerID)
		return err
	})
	g.Go(func() (err error) {
		snap.Income, err = s.store.ListIncome(gctx, ownerID)
		return err
	})
	g.Go(func() (err error) {
		snap.Categories, err = s.store.ListCategories(gctx, ownerID)
		return err
	})
	g.Go(func() (err error) {
		snap.Expenses, err = s.store.ListExpenses(gctx, ownerID)
		return err
	})
	g.Go(func() (err error) {
		snap.Debts, err = s.store.ListDebts(gctx, ownerID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.LogError(ctx, "Failed to load snapshot", err, log.OpSnapshot, errorType(err), log.NewFields().WithOwner(ownerID))
		return budget.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}

	if s.snapshots != nil {
		s.cacheSnapshot(ownerID, gen, snap)
	}
	return snap, nil
}

// Overview derives the dashboard with one reading of the clock.
func (s *BudgetService) Overview(ctx context.Context, ownerID string) (budget.Overview, error) {
	snap, err := s.Snapshot(ctx, ownerID)
	if err != nil {
		return budget.Overview{}, err
	}
	return budget.Derive(snap, s.clock()), nil
}

// errorType maps an error to its log category.
func errorType(err error) string {
	switch {
	case errors.Is(err, core.ErrNotAuthenticated):
		return log.ErrorTypeAuth
	case errors.Is(err, core.ErrNotFound):
		return log.ErrorTypeNotFound
	case core.IsValidationError(err):
		return log.ErrorTypeValidation
	case core.IsStoreError(err):
		return log.ErrorTypeDatabase
	default:
		return log.ErrorTypeInternal
	}
}
