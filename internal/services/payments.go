package services

import (
	"context"
	"errors"
	"fmt"

	"budget/internal/core"
	"budget/internal/log"
)

// MirrorWarning is returned when the payment was applied but its expense
// mirror has not been written yet.
const MirrorWarning = "Payment recorded, but the matching expense could not be created yet. It will be added automatically."

// PaymentResult is the outcome of RecordPayment. Mirror is nil when Warning
// is set.
type PaymentResult struct {
	Debt    core.Debt        `json:"debt"`
	Payment core.DebtPayment `json:"payment"`
	Mirror  *core.Expense    `json:"mirror,omitempty"`
	Warning string           `json:"warning,omitempty"`
}

// RecordPayment applies amount to debt debtID and mirrors it as an expense.
// Only a failure of the increment fails the call; a failed mirror becomes a
// warning and is retried by the worker.
func (s *BudgetService) RecordPayment(ctx context.Context, ownerID, debtID string, amount core.Money) (PaymentResult, error) {
	if err := requireOwner(ownerID); err != nil {
		return PaymentResult{}, err
	}
	if err := amount.RequirePositive(); err != nil {
		return PaymentResult{}, err
	}

	paidAt := s.clock()
	payment := core.DebtPayment{
		ID:      s.newID(),
		DebtID:  debtID,
		OwnerID: ownerID,
		Amount:  amount,
		PaidAt:  paidAt,
		PaidOn:  core.DateOf(paidAt),
	}
	payment.MirrorKey = core.PaymentMirrorKey(debtID, payment.ID, paidAt)
	fields := log.NewFields().WithOwner(ownerID).WithPayment(debtID, payment.MirrorKey, amount.Cents)

	debt, err := s.store.ApplyPayment(ctx, payment)
	if err != nil {
		s.logger.LogError(ctx, "Failed to apply debt payment", err, log.OpRecordPayment, errorType(err), fields)
		return PaymentResult{}, fmt.Errorf("record payment: %w", err)
	}
	s.invalidate(ownerID)
	s.logger.InfoContext(ctx, "Debt payment applied", fields.Args()...)

	result := PaymentResult{Debt: debt, Payment: payment}
	mirror, err := s.mirror(ctx, debt, payment)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to mirror debt payment, scheduling retry",
			log.NewFields().WithOwner(ownerID).WithPayment(debtID, payment.MirrorKey, amount.Cents).WithError(err, errorType(err)).Args()...)
		result.Warning = MirrorWarning
		s.publish(ctx, payment)
		return result, nil
	}
	result.Mirror = &mirror
	result.Payment.MirroredAt = mirror.CreatedAt
	return result, nil
}

// mirror writes the payment's expense if absent and marks the ledger row.
func (s *BudgetService) mirror(ctx context.Context, debt core.Debt, p core.DebtPayment) (core.Expense, error) {
	e := core.MirrorExpense(debt, p)
	e.ID = s.newID()
	e.CreatedAt = s.clock().UTC()
	if _, err := s.store.CreateMirrorExpense(ctx, e); err != nil {
		return core.Expense{}, err
	}
	if err := s.store.MarkPaymentMirrored(ctx, p.MirrorKey, e.CreatedAt); err != nil {
		return core.Expense{}, err
	}
	s.invalidate(debt.OwnerID)
	return e, nil
}

func (s *BudgetService) publish(ctx context.Context, p core.DebtPayment) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishPaymentRecorded(ctx, p); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish payment for retry, reconciler will pick it up",
			log.NewFields().WithPayment(p.DebtID, p.MirrorKey, p.Amount.Cents).WithError(err, log.ErrorTypeNetwork).Args()...)
	}
}

// MirrorPayment re-runs the mirror step for one ledger row. Rows already
// mirrored, or whose debt is gone, are skipped.
func (s *BudgetService) MirrorPayment(ctx context.Context, mirrorKey string) error {
	p, err := s.store.GetPayment(ctx, mirrorKey)
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load payment: %w", err)
	}
	if !p.MirroredAt.IsZero() {
		return nil
	}
	debt, err := s.store.GetDebt(ctx, p.OwnerID, p.DebtID)
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load debt: %w", err)
	}
	if _, err := s.mirror(ctx, debt, p); err != nil {
		return fmt.Errorf("mirror payment: %w", err)
	}
	s.logger.InfoContext(ctx, "Mirrored debt payment", log.NewFields().WithOperation(log.OpMirror).WithPayment(p.DebtID, p.MirrorKey, p.Amount.Cents).Args()...)
	return nil
}

// ReconcileMirrors retries up to limit unmirrored payments and returns how
// many were mirrored. A failing row is logged and skipped so it cannot hold
// back the rows behind it; the failures are joined into the returned error.
func (s *BudgetService) ReconcileMirrors(ctx context.Context, limit int) (int, error) {
	pending, err := s.store.ListUnmirroredPayments(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list unmirrored payments: %w", err)
	}
	done := 0
	var failed []error
	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		if err := s.MirrorPayment(ctx, p.MirrorKey); err != nil {
			s.logger.LogError(ctx, "Failed to mirror payment, skipping", err, log.OpReconcile, errorType(err),
				log.NewFields().WithOwner(p.OwnerID).WithPayment(p.DebtID, p.MirrorKey, p.Amount.Cents))
			failed = append(failed, err)
			continue
		}
		done++
	}
	return done, errors.Join(failed...)
}

func isNotFound(err error) bool {
	return errors.Is(err, core.ErrNotFound)
}
