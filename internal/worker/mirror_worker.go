// Package worker re-runs the expense mirror step for debt payments whose
// mirror could not be written at request time.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"budget/internal/amqp"
	"budget/internal/log"
)

// Mirrorer is the part of the budget service the worker drives.
type Mirrorer interface {
	MirrorPayment(ctx context.Context, mirrorKey string) error
	ReconcileMirrors(ctx context.Context, limit int) (int, error)
}

// MirrorWorker handles payment-recorded messages and periodically sweeps the
// payment ledger in case a message was lost.
type MirrorWorker struct {
	mirrors   Mirrorer
	batchSize int
	logger    *log.Logger
}

func NewMirrorWorker(mirrors Mirrorer, batchSize int, logger *log.Logger) *MirrorWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &MirrorWorker{
		mirrors:   mirrors,
		batchSize: batchSize,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandlePaymentRecorded mirrors the payment named by msg.
func (w *MirrorWorker) HandlePaymentRecorded(ctx context.Context, msg *amqp.PaymentRecordedMessage) error {
	w.logger.InfoContext(ctx, "Processing payment message",
		log.FieldMirrorKey, msg.MirrorKey,
		log.FieldDebtID, msg.DebtID)

	if err := w.mirrors.MirrorPayment(ctx, msg.MirrorKey); err != nil {
		return fmt.Errorf("mirror payment %s: %w", msg.MirrorKey, err)
	}
	return nil
}

// ProcessPending runs one reconciliation batch.
func (w *MirrorWorker) ProcessPending(ctx context.Context) (int, error) {
	n, err := w.mirrors.ReconcileMirrors(ctx, w.batchSize)
	if err != nil {
		return n, fmt.Errorf("reconcile mirrors: %w", err)
	}
	if n > 0 {
		w.logger.InfoContext(ctx, "Reconciled payment mirrors", log.FieldCount, n)
	}
	return n, nil
}

// StartupCheck drains the backlog left while the worker was down, a few
// batches at a time.
func (w *MirrorWorker) StartupCheck(ctx context.Context) error {
	total := 0
	for i := 0; i < 5; i++ {
		n, err := w.ProcessPending(ctx)
		total += n
		if err != nil {
			return err
		}
		if n < w.batchSize {
			break
		}
	}
	w.logger.InfoContext(ctx, "Startup reconciliation completed", log.FieldCount, total)
	return nil
}

// Run sweeps every interval until ctx is done. Sweep failures are logged and
// retried on the next tick.
func (w *MirrorWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.ProcessPending(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.LogError(ctx, "Periodic reconciliation failed", err, log.OpReconcile, log.ErrorTypeDatabase, nil)
			}
		}
	}
}
