// Package processor settles payments asynchronously. It is the only caller of
// the engine's status transitions outside the request path.
package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	apperrors "directpay/internal/errors"
	"directpay/internal/logger"
	"directpay/internal/models"
	"directpay/internal/queue"
	"directpay/internal/services"
)

// WaitFunc blocks for d or until ctx is done.
type WaitFunc func(ctx context.Context, d time.Duration) error

// Sleep is the production WaitFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Processor drives a transaction from pending to a settled state.
type Processor struct {
	payments  services.PaymentServicer
	schedules services.ScheduleServicer
	submitter queue.Submitter
	policy    SettlementPolicy
	log       *zap.SugaredLogger

	// Wait is swapped out in tests so settlement does not sleep.
	Wait WaitFunc
}

// New creates a Processor.
func New(payments services.PaymentServicer, schedules services.ScheduleServicer, submitter queue.Submitter, policy SettlementPolicy) *Processor {
	return &Processor{
		payments:  payments,
		schedules: schedules,
		submitter: submitter,
		policy:    policy,
		log:       logger.With("component", "rail_processor"),
		Wait:      Sleep,
	}
}

// Process settles one transaction. It is safe to call repeatedly for the same
// id: anything other than a pending transaction is left alone, apart from
// re-submitting an automatic retry that may have been lost.
func (p *Processor) Process(ctx context.Context, transactionID string) error {
	log := p.log.With("transaction_id", transactionID)

	txn, err := p.payments.GetTransaction(ctx, transactionID)
	if errors.Is(err, apperrors.ErrTransactionNotFound) {
		log.Warn("transaction not found, dropping task")
		return nil
	}
	if err != nil {
		return err
	}

	if txn.Status.IsTerminal() {
		if txn.Status == models.TransactionStatusFailed && txn.FailureReason != nil &&
			p.shouldAutoRetry(*txn.FailureReason, txn) {
			return p.scheduleRetry(ctx, txn)
		}
		log.Debugw("transaction settled, skipping", "status", txn.Status)
		return nil
	}
	if txn.Status != models.TransactionStatusPending {
		log.Debugw("transaction not pending, skipping", "status", txn.Status)
		return nil
	}

	txn, err = p.payments.UpdateStatus(ctx, transactionID, models.TransactionStatusProcessing, "")
	if errors.Is(err, apperrors.ErrInvalidStatusTransition) {
		log.Infow("transaction claimed by another delivery")
		return nil
	}
	if err != nil {
		return err
	}

	cycleDue := p.cycleDue(ctx, txn.LeaseID)

	delay := p.policy.Delay(txn.PaymentRailType)
	log.Infow("settling payment", "rail", txn.PaymentRailType, "delay", delay)
	if err := p.Wait(ctx, delay); err != nil {
		// The row stays processing; the reconciliation sweep times it out.
		log.Warnw("settlement wait interrupted", "error", err)
		return nil
	}

	outcome := p.policy.Outcome()
	if outcome.Failed {
		return p.fail(ctx, txn, outcome.Reason)
	}
	return p.complete(ctx, txn, cycleDue)
}

// HandleRetry applies the automatic retry that was scheduled when the
// transaction's retry count was expectedRetryCount, then processes it.
func (p *Processor) HandleRetry(ctx context.Context, transactionID string, expectedRetryCount int) error {
	log := p.log.With("transaction_id", transactionID, "expected_retry_count", expectedRetryCount)

	txn, err := p.payments.RetryPaymentIfAt(ctx, transactionID, expectedRetryCount)
	if err == nil {
		log.Infow("automatic retry applied", "retry_count", txn.RetryCount)
		return p.Process(ctx, txn.ID)
	}
	if !retryPrecondition(err) {
		return err
	}

	// A previous delivery may have applied the retry and died before
	// processing it.
	current, getErr := p.payments.GetTransaction(ctx, transactionID)
	if getErr == nil && current.Status == models.TransactionStatusPending && current.RetryCount == expectedRetryCount+1 {
		return p.Process(ctx, current.ID)
	}

	log.Infow("automatic retry no longer applicable", "reason", err.Error())
	return nil
}

func (p *Processor) fail(ctx context.Context, txn *models.Transaction, reason string) error {
	failed, err := p.payments.UpdateStatus(ctx, txn.ID, models.TransactionStatusFailed, reason)
	if errors.Is(err, apperrors.ErrInvalidStatusTransition) {
		p.log.Warnw("transaction settled elsewhere before failure was recorded", "transaction_id", txn.ID)
		return nil
	}
	if err != nil {
		return err
	}

	p.log.Infow("payment failed", "transaction_id", txn.ID, "reason", reason, "retry_count", failed.RetryCount)
	if p.shouldAutoRetry(reason, failed) {
		return p.scheduleRetry(ctx, failed)
	}
	return nil
}

func (p *Processor) complete(ctx context.Context, txn *models.Transaction, cycleDue time.Time) error {
	_, err := p.payments.UpdateStatus(ctx, txn.ID, models.TransactionStatusCompleted, "")
	if errors.Is(err, apperrors.ErrInvalidStatusTransition) {
		p.log.Warnw("transaction settled elsewhere before completion was recorded", "transaction_id", txn.ID)
		return nil
	}
	if err != nil {
		return err
	}
	p.log.Infow("payment completed", "transaction_id", txn.ID)

	if cycleDue.IsZero() {
		return nil
	}
	if _, _, err := p.schedules.AdvanceSchedule(ctx, txn.LeaseID, cycleDue); err != nil {
		// Redelivery would find the transaction completed and skip, so there
		// is nothing to gain by failing the task.
		p.log.Errorw("failed to advance payment schedule",
			"transaction_id", txn.ID,
			"lease_id", txn.LeaseID,
			"error", err,
		)
	}
	return nil
}

// cycleDue is the billing cycle this settlement pays for. Zero means the
// lease has no schedule.
func (p *Processor) cycleDue(ctx context.Context, leaseID string) time.Time {
	schedule, err := p.schedules.GetByLease(ctx, leaseID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrScheduleNotFound) {
			p.log.Warnw("failed to read payment schedule", "lease_id", leaseID, "error", err)
		}
		return time.Time{}
	}
	return schedule.NextDueDate
}

func (p *Processor) shouldAutoRetry(reason string, txn *models.Transaction) bool {
	return autoRetryable(reason) && txn.RetriesLeft() > 0
}

func (p *Processor) scheduleRetry(ctx context.Context, txn *models.Transaction) error {
	delay := retryDelay(txn.RetryCount)
	payload := RetryPayload{TransactionID: txn.ID, ExpectedRetryCount: txn.RetryCount}
	if err := p.submitter.SubmitAfter(ctx, TaskRetry, payload, delay); err != nil {
		return fmt.Errorf("schedule automatic retry: %w", err)
	}
	p.log.Infow("automatic retry scheduled",
		"transaction_id", txn.ID,
		"retry_count", txn.RetryCount,
		"delay", delay,
	)
	return nil
}

func retryPrecondition(err error) bool {
	return errors.Is(err, apperrors.ErrRetryNotAllowed) ||
		errors.Is(err, apperrors.ErrRetryBudgetExhausted) ||
		errors.Is(err, apperrors.ErrTransactionNotFound)
}
