package processor

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	apperrors "directpay/internal/errors"
	"directpay/internal/logger"
	"directpay/internal/models"
	"directpay/internal/services"
)

const sweepBatchSize = 100

// Reconciler finds transactions whose settlement was lost. Pending rows that
// sat too long are dispatched again; processing rows that never finished are
// failed so the client can retry them.
type Reconciler struct {
	payments        services.PaymentServicer
	dispatcher      services.Dispatcher
	pendingAfter    time.Duration
	processingAfter time.Duration
	now             func() time.Time
	log             *zap.SugaredLogger
}

// NewReconciler creates a Reconciler.
func NewReconciler(payments services.PaymentServicer, dispatcher services.Dispatcher, pendingAfter, processingAfter time.Duration) *Reconciler {
	return &Reconciler{
		payments:        payments,
		dispatcher:      dispatcher,
		pendingAfter:    pendingAfter,
		processingAfter: processingAfter,
		now:             func() time.Time { return time.Now().UTC() },
		log:             logger.With("component", "reconciler"),
	}
}

// SweepResult counts what one sweep did.
type SweepResult struct {
	Redispatched int
	TimedOut     int
}

// Sweep runs one reconciliation pass.
func (r *Reconciler) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult
	now := r.now()

	pending, err := r.payments.ListStale(ctx, models.TransactionStatusPending, now.Add(-r.pendingAfter), sweepBatchSize)
	if err != nil {
		return result, err
	}
	for _, txn := range pending {
		if err := r.dispatcher.DispatchPayment(ctx, txn.ID); err != nil {
			r.log.Warnw("failed to re-dispatch pending transaction", "transaction_id", txn.ID, "error", err)
			continue
		}
		result.Redispatched++
	}

	processing, err := r.payments.ListStale(ctx, models.TransactionStatusProcessing, now.Add(-r.processingAfter), sweepBatchSize)
	if err != nil {
		return result, err
	}
	for _, txn := range processing {
		_, err := r.payments.UpdateStatus(ctx, txn.ID, models.TransactionStatusFailed, ReasonSettlementTimeout)
		if errors.Is(err, apperrors.ErrInvalidStatusTransition) {
			continue
		}
		if err != nil {
			r.log.Warnw("failed to time out processing transaction", "transaction_id", txn.ID, "error", err)
			continue
		}
		result.TimedOut++
	}

	if result.Redispatched > 0 || result.TimedOut > 0 {
		r.log.Infow("reconciliation sweep finished",
			"redispatched", result.Redispatched,
			"timed_out", result.TimedOut,
		)
	}
	return result, nil
}

// Schedule registers the sweep on c under spec, e.g. "@every 1m".
func (r *Reconciler) Schedule(ctx context.Context, c *cron.Cron, spec string) (cron.EntryID, error) {
	return c.AddFunc(spec, func() {
		if _, err := r.Sweep(ctx); err != nil {
			r.log.Errorw("reconciliation sweep failed", "error", err)
		}
	})
}

// NewCron returns a UTC scheduler that skips a run while the previous one is
// still going and logs through zap.
func NewCron() *cron.Cron {
	l := cronLogger{log: logger.With("component", "cron")}
	return cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(l),
		cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
	)
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
