// Package worker assembles the settlement runtime: the task broker, the
// worker pool running the rail processor and the reconciliation cron.
package worker

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"directpay/internal/config"
	"directpay/internal/logger"
	"directpay/internal/processor"
	"directpay/internal/queue"
	"directpay/internal/services"
)

const memoryBrokerBuffer = 1024

// NewBroker returns the broker selected by cfg.QueueBackend.
func NewBroker(cfg *config.Config) (queue.Broker, error) {
	switch cfg.QueueBackend {
	case config.QueueBackendRabbitMQ:
		broker, err := queue.NewRabbitBroker(queue.RabbitConfig{
			URL:      cfg.RabbitMQURL,
			Exchange: cfg.RabbitMQExchange,
			Queue:    cfg.RabbitMQQueue,
			Prefetch: cfg.WorkerConcurrency * 2,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
		}
		return broker, nil
	default:
		return queue.NewMemoryBroker(memoryBrokerBuffer), nil
	}
}

// Worker settles payments from broker until its context is cancelled.
type Worker struct {
	cfg        *config.Config
	pool       *queue.Pool
	reconciler *processor.Reconciler
	log        *zap.SugaredLogger
}

// New wires a processor and a reconciler onto a pool consuming broker.
func New(cfg *config.Config, broker queue.Broker, payments services.PaymentServicer, schedules services.ScheduleServicer) *Worker {
	policy := processor.NewSimulatedRails(cfg.RailFailureRate, cfg.RailDelayScale)
	proc := processor.New(payments, schedules, broker, policy)

	pool := queue.NewPool(broker, queue.PoolConfig{
		Concurrency:  cfg.WorkerConcurrency,
		MaxAttempts:  cfg.TaskMaxAttempts,
		RetryBackoff: cfg.TaskRetryBackoff,
	})
	proc.Register(pool)

	return &Worker{
		cfg:  cfg,
		pool: pool,
		reconciler: processor.NewReconciler(payments, processor.NewDispatcher(broker),
			cfg.ReconcilePendingAfter, cfg.ReconcileProcessingAfter),
		log: logger.With("component", "worker"),
	}
}

// Run starts the reconciliation cron and blocks in the pool until ctx is
// cancelled and in-flight tasks have finished.
func (w *Worker) Run(ctx context.Context) error {
	c := processor.NewCron()
	if _, err := w.reconciler.Schedule(ctx, c, w.cfg.ReconcileSchedule); err != nil {
		return fmt.Errorf("failed to schedule reconciliation: %w", err)
	}
	c.Start()
	defer func() {
		<-c.Stop().Done()
		w.log.Info("reconciliation cron stopped")
	}()

	w.log.Infow("worker started",
		"backend", w.cfg.QueueBackend,
		"concurrency", w.cfg.WorkerConcurrency,
		"reconcile_schedule", w.cfg.ReconcileSchedule,
	)
	return w.pool.Run(ctx)
}
