package processor

import (
	"context"

	"directpay/internal/queue"
)

// Task names.
const (
	TaskProcess = "payment.process"
	TaskRetry   = "payment.retry"
)

// ProcessPayload is the body of a payment.process task.
type ProcessPayload struct {
	TransactionID string `json:"transaction_id"`
}

// RetryPayload is the body of a payment.retry task.
type RetryPayload struct {
	TransactionID      string `json:"transaction_id"`
	ExpectedRetryCount int    `json:"expected_retry_count"`
}

// Dispatcher submits payment.process tasks. It satisfies the engine's
// services.Dispatcher.
type Dispatcher struct {
	submitter queue.Submitter
}

// NewDispatcher creates a Dispatcher backed by submitter.
func NewDispatcher(submitter queue.Submitter) *Dispatcher {
	return &Dispatcher{submitter: submitter}
}

// DispatchPayment enqueues settlement of transactionID.
func (d *Dispatcher) DispatchPayment(ctx context.Context, transactionID string) error {
	return d.submitter.Submit(ctx, TaskProcess, ProcessPayload{TransactionID: transactionID})
}

// Register binds the payment tasks to p.
func (p *Processor) Register(pool *queue.Pool) {
	pool.Handle(TaskProcess, func(ctx context.Context, task queue.Task) error {
		var payload ProcessPayload
		if err := task.Decode(&payload); err != nil {
			p.log.Errorw("dropping malformed task", "task_id", task.ID, "error", err)
			return nil
		}
		return p.Process(ctx, payload.TransactionID)
	})
	pool.Handle(TaskRetry, func(ctx context.Context, task queue.Task) error {
		var payload RetryPayload
		if err := task.Decode(&payload); err != nil {
			p.log.Errorw("dropping malformed task", "task_id", task.ID, "error", err)
			return nil
		}
		return p.HandleRetry(ctx, payload.TransactionID, payload.ExpectedRetryCount)
	})
}
