// Package queue is the asynchronous task layer between the request path and
// the payment workers. Delivery is at-least-once: handlers must tolerate
// seeing the same task more than once.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"directpay/internal/uuid"
)

// ErrClosed is returned when submitting to a broker that has been closed.
var ErrClosed = errors.New("queue: broker closed")

// Task is one unit of work addressed to a named handler.
type Task struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Payload    json.RawMessage `json:"payload"`
	Attempt    int             `json:"attempt"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// NewTask encodes payload as JSON and wraps it in a first-attempt task.
func NewTask(name string, payload interface{}) (Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Task{}, fmt.Errorf("encode %s payload: %w", name, err)
	}
	return Task{
		ID:         uuid.New(),
		Name:       name,
		Payload:    body,
		Attempt:    1,
		EnqueuedAt: time.Now().UTC(),
	}, nil
}

// Decode unmarshals the task payload into v.
func (t Task) Decode(v interface{}) error {
	if err := json.Unmarshal(t.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", t.Name, err)
	}
	return nil
}

// Submitter enqueues tasks without waiting for them to run.
type Submitter interface {
	Submit(ctx context.Context, name string, payload interface{}) error
	// SubmitAfter makes the task visible to workers once delay has elapsed.
	// No worker is occupied while the countdown runs.
	SubmitAfter(ctx context.Context, name string, payload interface{}, delay time.Duration) error
}

// Delivery is a task handed to a consumer. Exactly one of Ack or Redeliver
// must be called.
type Delivery interface {
	Task() Task
	Ack() error
	// Redeliver settles this copy and schedules the next attempt after delay.
	Redeliver(delay time.Duration) error
}

// Broker is a task transport.
type Broker interface {
	Submitter
	Consume(ctx context.Context) (<-chan Delivery, error)
	Close() error
}
