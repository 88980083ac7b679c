package queue

import (
	"context"
	"sync"
	"time"
)

// MemoryBroker keeps tasks in a process-local channel. It serves the API
// process when no external broker is configured, and tests.
type MemoryBroker struct {
	tasks chan Delivery
	done  chan struct{}

	mu     sync.Mutex
	timers map[*time.Timer]struct{}
	closed bool
}

// NewMemoryBroker creates a broker with the given channel capacity.
func NewMemoryBroker(buffer int) *MemoryBroker {
	if buffer <= 0 {
		buffer = 256
	}
	return &MemoryBroker{
		tasks:  make(chan Delivery, buffer),
		done:   make(chan struct{}),
		timers: make(map[*time.Timer]struct{}),
	}
}

// Submit enqueues a task for immediate delivery.
func (b *MemoryBroker) Submit(ctx context.Context, name string, payload interface{}) error {
	return b.SubmitAfter(ctx, name, payload, 0)
}

// SubmitAfter enqueues a task once delay has elapsed.
func (b *MemoryBroker) SubmitAfter(ctx context.Context, name string, payload interface{}, delay time.Duration) error {
	task, err := NewTask(name, payload)
	if err != nil {
		return err
	}
	return b.schedule(ctx, task, delay)
}

func (b *MemoryBroker) schedule(ctx context.Context, task Task, delay time.Duration) error {
	if delay <= 0 {
		return b.enqueue(ctx, task)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		b.mu.Lock()
		delete(b.timers, timer)
		b.mu.Unlock()
		_ = b.enqueue(context.Background(), task)
	})
	b.timers[timer] = struct{}{}
	return nil
}

func (b *MemoryBroker) enqueue(ctx context.Context, task Task) error {
	select {
	case <-b.done:
		return ErrClosed
	default:
	}

	select {
	case b.tasks <- &memoryDelivery{task: task, broker: b}:
		return nil
	case <-b.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume returns the shared delivery channel. The channel is never closed;
// consumers stop on context cancellation.
func (b *MemoryBroker) Consume(ctx context.Context) (<-chan Delivery, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	return b.tasks, nil
}

// Pending returns the number of countdown tasks not yet enqueued.
func (b *MemoryBroker) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.timers)
}

// Close stops pending countdowns and rejects further submissions.
func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for timer := range b.timers {
		timer.Stop()
	}
	b.timers = nil
	close(b.done)
	return nil
}

type memoryDelivery struct {
	task   Task
	broker *MemoryBroker
}

func (d *memoryDelivery) Task() Task { return d.task }

func (d *memoryDelivery) Ack() error { return nil }

func (d *memoryDelivery) Redeliver(delay time.Duration) error {
	next := d.task
	next.Attempt++
	return d.broker.schedule(context.Background(), next, delay)
}
