package queue

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"

	"directpay/internal/logger"
)

// Handler runs one task. A returned error asks the pool to redeliver it.
type Handler func(ctx context.Context, task Task) error

// PoolConfig tunes a worker pool.
type PoolConfig struct {
	Concurrency  int
	MaxAttempts  int
	RetryBackoff time.Duration
}

// Pool fans deliveries out to a fixed number of workers.
type Pool struct {
	broker   Broker
	cfg      PoolConfig
	log      *zap.SugaredLogger
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewPool creates a pool consuming from broker.
func NewPool(broker Broker, cfg PoolConfig) *Pool {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 5 * time.Second
	}
	return &Pool{
		broker:   broker,
		cfg:      cfg,
		log:      logger.With("component", "worker_pool"),
		handlers: make(map[string]Handler),
	}
}

// Handle registers h for tasks named name.
func (p *Pool) Handle(name string, h Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[name] = h
}

// Run consumes until ctx is cancelled and all in-flight tasks finish.
func (p *Pool) Run(ctx context.Context) error {
	deliveries, err := p.broker.Consume(ctx)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	p.log.Infow("worker pool started", "concurrency", p.cfg.Concurrency)

	var wg sync.WaitGroup
	for i := 0; i < p.cfg.Concurrency; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case d, ok := <-deliveries:
					if !ok {
						return
					}
					p.dispatch(ctx, worker, d)
				}
			}
		}(i)
	}

	wg.Wait()
	p.log.Info("worker pool stopped")
	return nil
}

func (p *Pool) dispatch(ctx context.Context, worker int, d Delivery) {
	task := d.Task()
	log := p.log.With("worker", worker, "task", task.Name, "task_id", task.ID, "attempt", task.Attempt)

	p.mu.RLock()
	handler, ok := p.handlers[task.Name]
	p.mu.RUnlock()
	if !ok {
		log.Errorw("no handler registered, dropping task")
		p.ack(log, d)
		return
	}

	err := p.invoke(ctx, handler, task)
	if err == nil {
		p.ack(log, d)
		return
	}

	if task.Attempt >= p.cfg.MaxAttempts {
		log.Errorw("task failed permanently, dropping", "error", err)
		p.ack(log, d)
		return
	}

	delay := p.cfg.RetryBackoff * time.Duration(task.Attempt)
	log.Warnw("task failed, scheduling redelivery", "error", err, "delay", delay)
	if rErr := d.Redeliver(delay); rErr != nil {
		log.Errorw("failed to redeliver task", "error", rErr)
	}
}

func (p *Pool) invoke(ctx context.Context, handler Handler, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v\n%s", r, debug.Stack())
		}
	}()
	return handler(ctx, task)
}

func (p *Pool) ack(log *zap.SugaredLogger, d Delivery) {
	if err := d.Ack(); err != nil {
		log.Warnw("failed to ack task", "error", err)
	}
}
