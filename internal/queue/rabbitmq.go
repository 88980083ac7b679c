package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"directpay/internal/logger"
)

// RabbitConfig names the exchange and work queue the broker declares.
type RabbitConfig struct {
	URL      string
	Exchange string
	Queue    string
	Prefetch int
}

// RabbitBroker moves tasks through a durable RabbitMQ work queue. Delayed
// tasks wait in per-delay holding queues whose messages dead-letter back to
// the work queue when their TTL expires.
type RabbitBroker struct {
	cfg  RabbitConfig
	conn *amqp.Connection
	log  *zap.SugaredLogger

	// amqp channels are not safe for concurrent publishing. pubCh is
	// reopened under pubMu after a channel-level error closes it.
	pubMu  sync.Mutex
	pubCh  *amqp.Channel
	consCh *amqp.Channel

	declMu   sync.Mutex
	declared map[time.Duration]time.Time
}

// delayQueueRefresh bounds how long a holding queue declaration is trusted.
// Redeclaring renews the queue's x-expires lease, which publishing does not.
const delayQueueRefresh = 30 * time.Minute

// NewRabbitBroker connects and declares the exchange and work queue.
func NewRabbitBroker(cfg RabbitConfig) (*RabbitBroker, error) {
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 8
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	pubCh, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	b := &RabbitBroker{
		cfg:      cfg,
		conn:     conn,
		log:      logger.With("component", "rabbitmq_broker", "queue", cfg.Queue),
		pubCh:    pubCh,
		declared: make(map[time.Duration]time.Time),
	}

	if err := b.declareTopology(pubCh); err != nil {
		b.Close()
		return nil, err
	}

	b.log.Infow("RabbitMQ broker initialized", "exchange", cfg.Exchange)
	return b, nil
}

func (b *RabbitBroker) declareTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(
		b.cfg.Exchange, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(
		b.cfg.Queue, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	); err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(b.cfg.Queue, b.cfg.Queue, b.cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}
	return nil
}

// channel returns the publish channel, reopening it if the server closed it.
// Callers hold pubMu.
func (b *RabbitBroker) channel() (*amqp.Channel, error) {
	if b.pubCh != nil && !b.pubCh.IsClosed() {
		return b.pubCh, nil
	}
	if b.conn.IsClosed() {
		return nil, fmt.Errorf("RabbitMQ connection closed: %w", ErrClosed)
	}

	ch, err := b.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to reopen publish channel: %w", err)
	}
	b.pubCh = ch
	b.log.Warn("publish channel reopened")

	// The failure may have been a declaration, so trust none of them.
	b.declMu.Lock()
	b.declared = make(map[time.Duration]time.Time)
	b.declMu.Unlock()
	return ch, nil
}

func needsDeclare(declaredAt time.Time, ok bool, now time.Time) bool {
	return !ok || now.Sub(declaredAt) >= delayQueueRefresh
}

// delayQueue declares a holding queue per distinct delay that expires
// messages into the work queue, and redeclares it periodically to keep it
// from expiring while in use.
func (b *RabbitBroker) delayQueue(delay time.Duration) (string, error) {
	ttl := delay.Milliseconds()
	name := fmt.Sprintf("%s.delay.%d", b.cfg.Queue, ttl)
	now := time.Now()

	b.declMu.Lock()
	declaredAt, ok := b.declared[delay]
	b.declMu.Unlock()
	if !needsDeclare(declaredAt, ok, now) {
		return name, nil
	}

	args := amqp.Table{
		"x-message-ttl":             ttl,
		"x-dead-letter-exchange":    b.cfg.Exchange,
		"x-dead-letter-routing-key": b.cfg.Queue,
		// Drop idle holding queues a while after their last message expires.
		"x-expires": ttl + time.Hour.Milliseconds(),
	}

	b.pubMu.Lock()
	defer b.pubMu.Unlock()
	ch, err := b.channel()
	if err != nil {
		return "", err
	}
	if _, err := ch.QueueDeclare(name, true, false, false, false, args); err != nil {
		return "", fmt.Errorf("failed to declare delay queue %s: %w", name, err)
	}

	b.declMu.Lock()
	b.declared[delay] = now
	b.declMu.Unlock()
	return name, nil
}

// Submit publishes a task for immediate delivery.
func (b *RabbitBroker) Submit(ctx context.Context, name string, payload interface{}) error {
	return b.SubmitAfter(ctx, name, payload, 0)
}

// SubmitAfter publishes a task that becomes visible after delay.
func (b *RabbitBroker) SubmitAfter(ctx context.Context, name string, payload interface{}, delay time.Duration) error {
	task, err := NewTask(name, payload)
	if err != nil {
		return err
	}
	return b.publish(ctx, task, delay)
}

func (b *RabbitBroker) publish(ctx context.Context, task Task, delay time.Duration) error {
	body, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}

	exchange, routingKey := b.cfg.Exchange, b.cfg.Queue
	if delay > 0 {
		holding, err := b.delayQueue(delay)
		if err != nil {
			return err
		}
		// The default exchange routes directly by queue name.
		exchange, routingKey = "", holding
	}

	b.pubMu.Lock()
	defer b.pubMu.Unlock()
	ch, err := b.channel()
	if err != nil {
		return err
	}
	err = ch.PublishWithContext(ctx,
		exchange,   // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    task.ID,
			Type:         task.Name,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish task %s: %w", task.Name, err)
	}
	return nil
}

// Consume registers a manual-ack consumer and adapts its deliveries.
func (b *RabbitBroker) Consume(ctx context.Context) (<-chan Delivery, error) {
	ch, err := b.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open consumer channel: %w", err)
	}
	if err := ch.Qos(b.cfg.Prefetch, 0, false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to set prefetch: %w", err)
	}

	msgs, err := ch.Consume(
		b.cfg.Queue, // queue
		"",          // consumer tag (auto-generated)
		false,       // auto-ack (we'll ack manually)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to register consumer: %w", err)
	}
	b.consCh = ch

	out := make(chan Delivery)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					b.log.Warn("RabbitMQ delivery channel closed")
					return
				}
				var task Task
				if err := json.Unmarshal(msg.Body, &task); err != nil {
					b.log.Errorw("discarding undecodable message", "error", err, "message_id", msg.MessageId)
					_ = msg.Reject(false)
					continue
				}
				select {
				case out <- &rabbitDelivery{msg: msg, task: task, broker: b}:
				case <-ctx.Done():
					// Unacked messages return to the queue when the channel closes.
					return
				}
			}
		}
	}()

	return out, nil
}

// Close closes the channels and the connection.
func (b *RabbitBroker) Close() error {
	if b.consCh != nil {
		if err := b.consCh.Close(); err != nil {
			b.log.Warnw("error closing consumer channel", "error", err)
		}
	}
	b.pubMu.Lock()
	defer b.pubMu.Unlock()
	if b.pubCh != nil && !b.pubCh.IsClosed() {
		if err := b.pubCh.Close(); err != nil {
			b.log.Warnw("error closing publish channel", "error", err)
		}
	}
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}

type rabbitDelivery struct {
	msg    amqp.Delivery
	task   Task
	broker *RabbitBroker
}

func (d *rabbitDelivery) Task() Task { return d.task }

func (d *rabbitDelivery) Ack() error { return d.msg.Ack(false) }

// Redeliver republishes the next attempt and only then acks this copy, so a
// crash in between duplicates the task rather than losing it.
func (d *rabbitDelivery) Redeliver(delay time.Duration) error {
	next := d.task
	next.Attempt++
	if err := d.broker.publish(context.Background(), next, delay); err != nil {
		_ = d.msg.Nack(false, true)
		return err
	}
	return d.msg.Ack(false)
}
