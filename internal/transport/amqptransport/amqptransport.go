// Package amqptransport implements the AMQP carrier on top of
// github.com/rabbitmq/amqp091-go. Publish wraps every send in the
// resilience package's retry/backoff and calls the channel from the
// publishing goroutine. Acknowledgements from Worker goroutines are
// funneled through a callback channel to a single ack goroutine, so
// Ack is never called concurrently. The adapter does not reconnect:
// Subscribe returns once the broker closes the delivery channel.
package amqptransport

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/senzing-garage/redoer/internal/redotype"
	"github.com/senzing-garage/redoer/internal/resilience"
	"github.com/senzing-garage/redoer/internal/transport"
)

// Config describes one exchange+queue+routing-key role (redo, info, or
// failure) and the shared connection-level tunables.
type Config struct {
	URL                 string
	Exchange            string
	Queue               string
	RoutingKey          string
	DeliveryMode        uint8 // 1=transient, 2=persistent
	PrefetchCount       int
	UseExistingEntities bool
	ReconnectDelay      time.Duration
	Heartbeat           time.Duration
}

// channel is the subset of *amqp091.Channel this adapter depends on;
// an interface boundary so tests can inject a fake instead of a live
// broker connection.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Ack(tag uint64, multiple bool) error
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	ExchangeDeclarePassive(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueDeclarePassive(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Qos(prefetchCount, prefetchSize int, global bool) error
	Close() error
}

type ackRequest struct {
	tag  uint64
	done chan error
}

// Adapter is the AMQP transport.Adapter.
type Adapter struct {
	cfg     Config
	logger  *slog.Logger
	breaker *resilience.CircuitBreaker
	retry   resilience.RetryConfig

	ch      channel
	ackChan chan ackRequest
}

// New wires an Adapter around an already-open channel, having declared
// (or passively verified) the exchange, queue, and binding per
// cfg.UseExistingEntities and set the channel's prefetch.
func New(ch channel, cfg Config, logger *slog.Logger) (*Adapter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := declareTopology(ch, cfg); err != nil {
		return nil, fmt.Errorf("amqptransport: declare topology: %w", err)
	}
	if err := ch.Qos(cfg.PrefetchCount, 0, false); err != nil {
		return nil, fmt.Errorf("amqptransport: set qos: %w", err)
	}

	return &Adapter{
		cfg:     cfg,
		logger:  logger,
		breaker: resilience.NewCircuitBreaker(resilience.DefaultBreakerConfig()),
		retry:   resilience.DefaultRetryConfig(),
		ch:      ch,
		ackChan: make(chan ackRequest, 64),
	}, nil
}

func declareTopology(ch channel, cfg Config) error {
	if cfg.UseExistingEntities {
		if err := ch.ExchangeDeclarePassive(cfg.Exchange, "direct", true, false, false, false, nil); err != nil {
			return err
		}
		if _, err := ch.QueueDeclarePassive(cfg.Queue, true, false, false, false, nil); err != nil {
			return err
		}
		return nil
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, "direct", true, false, false, false, nil); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		return err
	}
	return ch.QueueBind(cfg.Queue, cfg.RoutingKey, cfg.Exchange, false, nil)
}

// Publish sends record with the configured delivery mode, retrying
// with backoff on transient failure.
func (a *Adapter) Publish(ctx context.Context, record redotype.Record) error {
	if !a.breaker.CanAttempt() {
		return fmt.Errorf("amqptransport: circuit open for %s", a.cfg.Queue)
	}
	err := resilience.Publish(ctx, a.retry, func() error {
		return a.ch.PublishWithContext(ctx, a.cfg.Exchange, a.cfg.RoutingKey, false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: a.cfg.DeliveryMode,
			Body:         record,
		})
	})
	if err != nil {
		a.breaker.RecordFailure()
		a.logger.Warn("amqp publish failed after retries", "queue", a.cfg.Queue, "error", err)
		return err
	}
	a.breaker.RecordSuccess()
	return nil
}

// Subscribe consumes forever, handing each delivery to fn with its
// delivery tag as the AckTag. The consumer hand-off itself runs in the
// calling goroutine; the Worker goroutine is the detached task that
// actually processes it, driven by transport.Subscriber's contract.
func (a *Adapter) Subscribe(ctx context.Context, fn transport.DeliveryFunc) error {
	deliveries, err := a.ch.Consume(a.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("amqptransport: consume: %w", err)
	}

	go a.ackPump(ctx)

	for {
		select {
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			fn(ctx, transport.Delivery{Record: redotype.Record(d.Body), Tag: d.DeliveryTag})
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ackPump is the only goroutine that calls Ack on the channel, so
// acknowledgements are serialized; Publish and Consume are called from
// other goroutines.
func (a *Adapter) ackPump(ctx context.Context) {
	for {
		select {
		case req := <-a.ackChan:
			req.done <- a.ch.Ack(req.tag, false)
		case <-ctx.Done():
			return
		}
	}
}

// Acknowledge posts the ack onto the channel's owning goroutine and
// waits for it to complete.
func (a *Adapter) Acknowledge(ctx context.Context, tag redotype.AckTag) error {
	deliveryTag, ok := tag.(uint64)
	if !ok {
		return fmt.Errorf("amqptransport: unexpected ack tag type %T", tag)
	}
	done := make(chan error, 1)
	select {
	case a.ackChan <- ackRequest{tag: deliveryTag, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
