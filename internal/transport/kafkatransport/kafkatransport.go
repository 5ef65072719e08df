// Package kafkatransport implements the Kafka carrier on top of
// github.com/segmentio/kafka-go. Partition assignment
// and consumer-group rebalancing are delegated entirely to the
// library's Reader; this adapter only shapes records into
// kafka.Message and maps kafka.Message back into redotype.Record plus
// an AckTag the owning Reader can later commit.
package kafkatransport

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/senzing-garage/redoer/internal/redotype"
	"github.com/senzing-garage/redoer/internal/resilience"
	"github.com/senzing-garage/redoer/internal/transport"
)

// Config describes one topic role (redo, info, or failure).
type Config struct {
	Brokers []string
	Topic   string
	GroupID string
}

// writer is the subset of *kafka.Writer this adapter depends on.
type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// reader is the subset of *kafka.Reader this adapter depends on.
type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Adapter is the Kafka transport.Adapter. A single instance may be
// built with only a writer (publish-only role), only a reader
// (consume-only role), or both.
type Adapter struct {
	cfg     Config
	logger  *slog.Logger
	breaker *resilience.CircuitBreaker
	retry   resilience.RetryConfig

	w writer
	r reader
}

// New wires an Adapter around an already-constructed writer and/or
// reader; either may be nil if this adapter's role does not need it.
func New(w writer, r reader, cfg Config, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		cfg:     cfg,
		logger:  logger,
		breaker: resilience.NewCircuitBreaker(resilience.DefaultBreakerConfig()),
		retry:   resilience.DefaultRetryConfig(),
		w:       w,
		r:       r,
	}
}

// Publish sends record to the configured topic, retrying with backoff.
func (a *Adapter) Publish(ctx context.Context, record redotype.Record) error {
	if a.w == nil {
		return fmt.Errorf("kafkatransport: adapter has no writer for topic %s", a.cfg.Topic)
	}
	if !a.breaker.CanAttempt() {
		return fmt.Errorf("kafkatransport: circuit open for topic %s", a.cfg.Topic)
	}
	err := resilience.Publish(ctx, a.retry, func() error {
		return a.w.WriteMessages(ctx, kafka.Message{Value: record})
	})
	if err != nil {
		a.breaker.RecordFailure()
		a.logger.Warn("kafka publish failed after retries", "topic", a.cfg.Topic, "error", err)
		return err
	}
	a.breaker.RecordSuccess()
	return nil
}

// Subscribe fetches forever, handing each message to fn with the
// kafka.Message itself as the AckTag (Acknowledge commits it by
// offset).
func (a *Adapter) Subscribe(ctx context.Context, fn transport.DeliveryFunc) error {
	if a.r == nil {
		return fmt.Errorf("kafkatransport: adapter has no reader for topic %s", a.cfg.Topic)
	}
	for {
		msg, err := a.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("kafkatransport: fetch: %w", err)
		}
		fn(ctx, transport.Delivery{Record: redotype.Record(msg.Value), Tag: msg})
	}
}

// Acknowledge commits the fetched message's offset.
func (a *Adapter) Acknowledge(ctx context.Context, tag redotype.AckTag) error {
	msg, ok := tag.(kafka.Message)
	if !ok {
		return fmt.Errorf("kafkatransport: unexpected ack tag type %T", tag)
	}
	return a.r.CommitMessages(ctx, msg)
}
