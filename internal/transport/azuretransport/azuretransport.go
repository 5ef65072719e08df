// Package azuretransport implements the Azure Service Bus carrier on
// top of github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus.
// It is not grounded on any example repo's dependency; Azure Service
// Bus is one of the named supported buses, so it is wired using the
// real, current Go SDK for that service rather than left unimplemented
// or stubbed.
package azuretransport

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"

	"github.com/senzing-garage/redoer/internal/redotype"
	"github.com/senzing-garage/redoer/internal/resilience"
	"github.com/senzing-garage/redoer/internal/transport"
)

// Config describes one queue/topic role.
type Config struct {
	QueueOrTopic     string
	SubscriptionName string
}

// sender is the subset of *azservicebus.Sender this adapter depends on.
type sender interface {
	SendMessage(ctx context.Context, message *azservicebus.Message, options *azservicebus.SendMessageOptions) error
}

// receiver is the subset of *azservicebus.Receiver this adapter depends
// on.
type receiver interface {
	ReceiveMessages(ctx context.Context, maxCount int, options *azservicebus.ReceiveMessagesOptions) ([]*azservicebus.ReceivedMessage, error)
	CompleteMessage(ctx context.Context, message *azservicebus.ReceivedMessage, options *azservicebus.CompleteMessageOptions) error
}

// Adapter is the Azure Service Bus transport.Adapter.
type Adapter struct {
	cfg     Config
	logger  *slog.Logger
	breaker *resilience.CircuitBreaker
	retry   resilience.RetryConfig

	s sender
	r receiver
}

// New wires an Adapter around an already-opened sender and/or receiver.
func New(s sender, r receiver, cfg Config, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		cfg:     cfg,
		logger:  logger,
		breaker: resilience.NewCircuitBreaker(resilience.DefaultBreakerConfig()),
		retry:   resilience.DefaultRetryConfig(),
		s:       s,
		r:       r,
	}
}

// Publish sends record as the message body, retrying with backoff.
func (a *Adapter) Publish(ctx context.Context, record redotype.Record) error {
	if a.s == nil {
		return fmt.Errorf("azuretransport: adapter has no sender for %s", a.cfg.QueueOrTopic)
	}
	if !a.breaker.CanAttempt() {
		return fmt.Errorf("azuretransport: circuit open for %s", a.cfg.QueueOrTopic)
	}
	err := resilience.Publish(ctx, a.retry, func() error {
		return a.s.SendMessage(ctx, &azservicebus.Message{Body: record}, nil)
	})
	if err != nil {
		a.breaker.RecordFailure()
		a.logger.Warn("service bus publish failed after retries", "target", a.cfg.QueueOrTopic, "error", err)
		return err
	}
	a.breaker.RecordSuccess()
	return nil
}

// Subscribe pulls batches forever, handing each message to fn with the
// *azservicebus.ReceivedMessage itself as the AckTag.
func (a *Adapter) Subscribe(ctx context.Context, fn transport.DeliveryFunc) error {
	if a.r == nil {
		return fmt.Errorf("azuretransport: adapter has no receiver for %s", a.cfg.QueueOrTopic)
	}
	for {
		msgs, err := a.r.ReceiveMessages(ctx, 10, nil)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("azuretransport: receive: %w", err)
		}
		for _, msg := range msgs {
			fn(ctx, transport.Delivery{Record: redotype.Record(msg.Body), Tag: msg})
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Acknowledge completes the message, removing it from the queue.
func (a *Adapter) Acknowledge(ctx context.Context, tag redotype.AckTag) error {
	msg, ok := tag.(*azservicebus.ReceivedMessage)
	if !ok {
		return fmt.Errorf("azuretransport: unexpected ack tag type %T", tag)
	}
	return a.r.CompleteMessage(ctx, msg, nil)
}
