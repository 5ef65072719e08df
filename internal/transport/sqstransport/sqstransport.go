// Package sqstransport implements the SQS carrier on top of
// github.com/aws/aws-sdk-go-v2/service/sqs. Long polling is
// driven by WaitTimeSeconds on each receive call; acknowledge deletes
// the message by receipt handle.
package sqstransport

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/senzing-garage/redoer/internal/redotype"
	"github.com/senzing-garage/redoer/internal/resilience"
	"github.com/senzing-garage/redoer/internal/transport"
)

// Config describes one queue role.
type Config struct {
	QueueURL          string
	WaitTimeSeconds   int32
	MaxMessages       int32
	VisibilityTimeout int32
}

// client is the subset of *sqs.Client this adapter depends on.
type client interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, opts ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, opts ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, opts ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Adapter is the SQS transport.Adapter.
type Adapter struct {
	cfg     Config
	logger  *slog.Logger
	breaker *resilience.CircuitBreaker
	retry   resilience.RetryConfig

	c client
}

// New wires an Adapter around an already-configured SQS client.
func New(c client, cfg Config, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxMessages == 0 {
		cfg.MaxMessages = 1
	}
	if cfg.VisibilityTimeout == 0 {
		cfg.VisibilityTimeout = 30
	}
	return &Adapter{
		cfg:     cfg,
		logger:  logger,
		breaker: resilience.NewCircuitBreaker(resilience.DefaultBreakerConfig()),
		retry:   resilience.DefaultRetryConfig(),
		c:       c,
	}
}

// Publish sends record as a single message body, retrying with
// backoff.
func (a *Adapter) Publish(ctx context.Context, record redotype.Record) error {
	if !a.breaker.CanAttempt() {
		return fmt.Errorf("sqstransport: circuit open for %s", a.cfg.QueueURL)
	}
	err := resilience.Publish(ctx, a.retry, func() error {
		_, sendErr := a.c.SendMessage(ctx, &sqs.SendMessageInput{
			QueueUrl:    aws.String(a.cfg.QueueURL),
			MessageBody: aws.String(record.String()),
		})
		return sendErr
	})
	if err != nil {
		a.breaker.RecordFailure()
		a.logger.Warn("sqs publish failed after retries", "queue", a.cfg.QueueURL, "error", err)
		return err
	}
	a.breaker.RecordSuccess()
	return nil
}

// Subscribe long-polls forever, delivering each message with its
// receipt handle as the AckTag.
func (a *Adapter) Subscribe(ctx context.Context, fn transport.DeliveryFunc) error {
	for {
		out, err := a.c.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(a.cfg.QueueURL),
			WaitTimeSeconds:     a.cfg.WaitTimeSeconds,
			MaxNumberOfMessages: a.cfg.MaxMessages,
			VisibilityTimeout:   a.cfg.VisibilityTimeout,
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("sqstransport: receive: %w", err)
		}
		for _, msg := range out.Messages {
			fn(ctx, transport.Delivery{Record: redotype.Record(aws.ToString(msg.Body)), Tag: aws.ToString(msg.ReceiptHandle)})
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Acknowledge deletes the message identified by its receipt handle.
func (a *Adapter) Acknowledge(ctx context.Context, tag redotype.AckTag) error {
	handle, ok := tag.(string)
	if !ok {
		return fmt.Errorf("sqstransport: unexpected ack tag type %T", tag)
	}
	_, err := a.c.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(a.cfg.QueueURL),
		ReceiptHandle: aws.String(handle),
	})
	return err
}
