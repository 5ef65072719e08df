package amqptransport

import (
	"context"
	"errors"
	"sync"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senzing-garage/redoer/internal/redotype"
	"github.com/senzing-garage/redoer/internal/transport"
)

// fakeChannel satisfies the channel interface without a broker.
type fakeChannel struct {
	mu sync.Mutex

	publishErrs  []error // consumed in order, then nil forever
	publishCalls int

	ackErrs map[uint64]error
	ackd    []uint64

	deliveries chan amqp.Delivery
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{ackErrs: map[uint64]error{}, deliveries: make(chan amqp.Delivery, 8)}
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	defer func() { f.publishCalls++ }()
	if f.publishCalls < len(f.publishErrs) {
		return f.publishErrs[f.publishCalls]
	}
	return nil
}

func (f *fakeChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	return f.deliveries, nil
}

func (f *fakeChannel) Ack(tag uint64, multiple bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ackd = append(f.ackd, tag)
	return f.ackErrs[tag]
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	return nil
}
func (f *fakeChannel) ExchangeDeclarePassive(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	return nil
}
func (f *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	return amqp.Queue{Name: name}, nil
}
func (f *fakeChannel) QueueDeclarePassive(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	return amqp.Queue{Name: name}, nil
}
func (f *fakeChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	return nil
}
func (f *fakeChannel) Qos(prefetchCount, prefetchSize int, global bool) error { return nil }
func (f *fakeChannel) Close() error                                          { return nil }

func testConfig() Config {
	return Config{Exchange: "redo-ex", Queue: "redo-q", RoutingKey: "redo", DeliveryMode: 2, PrefetchCount: 10}
}

func TestPublishRetriesOnTransientThenSucceeds(t *testing.T) {
	fc := newFakeChannel()
	fc.publishErrs = []error{errors.New("connection reset")}

	a, err := New(fc, testConfig(), nil)
	require.NoError(t, err)

	err = a.Publish(context.Background(), redotype.Record("payload"))
	assert.NoError(t, err)
	assert.Equal(t, 2, fc.publishCalls)
}

func TestPublishOpensBreakerAfterRepeatedFailure(t *testing.T) {
	fc := newFakeChannel()
	for i := 0; i < 10; i++ {
		fc.publishErrs = append(fc.publishErrs, errors.New("connection reset"))
	}

	a, err := New(fc, testConfig(), nil)
	require.NoError(t, err)
	a.retry.MaxAttempts = 1

	for i := 0; i < 3; i++ {
		_ = a.Publish(context.Background(), redotype.Record("payload"))
	}

	assert.False(t, a.breaker.CanAttempt())
}

func TestAcknowledgeRoutesThroughAckPump(t *testing.T) {
	fc := newFakeChannel()
	a, err := New(fc, testConfig(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.ackPump(ctx)

	require.NoError(t, a.Acknowledge(ctx, uint64(42)))
	fc.mu.Lock()
	assert.Equal(t, []uint64{42}, fc.ackd)
	fc.mu.Unlock()
}

func TestAcknowledgeRejectsWrongTagType(t *testing.T) {
	fc := newFakeChannel()
	a, err := New(fc, testConfig(), nil)
	require.NoError(t, err)

	err = a.Acknowledge(context.Background(), "not-a-uint64")
	assert.Error(t, err)
}

func TestSubscribeDeliversAndStopsOnCancel(t *testing.T) {
	fc := newFakeChannel()
	fc.deliveries <- amqp.Delivery{Body: []byte("rec-1"), DeliveryTag: 1}

	a, err := New(fc, testConfig(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan transport.Delivery, 1)

	go func() {
		_ = a.Subscribe(ctx, func(_ context.Context, d transport.Delivery) {
			got <- d
		})
	}()

	d := <-got
	assert.Equal(t, redotype.Record("rec-1"), d.Record)
	assert.Equal(t, uint64(1), d.Tag)
	cancel()
}
