package internalqueue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senzing-garage/redoer/internal/redotype"
	"github.com/senzing-garage/redoer/internal/transport"
)

func TestPublishBlocksWhenFull(t *testing.T) {
	q := New(2)
	ctx := context.Background()

	require.NoError(t, q.Publish(ctx, redotype.Record("r1")))
	require.NoError(t, q.Publish(ctx, redotype.Record("r2")))

	published := make(chan struct{})
	go func() {
		_ = q.Publish(ctx, redotype.Record("r3"))
		close(published)
	}()

	select {
	case <-published:
		t.Fatal("publish should have blocked while the queue is full")
	case <-time.After(50 * time.Millisecond):
	}

	var got []redotype.Record
	var mu sync.Mutex
	subCtx, cancel := context.WithCancel(ctx)
	go func() {
		_ = q.Subscribe(subCtx, func(_ context.Context, d transport.Delivery) {
			mu.Lock()
			got = append(got, d.Record)
			mu.Unlock()
		})
	}()

	select {
	case <-published:
	case <-time.After(time.Second):
		t.Fatal("publish never unblocked after a consumer drained the queue")
	}
	cancel()

	mu.Lock()
	assert.GreaterOrEqual(t, len(got), 1)
	mu.Unlock()
}

func TestAcknowledgeIsNoOp(t *testing.T) {
	q := New(1)
	assert.NoError(t, q.Acknowledge(context.Background(), nil))
}
