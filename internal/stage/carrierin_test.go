package stage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senzing-garage/redoer/internal/redotype"
	"github.com/senzing-garage/redoer/internal/transport/internalqueue"
)

func TestCarrierInputForwardsDeliveriesAndAcknowledge(t *testing.T) {
	q := internalqueue.New(4)
	require.NoError(t, q.Publish(context.Background(), redotype.Record("r1")))

	in := &CarrierInput{Adapter: q}
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan Delivery, 1)
	go func() { _ = in.Records(ctx, ch) }()

	select {
	case d := <-ch:
		assert.Equal(t, redotype.Record("r1"), d.Record)
		assert.NoError(t, in.Acknowledge(ctx, d.Tag))
	case <-time.After(time.Second):
		t.Fatal("expected a delivery from the internal queue")
	}
	cancel()
}
