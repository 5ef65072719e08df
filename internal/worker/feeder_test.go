package worker

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senzing-garage/redoer/internal/counters"
	"github.com/senzing-garage/redoer/internal/stage"
	"github.com/senzing-garage/redoer/internal/transport/internalqueue"
)

func TestFeederPublishesEveryYieldedRecord(t *testing.T) {
	in := &fakeInput{deliveries: []stage.Delivery{{Record: "r1"}, {Record: "r2"}}}
	q := internalqueue.New(4)
	cs := counters.New()
	f := &Feeder{Input: in, Publisher: q, Counters: cs, Logger: slog.Default()}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_ = f.Run(ctx)

	require.Equal(t, 2, q.Len())
	assert.EqualValues(t, 2, cs.SentToRedoQueue.Load())
}
