package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senzing-garage/redoer/internal/counters"
	"github.com/senzing-garage/redoer/internal/governor"
	"github.com/senzing-garage/redoer/internal/redotype"
	"github.com/senzing-garage/redoer/internal/stage"
)

// fakeInput streams a fixed set of deliveries, then blocks until ctx
// is cancelled, and records acknowledgements.
type fakeInput struct {
	mu         sync.Mutex
	deliveries []stage.Delivery
	acked      []redotype.AckTag
}

func (f *fakeInput) Records(ctx context.Context, ch chan<- stage.Delivery) error {
	for _, d := range f.deliveries {
		select {
		case ch <- d:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeInput) Acknowledge(ctx context.Context, tag redotype.AckTag) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, tag)
	return nil
}

type fixedExecute struct {
	result stage.Result
	err    error
}

func (e fixedExecute) Process(ctx context.Context, record redotype.Record) (stage.Result, error) {
	return e.result, e.err
}

type fakeOutput struct {
	mu       sync.Mutex
	infos    []redotype.Info
	failures []redotype.Record
}

func (o *fakeOutput) SendInfo(ctx context.Context, info redotype.Info) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.infos = append(o.infos, info)
	return nil
}

func (o *fakeOutput) SendFailure(ctx context.Context, record redotype.Record) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures = append(o.failures, record)
	return nil
}

func TestWorkerAcknowledgesOnProcessedSuccess(t *testing.T) {
	in := &fakeInput{deliveries: []stage.Delivery{{Record: "r1", Tag: "tag-1"}}}
	w := &Worker{
		Input:    in,
		Execute:  fixedExecute{result: stage.Result{Processed: true}},
		Output:   &fakeOutput{},
		Counters: counters.New(),
		Logger:   slog.Default(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_ = w.Run(ctx)

	in.mu.Lock()
	defer in.mu.Unlock()
	require.Len(t, in.acked, 1)
	assert.Equal(t, redotype.AckTag("tag-1"), in.acked[0])
}

func TestWorkerDoesNotAcknowledgeOnUnprocessed(t *testing.T) {
	in := &fakeInput{deliveries: []stage.Delivery{{Record: "r1", Tag: "tag-1"}}}
	w := &Worker{
		Input:    in,
		Execute:  fixedExecute{result: stage.Result{Processed: false}},
		Output:   &fakeOutput{},
		Counters: counters.New(),
		Logger:   slog.Default(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_ = w.Run(ctx)

	in.mu.Lock()
	defer in.mu.Unlock()
	assert.Empty(t, in.acked)
}

func TestWorkerSendsInfoAndAcknowledges(t *testing.T) {
	in := &fakeInput{deliveries: []stage.Delivery{{Record: "r1", Tag: "tag-1"}}}
	out := &fakeOutput{}
	w := &Worker{
		Input:    in,
		Execute:  fixedExecute{result: stage.Result{Processed: true, HasInfo: true, Info: redotype.Info("changed")}},
		Output:   out,
		Counters: counters.New(),
		Logger:   slog.Default(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_ = w.Run(ctx)

	out.mu.Lock()
	defer out.mu.Unlock()
	require.Len(t, out.infos, 1)
	assert.Equal(t, redotype.Info("changed"), out.infos[0])
	assert.EqualValues(t, 1, w.Counters.SentToInfoQueue.Load())
}

func TestWorkerSendsFailureAndStopsOnFatal(t *testing.T) {
	in := &fakeInput{deliveries: []stage.Delivery{{Record: "r1", Tag: "tag-1"}}}
	out := &fakeOutput{}
	w := &Worker{
		Input:    in,
		Execute:  fixedExecute{result: stage.Result{Failure: "r1", HasFailure: true, Fatal: true}, err: errors.New("boom")},
		Output:   out,
		Counters: counters.New(),
		Logger:   slog.Default(),
	}

	err := w.Run(context.Background())
	require.Error(t, err)
	out.mu.Lock()
	defer out.mu.Unlock()
	require.Len(t, out.failures, 1)
	assert.EqualValues(t, 1, w.Counters.SentToFailureQueue.Load())
}

func TestWorkerGovernorRejectionSkipsRecord(t *testing.T) {
	in := &fakeInput{deliveries: []stage.Delivery{{Record: "r1", Tag: "tag-1"}}}
	w := &Worker{
		Input:    in,
		Execute:  fixedExecute{result: stage.Result{Processed: true}},
		Output:   &fakeOutput{},
		Governor: rejectingGovernor{},
		Counters: counters.New(),
		Logger:   slog.Default(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_ = w.Run(ctx)

	in.mu.Lock()
	defer in.mu.Unlock()
	assert.Empty(t, in.acked)
}

type rejectingGovernor struct{}

func (rejectingGovernor) Govern(ctx context.Context) error { return errors.New("rejected") }

var _ governor.Governor = rejectingGovernor{}
