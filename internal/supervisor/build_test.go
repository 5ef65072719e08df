package supervisor

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senzing-garage/redoer/internal/config"
	"github.com/senzing-garage/redoer/internal/counters"
	"github.com/senzing-garage/redoer/internal/engine"
	"github.com/senzing-garage/redoer/internal/enginefake"
)

func TestBuildRedoProducesOneFeederAndNWorkers(t *testing.T) {
	deps := buildDeps{
		Config:   &config.Config{ThreadsPerProcess: 3, QueueMaxSize: 4},
		Gateway:  engine.NewGateway(enginefake.New()),
		Counters: counters.New(),
		Logger:   slog.Default(),
	}

	topo, err := build(context.Background(), PipelineSpec{Name: "redo", Variant: VariantRedo}, deps)
	require.NoError(t, err)
	assert.Len(t, topo.runnables, 1+3)
}

func TestBuildUnknownVariantErrors(t *testing.T) {
	deps := buildDeps{
		Config:   &config.Config{ThreadsPerProcess: 1, QueueMaxSize: 1},
		Gateway:  engine.NewGateway(enginefake.New()),
		Counters: counters.New(),
		Logger:   slog.Default(),
	}
	_, err := build(context.Background(), PipelineSpec{Name: "bogus", Variant: Variant("bogus")}, deps)
	assert.Error(t, err)
}
