package classify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/senzing-garage/redoer/internal/engine"
)

func TestPull(t *testing.T) {
	assert.Equal(t, PullDBTransient, Pull(errors.New("Database Connection Lost during startup")))
	assert.Equal(t, PullDBTransient, Pull(errors.New("retry: Database Connection Failure")))
	assert.Equal(t, PullFatal, Pull(engine.ErrNotInitialized))
	assert.Equal(t, PullFatal, Pull(errors.New("segfault in native layer")))
}

func TestApplyNotInitializedIsFatal(t *testing.T) {
	got := Apply(engine.ErrNotInitialized, []byte("A"), []byte("A"))
	assert.Equal(t, ApplyFatal, got)
}

func TestApplyDBTransient(t *testing.T) {
	got := Apply(errors.New("Database Connection Lost"), []byte("A"), []byte("A"))
	assert.Equal(t, ApplyDBTransient, got)
}

func TestApplyConfigDriftInferredFromMismatch(t *testing.T) {
	got := Apply(errors.New("unexpected entity state"), []byte("A"), []byte("B"))
	assert.Equal(t, ApplyConfigDrift, got)
}

func TestApplyUnknownNonFatalWhenConfigsMatch(t *testing.T) {
	got := Apply(errors.New("unexpected entity state"), []byte("B"), []byte("B"))
	assert.Equal(t, ApplyUnknownNonFatal, got)
}
