package logging

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/senzing-garage/redoer/internal/config"
)

func TestParseLevelRecognizesEveryName(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestNewBuildsAUsableLogger(t *testing.T) {
	logger := New(config.Logging{Level: "info", Format: "json", Output: "stdout"})
	assert.NotNil(t, logger)
	logger.Info("smoke test")
}
