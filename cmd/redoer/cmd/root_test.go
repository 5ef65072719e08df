package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigAppliesDefaults(t *testing.T) {
	cfg, logger, err := loadConfig()
	assert.NoError(t, err)
	assert.NotNil(t, logger)
	assert.Equal(t, 4, cfg.ThreadsPerProcess)
}

func TestRootCommandRegistersEveryPipelineSubcommand(t *testing.T) {
	found := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		found[c.Use] = true
	}
	assert.True(t, found["redo"])
	assert.True(t, found["sleep"])
	assert.True(t, found["version"])
	assert.True(t, found["docker-acceptance-test"])
	assert.True(t, found["write-to-kafka"])
}
