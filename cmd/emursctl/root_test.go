package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/emurs/internal/logger"
)

func TestLoadConfig_AppliesLogLevel(t *testing.T) {
	t.Cleanup(func() { _ = logger.Init(logger.Options{}) })

	resetFlags()
	verbose = true
	quiet = true
	configPath = writeTemp(t, "memmap.yaml", `
log_level: debug
entries:
  - first: 0
    last: 0xfff
    permissions: rw-
    kind: work
`)

	require.NoError(t, initLogging())
	require.False(t, logger.L.Enabled(context.Background(), slog.LevelDebug))

	_, err := loadConfig()
	require.NoError(t, err)
	require.True(t, logger.L.Enabled(context.Background(), slog.LevelDebug))
}

func TestLoadConfig_PresetHonoursEnv(t *testing.T) {
	resetFlags()
	preset = "desktop"
	t.Setenv("EMURS_SLAB_CAPACITY", "3")

	cfg, err := loadConfig()
	require.NoError(t, err)
	require.Equal(t, 3, cfg.SlabCapacity)
}
