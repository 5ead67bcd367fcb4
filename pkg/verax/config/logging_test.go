package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func preserveLogger(t *testing.T) {
	t.Helper()
	orig := log.Logger
	origLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = orig
		zerolog.SetGlobalLevel(origLevel)
	})
}

func TestSetupLoggingWritesToFile(t *testing.T) {
	preserveLogger(t)

	path := filepath.Join(t.TempDir(), "verax.log")
	cfg := &LoggingConfig{Level: "debug", Format: "json", File: path}
	require.NoError(t, SetupLogging(cfg))

	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	log.Info().Msg("file sink smoke test")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "file sink smoke test")
	assert.Contains(t, string(data), `"service":"verax"`)
}

func TestSetupLoggingConsoleFormat(t *testing.T) {
	preserveLogger(t)

	cfg := &LoggingConfig{Level: "warn", Format: "console"}
	require.NoError(t, SetupLogging(cfg))
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
}

func TestSetupLoggingRejectsUnknownLevel(t *testing.T) {
	preserveLogger(t)

	cfg := &LoggingConfig{Level: "loud", Format: "json"}
	assert.Error(t, SetupLogging(cfg))
}
