package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "verax.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 70.0, cfg.ConfidenceThreshold)
	assert.True(t, cfg.CacheEnabled)
	assert.Equal(t, 3600, cfg.CacheTTLSeconds)
	assert.Equal(t, 4, cfg.MaxConcurrentVerifications)
	assert.Equal(t, 30, cfg.TimeoutSeconds)
	assert.Empty(t, cfg.Warnings)

	require.NoError(t, cfg.Bands.Validate())
	name, ok := cfg.Bands.Locate(85)
	assert.True(t, ok)
	assert.Equal(t, "low", name)

	assert.NotEmpty(t, cfg.TrustedSources["physics"])
	assert.Contains(t, cfg.Domains(), "physics")
	assert.Contains(t, cfg.Domains(), "general")
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `{
		"confidence_threshold": 60,
		"cache_ttl_seconds": 120,
		"custom_domains": ["finance"],
		"trusted_sources": {"finance": ["sec.gov"]}
	}`)

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, 60.0, cfg.ConfidenceThreshold)
	assert.Equal(t, 120, cfg.CacheTTLSeconds)
	assert.Contains(t, cfg.Domains(), "finance")
	assert.Equal(t, []string{"sec.gov"}, cfg.TrustedSources["finance"])
}

func TestInvalidFieldFallsBackWithWarning(t *testing.T) {
	path := writeConfig(t, `{
		"confidence_threshold": 150,
		"cache_ttl_seconds": 120
	}`)

	cfg, err := Load(path, "")
	require.NoError(t, err)

	// The invalid field reverts; the valid one survives.
	assert.Equal(t, 70.0, cfg.ConfidenceThreshold)
	assert.Equal(t, 120, cfg.CacheTTLSeconds)
	require.NotEmpty(t, cfg.Warnings)
	assert.Contains(t, cfg.Warnings[0], "confidence_threshold")
}

func TestMalformedBandsRevertToDefaultMapping(t *testing.T) {
	path := writeConfig(t, `{
		"risk_level_mappings": {
			"bad": [0, 50],
			"worse": [60, 100]
		}
	}`)

	cfg, err := Load(path, "")
	require.NoError(t, err)

	require.NoError(t, cfg.Bands.Validate())
	name, ok := cfg.Bands.Locate(10)
	assert.True(t, ok)
	assert.Equal(t, "critical", name)

	found := false
	for _, w := range cfg.Warnings {
		if strings.HasPrefix(w, "risk_level_mappings") {
			found = true
		}
	}
	assert.True(t, found, "expected a risk_level_mappings warning, got %v", cfg.Warnings)
}

func TestValidCustomBands(t *testing.T) {
	path := writeConfig(t, `{
		"risk_level_mappings": {
			"danger": [0, 50],
			"safe": [50, 100]
		}
	}`)

	cfg, err := Load(path, "")
	require.NoError(t, err)

	name, ok := cfg.Bands.Locate(25)
	assert.True(t, ok)
	assert.Equal(t, "danger", name)

	name, ok = cfg.Bands.Locate(100)
	assert.True(t, ok)
	assert.Equal(t, "safe", name)
}

func TestEnvironmentOverlay(t *testing.T) {
	path := writeConfig(t, `{
		"confidence_threshold": 60,
		"timeout_seconds": 20,
		"environments": {
			"staging": {
				"confidence_threshold": 90
			}
		}
	}`)

	base, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, 60.0, base.ConfidenceThreshold)

	staging, err := Load(path, "staging")
	require.NoError(t, err)
	assert.Equal(t, 90.0, staging.ConfidenceThreshold)
	// Fields outside the overlay keep their file values.
	assert.Equal(t, 20, staging.TimeoutSeconds)

	// Unknown environments fall back to the base configuration.
	unknown, err := Load(path, "nope")
	require.NoError(t, err)
	assert.Equal(t, 60.0, unknown.ConfidenceThreshold)
}

func TestMissingFileIsAnError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"), "")
	assert.Error(t, err)
}

func TestStageConfigDefaults(t *testing.T) {
	cfg := Default()

	publish := cfg.StageConfig("on_publish")
	assert.True(t, publish.Enabled)
	assert.True(t, publish.Blocking)
	assert.Equal(t, PolicyBlock, publish.OnHighRisk)

	before := cfg.StageConfig("before_generate")
	assert.False(t, before.Blocking)
	assert.Equal(t, PolicyWarn, before.OnHighRisk)
}
