// Package config loads and validates the layered configuration for the
// verification core. Invalid fields never reject a configuration: each one
// independently falls back to its default with a recorded warning, so the
// dispatcher always receives a usable Config.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/verax-io/verax/pkg/verax/report"
)

// BuiltinDomains are the knowledge domains every deployment understands.
var BuiltinDomains = []string{"physics", "biology", "history", "statistics", "general"}

// HookPolicy selects what a pipeline stage does on high-risk content
type HookPolicy string

const (
	// PolicyIgnore takes no action
	PolicyIgnore HookPolicy = "ignore"
	// PolicyWarn fires the warning callback
	PolicyWarn HookPolicy = "warn"
	// PolicyBlock requests the pipeline stop
	PolicyBlock HookPolicy = "block"
)

// HookStageConfig configures one pipeline lifecycle stage
type HookStageConfig struct {
	Enabled    bool       `mapstructure:"enabled"`
	Blocking   bool       `mapstructure:"blocking"`
	OnHighRisk HookPolicy `mapstructure:"on_high_risk"`
}

// LoggingConfig holds logging-specific configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
	File   string `mapstructure:"file"`
}

// TelemetryConfig holds metrics-specific configuration
type TelemetryConfig struct {
	PrometheusEnabled  bool   `mapstructure:"prometheus_enabled"`
	PrometheusEndpoint string `mapstructure:"prometheus_endpoint"`
	Namespace          string `mapstructure:"namespace"`
	OTelEnabled        bool   `mapstructure:"otel_enabled"`
	OTelEndpoint       string `mapstructure:"otel_endpoint"`
	RateLimit          int    `mapstructure:"rate_limit"` // requests per minute on /metrics
}

// Config is the immutable configuration value consumed by the dispatcher
// and agents. Build one through Load; zero values are not usable.
type Config struct {
	ConfidenceThreshold        float64                    `mapstructure:"confidence_threshold"`
	RiskLevelMappings          map[string][]float64       `mapstructure:"risk_level_mappings"`
	TrustedSources             map[string][]string        `mapstructure:"trusted_sources"`
	CustomDomains              []string                   `mapstructure:"custom_domains"`
	CacheEnabled               bool                       `mapstructure:"cache_enabled"`
	CacheTTLSeconds            int                        `mapstructure:"cache_ttl_seconds"`
	MaxConcurrentVerifications int                        `mapstructure:"max_concurrent_verifications"`
	TimeoutSeconds             int                        `mapstructure:"timeout_seconds"`
	Hooks                      map[string]HookStageConfig `mapstructure:"hooks"`
	Logging                    LoggingConfig              `mapstructure:"logging"`
	Telemetry                  TelemetryConfig            `mapstructure:"telemetry"`

	// Bands is the validated, ordered form of RiskLevelMappings.
	Bands report.Bands `mapstructure:"-"`
	// Warnings records every field that was replaced by its default.
	Warnings []string `mapstructure:"-"`
}

// Domains returns the full domain set: built-ins plus custom domains.
func (c *Config) Domains() []string {
	out := make([]string, 0, len(BuiltinDomains)+len(c.CustomDomains))
	out = append(out, BuiltinDomains...)
	seen := make(map[string]bool, len(out))
	for _, d := range out {
		seen[d] = true
	}
	for _, d := range c.CustomDomains {
		if d != "" && !seen[d] {
			out = append(out, d)
			seen[d] = true
		}
	}
	return out
}

// StageConfig returns the configuration for a pipeline stage, falling back
// to the stage defaults when the stage is unknown.
func (c *Config) StageConfig(stage string) HookStageConfig {
	if sc, ok := c.Hooks[stage]; ok {
		return sc
	}
	return HookStageConfig{Enabled: true, Blocking: false, OnHighRisk: PolicyWarn}
}

// Load builds a Config from layered sources: built-in defaults, then an
// optional JSON file, then the named environments overlay. An empty path
// walks the discovery chain (working directory, project root, user config
// directory); an absent file means defaults. environment selects an
// environments.<name> overlay; empty means no overlay.
func Load(path, environment string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("VERAX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = discoverConfigFile()
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		log.Info().Str("config_file", path).Msg("Loaded configuration file")
	} else {
		log.Debug().Msg("No configuration file found, using defaults")
	}

	// Apply the selected environment overlay field-by-field. Set has the
	// highest viper precedence so overlay values win over file values.
	if environment != "" {
		if sub := v.Sub("environments." + environment); sub != nil {
			for _, key := range sub.AllKeys() {
				v.Set(key, sub.Get(key))
			}
			log.Info().Str("environment", environment).Msg("Applied environment overlay")
		} else {
			log.Warn().Str("environment", environment).Msg("Unknown environment, no overlay applied")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.validate()
	return &cfg, nil
}

// Default returns the built-in configuration with no file or overlay.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	cfg.validate()
	return &cfg
}

// validate checks every field independently, replacing invalid values with
// their defaults and recording a warning per replaced field.
func (c *Config) validate() {
	warn := func(field, issue string) {
		c.Warnings = append(c.Warnings, fmt.Sprintf("%s: %s", field, issue))
		log.Warn().Str("field", field).Str("issue", issue).Msg("Invalid configuration value, using default")
	}

	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 100 {
		warn("confidence_threshold", fmt.Sprintf("%g outside [0,100]", c.ConfidenceThreshold))
		c.ConfidenceThreshold = defaultConfidenceThreshold
	}
	if c.CacheTTLSeconds <= 0 {
		warn("cache_ttl_seconds", fmt.Sprintf("%d must be positive", c.CacheTTLSeconds))
		c.CacheTTLSeconds = defaultCacheTTLSeconds
	}
	if c.MaxConcurrentVerifications <= 0 {
		warn("max_concurrent_verifications", fmt.Sprintf("%d must be positive", c.MaxConcurrentVerifications))
		c.MaxConcurrentVerifications = defaultMaxConcurrent
	}
	if c.TimeoutSeconds <= 0 {
		warn("timeout_seconds", fmt.Sprintf("%d must be positive", c.TimeoutSeconds))
		c.TimeoutSeconds = defaultTimeoutSeconds
	}

	var sanitized []string
	for _, d := range c.CustomDomains {
		d = strings.TrimSpace(strings.ToLower(d))
		if d == "" {
			warn("custom_domains", "empty domain name dropped")
			continue
		}
		sanitized = append(sanitized, d)
	}
	c.CustomDomains = sanitized

	if c.TrustedSources == nil {
		c.TrustedSources = defaultTrustedSources()
	}

	for stage, sc := range c.Hooks {
		switch sc.OnHighRisk {
		case PolicyIgnore, PolicyWarn, PolicyBlock:
		default:
			warn("hooks."+stage+".on_high_risk", fmt.Sprintf("unknown policy %q", sc.OnHighRisk))
			sc.OnHighRisk = PolicyWarn
			c.Hooks[stage] = sc
		}
	}

	c.Bands = bandsFromMapping(c.RiskLevelMappings)
	if err := c.Bands.Validate(); err != nil {
		warn("risk_level_mappings", err.Error())
		c.Bands = report.DefaultBands()
	}
}

// bandsFromMapping converts the named min/max pairs of the config file into
// an ordered band list.
func bandsFromMapping(mapping map[string][]float64) report.Bands {
	bands := make(report.Bands, 0, len(mapping))
	for name, interval := range mapping {
		if len(interval) != 2 {
			// Malformed entries invalidate the whole mapping downstream.
			return nil
		}
		bands = append(bands, report.RiskBand{Name: name, Min: interval[0], Max: interval[1]})
	}
	sort.Slice(bands, func(i, j int) bool { return bands[i].Min < bands[j].Min })
	return bands
}

// discoverConfigFile walks the discovery chain and returns the first
// verax.json found, or empty when none exists.
func discoverConfigFile() string {
	var candidates []string

	if wd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(wd, "verax.json"))
		if root := findProjectRoot(wd); root != "" && root != wd {
			candidates = append(candidates, filepath.Join(root, "verax.json"))
		}
	}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "verax", "verax.json"))
	}

	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// findProjectRoot walks upward looking for a go.mod or .git marker.
func findProjectRoot(start string) string {
	dir := start
	for {
		for _, marker := range []string{"go.mod", ".git"} {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

const (
	defaultConfidenceThreshold = 70.0
	defaultCacheTTLSeconds     = 3600
	defaultMaxConcurrent       = 4
	defaultTimeoutSeconds      = 30
)

// setDefaults registers the default value for every configuration field.
func setDefaults(v *viper.Viper) {
	v.SetDefault("confidence_threshold", defaultConfidenceThreshold)
	v.SetDefault("cache_enabled", true)
	v.SetDefault("cache_ttl_seconds", defaultCacheTTLSeconds)
	v.SetDefault("max_concurrent_verifications", defaultMaxConcurrent)
	v.SetDefault("timeout_seconds", defaultTimeoutSeconds)
	v.SetDefault("custom_domains", []string{})

	v.SetDefault("risk_level_mappings", map[string][]float64{
		"critical": {0, 40},
		"high":     {40, 60},
		"medium":   {60, 80},
		"low":      {80, 100},
	})

	v.SetDefault("trusted_sources", defaultTrustedSources())

	v.SetDefault("hooks.before_generate.enabled", true)
	v.SetDefault("hooks.before_generate.blocking", false)
	v.SetDefault("hooks.before_generate.on_high_risk", string(PolicyWarn))
	v.SetDefault("hooks.after_generate.enabled", true)
	v.SetDefault("hooks.after_generate.blocking", false)
	v.SetDefault("hooks.after_generate.on_high_risk", string(PolicyWarn))
	v.SetDefault("hooks.on_publish.enabled", true)
	v.SetDefault("hooks.on_publish.blocking", true)
	v.SetDefault("hooks.on_publish.on_high_risk", string(PolicyBlock))

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file", "")

	v.SetDefault("telemetry.prometheus_enabled", false)
	v.SetDefault("telemetry.prometheus_endpoint", ":9090")
	v.SetDefault("telemetry.namespace", "verax")
	v.SetDefault("telemetry.otel_enabled", false)
	v.SetDefault("telemetry.otel_endpoint", "localhost:4317")
	v.SetDefault("telemetry.rate_limit", 120)
}

// defaultTrustedSources returns the built-in per-domain source rankings.
// Order matters: earlier sources carry a higher trust rank.
func defaultTrustedSources() map[string][]string {
	return map[string][]string{
		"physics":    {"arxiv.org", "nature.com", "aps.org"},
		"biology":    {"pubmed.ncbi.nlm.nih.gov", "nature.com", "cell.com"},
		"history":    {"jstor.org", "britannica.com", "loc.gov"},
		"statistics": {"data.worldbank.org", "oecd.org", "ourworldindata.org"},
		"general":    {"reuters.com", "apnews.com"},
	}
}
