package config

import (
	"fmt"
	"time"

	"github.com/freemocap/skellysubs/api"
	"github.com/freemocap/skellysubs/logger"
	"github.com/freemocap/skellysubs/server"
	"github.com/freemocap/skellysubs/transcoder"
	"github.com/freemocap/skellysubs/transcription"
	"github.com/freemocap/skellysubs/translation"
)

// ServiceName is the canonical name used for config discovery, logging, and
// telemetry.
const ServiceName = "skellysubs"

// ObservabilityConfig controls OTLP tracing and metrics export.
type ObservabilityConfig struct {
	Enabled    bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string        `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure   bool          `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64       `yaml:"sample_rate" mapstructure:"sample_rate"`
	Interval   time.Duration `yaml:"interval" mapstructure:"interval"`
}

// AppConfig is the full application configuration.
type AppConfig struct {
	Environment string `yaml:"environment" mapstructure:"environment"`
	Debug       bool   `yaml:"debug" mapstructure:"debug"`

	Logging       logger.Config        `yaml:"logging" mapstructure:"logging"`
	Server        server.Config        `yaml:"server" mapstructure:"server"`
	API           api.Config           `yaml:"api" mapstructure:"api"`
	Observability ObservabilityConfig  `yaml:"observability" mapstructure:"observability"`
	Transcoder    transcoder.Config    `yaml:"transcoder" mapstructure:"transcoder"`
	Transcription transcription.Config `yaml:"transcription" mapstructure:"transcription"`
	Translation   translation.Config   `yaml:"translation" mapstructure:"translation"`

	// SessionFile persists the client session UUID between runs. Empty
	// means the default location under the user cache dir.
	SessionFile string `yaml:"session_file" mapstructure:"session_file"`
	// LanguagesFile is the language-config JSON document for translation
	// targets.
	LanguagesFile string `yaml:"languages_file" mapstructure:"languages_file"`
}

// LoadApp loads, defaults, and validates the application configuration.
func LoadApp(opts ...LoaderOption) (*AppConfig, error) {
	var cfg AppConfig
	if err := Load(ServiceName, &cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills zero-valued fields across all sections.
func (c *AppConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	c.Logging.ApplyDefaults()
	if c.Debug && c.Logging.Level == "info" {
		c.Logging.Level = "debug"
	}
	c.Server.ApplyDefaults()
	c.Transcoder.ApplyDefaults()
	if c.Observability.Endpoint == "" {
		c.Observability.Endpoint = "localhost:4318"
	}
	if c.Observability.SampleRate == 0 {
		c.Observability.SampleRate = 1.0
	}
	if c.Observability.Interval == 0 {
		c.Observability.Interval = 30 * time.Second
	}
	if c.Transcription.BaseURL == "" {
		c.Transcription.BaseURL = "http://localhost:8000"
	}
	if c.Translation.BaseURL == "" {
		c.Translation.BaseURL = c.Transcription.BaseURL
	}
	if c.LanguagesFile == "" {
		c.LanguagesFile = "languages.json"
	}
}

// Validate checks all sections for invalid values.
func (c *AppConfig) Validate() error {
	validEnvs := []string{"development", "staging", "production"}
	found := false
	for _, v := range validEnvs {
		if c.Environment == v {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("config.environment must be one of %v (got: %s)", validEnvs, c.Environment)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("config.server: %w", err)
	}
	if c.Observability.SampleRate < 0 || c.Observability.SampleRate > 1 {
		return fmt.Errorf("config.observability.sample_rate must be in [0, 1] (got: %g)", c.Observability.SampleRate)
	}
	return nil
}
