// Package config provides configuration types and helpers for driftlog.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the application-wide configuration.
type Config struct {
	Format           string        `mapstructure:"format"`
	Verbose          bool          `mapstructure:"verbose"`
	LogLevel         string        `mapstructure:"log_level"`
	Workers          int           `mapstructure:"workers"`
	TimestampFormats []string      `mapstructure:"timestamp_formats"`
	Drain            DrainConfig   `mapstructure:"drain"`
	Display          DisplayConfig `mapstructure:"display"`
	LLM              LLMConfig     `mapstructure:"llm"`
}

// DrainConfig holds the template miner settings.
type DrainConfig struct {
	Depth        int     `mapstructure:"depth"`
	SimThreshold float64 `mapstructure:"sim_threshold"`
	MaxChildren  int     `mapstructure:"max_children"`

	// Masking names built-in masking instructions applied before clustering.
	// Available: UUID, EMAIL, IP, TIME, PATH, HEX
	Masking []string `mapstructure:"masking"`

	// AutoMask adds every built-in instruction that matches enough lines
	// of the reference.
	AutoMask bool `mapstructure:"auto_mask"`
}

// DisplayConfig controls which lines a report shows.
type DisplayConfig struct {
	MinScore float64 `mapstructure:"min_score"`
	Top      int     `mapstructure:"top"`
}

// LLMConfig holds configuration for LLM providers.
type LLMConfig struct {
	// Provider selects which LLM to use. Only "ollama" is supported.
	Provider string `mapstructure:"provider"`

	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`

	Ollama OllamaConfig `mapstructure:"ollama"`
	Redact RedactConfig `mapstructure:"redact"`
}

// RedactConfig controls scrubbing of log content sent to the model.
type RedactConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Patterns names the redaction patterns to apply; empty means the defaults.
	// Available: ipv4, email, api_key, aws_key, jwt, private_key, mac_address
	Patterns []string `mapstructure:"patterns"`
}

// OllamaConfig holds Ollama-specific settings.
type OllamaConfig struct {
	Host      string `mapstructure:"host"`       // API endpoint
	Model     string `mapstructure:"model"`      // Default model name
	KeepAlive string `mapstructure:"keep_alive"` // e.g., "5m"
	NumCtx    int    `mapstructure:"num_ctx"`    // Context window size
	NumGPU    int    `mapstructure:"num_gpu"`    // GPU layers to offload
}

// Formats lists the supported output formats.
var Formats = []string{"text", "json", "table", "yaml"}

// SetDefaults registers the default value of every setting on v.
func SetDefaults(v *viper.Viper, timestampFormats []string) {
	v.SetDefault("format", "text")
	v.SetDefault("verbose", false)
	v.SetDefault("log_level", "warn")
	v.SetDefault("workers", 0)
	v.SetDefault("timestamp_formats", timestampFormats)

	v.SetDefault("drain.depth", 4)
	v.SetDefault("drain.sim_threshold", 0.4)
	v.SetDefault("drain.max_children", 100)
	v.SetDefault("drain.masking", []string{})
	v.SetDefault("drain.auto_mask", false)

	v.SetDefault("display.min_score", 0.5)
	v.SetDefault("display.top", 20)

	v.SetDefault("llm.provider", "ollama")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.ollama.host", "http://localhost:11434")
	v.SetDefault("llm.ollama.model", "llama3.2")
	v.SetDefault("llm.redact.enabled", true)
	v.SetDefault("llm.redact.patterns", []string{})
}

// FromViper decodes and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	valid := false
	for _, f := range Formats {
		if c.Format == f {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid format %q (must be one of %v)", c.Format, Formats)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.Display.MinScore < 0 || c.Display.MinScore > 1 {
		return fmt.Errorf("display.min_score must be within [0, 1], got %v", c.Display.MinScore)
	}
	if c.Display.Top < 0 {
		return fmt.Errorf("display.top must not be negative, got %d", c.Display.Top)
	}
	if c.Drain.SimThreshold < 0 || c.Drain.SimThreshold > 1 {
		return fmt.Errorf("drain.sim_threshold must be within [0, 1], got %v", c.Drain.SimThreshold)
	}
	if c.LLM.Provider != "" && c.LLM.Provider != "ollama" {
		return fmt.Errorf("unsupported llm.provider %q", c.LLM.Provider)
	}
	return nil
}
