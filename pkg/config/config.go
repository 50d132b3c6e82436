package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/formulaspark/formulaspark/pkg/models"
)

// Config holds all FormulaSpark configuration.
type Config struct {
	OllamaBaseURL string        `yaml:"ollama_base_url" env:"FORMULASPARK_OLLAMA_URL"`
	Model         string        `yaml:"model" env:"FORMULASPARK_MODEL"`
	Temperature   float64       `yaml:"temperature"`
	TopP          float64       `yaml:"top_p"`
	MaxRetries    int           `yaml:"max_retries"`
	Timeout       time.Duration `yaml:"timeout"`
	UseContext    bool          `yaml:"use_context"`
	AutoValidate  bool          `yaml:"auto_validate"`
	Cache         CacheConfig   `yaml:"cache"`
	History       HistoryConfig `yaml:"history"`

	// SelectedHeaders holds saved tag assignments per sheet:
	// sheet name → header → tag.
	SelectedHeaders map[string]map[string]string `yaml:"selected_headers,omitempty"`
}

// CacheConfig controls the formula result cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
	Path    string        `yaml:"path" env:"FORMULASPARK_CACHE_PATH"`
}

// HistoryConfig controls the generation history store.
type HistoryConfig struct {
	Path  string `yaml:"path" env:"FORMULASPARK_DB_PATH"`
	Limit int    `yaml:"limit"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		OllamaBaseURL: "http://localhost:11434",
		Model:         "llama3.1",
		Temperature:   0.2,
		TopP:          0.9,
		MaxRetries:    3,
		Timeout:       90 * time.Second,
		UseContext:    true,
		AutoValidate:  true,
		Cache: CacheConfig{
			Enabled: true,
			TTL:     7 * 24 * time.Hour,
			Path:    "formula_cache.json",
		},
		History: HistoryConfig{
			Path:  "formulaspark.db",
			Limit: 1000,
		},
	}
}

// Load reads a YAML config file, expands environment variables in its
// values, merges it over the defaults, and applies FORMULASPARK_* overrides.
// A missing file is not an error; the defaults are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case os.IsNotExist(err):
		// fall through to defaults
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("apply env overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config as YAML, creating parent directories as needed.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.OllamaBaseURL == "" {
		return fmt.Errorf("ollama_base_url must be set")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be in [0, 2], got %g", c.Temperature)
	}
	if c.TopP <= 0 || c.TopP > 1 {
		return fmt.Errorf("top_p must be in (0, 1], got %g", c.TopP)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max_retries must be at least 1, got %d", c.MaxRetries)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.History.Limit < 1 {
		return fmt.Errorf("history limit must be at least 1, got %d", c.History.Limit)
	}
	return nil
}

// ModelSettings assembles the per-call generation parameters.
func (c *Config) ModelSettings() models.ModelSettings {
	return models.ModelSettings{
		Temperature: c.Temperature,
		TopP:        c.TopP,
		MaxRetries:  c.MaxRetries,
		Timeout:     c.Timeout,
	}
}

// HeaderTags returns the saved tag assignments for a sheet, or nil.
func (c *Config) HeaderTags(sheet string) map[string]string {
	return c.SelectedHeaders[sheet]
}

// SetHeaderTags replaces the saved tag assignments for a sheet.
func (c *Config) SetHeaderTags(sheet string, tags map[string]string) {
	if c.SelectedHeaders == nil {
		c.SelectedHeaders = make(map[string]map[string]string)
	}
	c.SelectedHeaders[sheet] = tags
}
