// Package config loads the concierged YAML configuration file and applies
// environment overrides for secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ValidProviders lists the supported generation backends.
var ValidProviders = []string{"openai", "anthropic"}

// ValidStoreBackends lists the supported conversation store backends.
var ValidStoreBackends = []string{"memory", "file", "bolt"}

// Config holds all concierged configuration.
type Config struct {
	// Server settings
	Server ServerConfig `yaml:"server"`

	// Text-generation backend
	Model ModelConfig `yaml:"model"`

	// Conversation persistence
	Store StoreConfig `yaml:"store"`

	// Service catalog
	Catalog CatalogConfig `yaml:"catalog"`

	// Conversation behaviour
	Conversation ConversationConfig `yaml:"conversation"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// ModelConfig configures the generation backend.
type ModelConfig struct {
	Provider string `yaml:"provider"` // openai, anthropic
	Name     string `yaml:"name"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

// StoreConfig configures conversation persistence.
type StoreConfig struct {
	Backend string `yaml:"backend"` // memory, file, bolt
	Path    string `yaml:"path"`
}

// CatalogConfig points at the service catalog document.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// ConversationConfig tunes turn handling.
type ConversationConfig struct {
	DefaultContext string `yaml:"default_context"`
	FriendlyMenus  *bool  `yaml:"friendly_menus"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	friendly := true
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Model: ModelConfig{
			Provider: "openai",
			Timeout:  "30s",
		},
		Store: StoreConfig{
			Backend: "file",
			Path:    "conversations.json",
		},
		Catalog: CatalogConfig{Path: "catalog.json"},
		Conversation: ConversationConfig{
			DefaultContext: "aws",
			FriendlyMenus:  &friendly,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; a malformed one is an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// applyEnvOverrides lets environment variables win over file values.
// Secrets in particular should come from the environment, not the file.
func (c *Config) applyEnvOverrides() {
	if c.Model.APIKey == "" {
		switch c.Model.Provider {
		case "anthropic":
			c.Model.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		default:
			c.Model.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	if addr := os.Getenv("CONCIERGE_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if path := os.Getenv("CONCIERGE_STORE_PATH"); path != "" {
		c.Store.Path = path
	}
	if path := os.Getenv("CONCIERGE_CATALOG"); path != "" {
		c.Catalog.Path = path
	}
}

// Validate checks the configuration for values the daemon cannot start
// with.
func (c *Config) Validate() error {
	validProvider := false
	for _, p := range ValidProviders {
		if c.Model.Provider == p {
			validProvider = true
			break
		}
	}
	if !validProvider {
		return fmt.Errorf("invalid model provider: %s (valid: %v)", c.Model.Provider, ValidProviders)
	}

	if c.Model.APIKey == "" {
		return fmt.Errorf("model API key not configured (set ANTHROPIC_API_KEY or OPENAI_API_KEY)")
	}

	validBackend := false
	for _, b := range ValidStoreBackends {
		if c.Store.Backend == b {
			validBackend = true
			break
		}
	}
	if !validBackend {
		return fmt.Errorf("invalid store backend: %s (valid: %v)", c.Store.Backend, ValidStoreBackends)
	}
	if c.Store.Backend != "memory" && c.Store.Path == "" {
		return fmt.Errorf("store backend %q requires a path", c.Store.Backend)
	}

	if _, err := c.GenerationTimeout(); err != nil {
		return err
	}

	return nil
}

// GenerationTimeout parses the model timeout string.
func (c *Config) GenerationTimeout() (time.Duration, error) {
	if c.Model.Timeout == "" {
		return 30 * time.Second, nil
	}
	d, err := time.ParseDuration(c.Model.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid model timeout %q: %w", c.Model.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("model timeout must be positive, got %s", d)
	}
	return d, nil
}
