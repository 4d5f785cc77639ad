// Package config provides configuration loading and management for eventpilot.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete eventpilot configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Model   ModelConfig   `yaml:"model"`
	Search  SearchConfig  `yaml:"search"`
	Cache   CacheConfig   `yaml:"cache"`
	Planner PlannerConfig `yaml:"planner"`
	Venues  VenuesConfig  `yaml:"venues"`
}

// ServerConfig configures the HTTP server
type ServerConfig struct {
	// Addr is the listen address (default: ":8080")
	Addr string `yaml:"addr"`
	// ShutdownTimeout is the maximum time to wait for in-flight requests on shutdown
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ModelConfig configures the LLM model settings
type ModelConfig struct {
	// Default is the default model to use (e.g., "qwen2.5:14b")
	Default string `yaml:"default"`
	// Endpoint is the OpenAI-compatible API endpoint (default: http://localhost:11434/v1)
	Endpoint string `yaml:"endpoint"`
	// Temperature controls randomness (0.0-1.0, default: 0.2)
	Temperature float64 `yaml:"temperature"`
	// Timeout is the maximum time to wait for model responses
	Timeout time.Duration `yaml:"timeout"`
}

// SearchConfig configures the venue lookup capability
type SearchConfig struct {
	// Endpoint is the SearxNG-compatible search API base URL.
	// Empty disables live lookup; the pipeline falls back to the static table.
	Endpoint string `yaml:"endpoint"`
	// Timeout bounds a single search call
	Timeout time.Duration `yaml:"timeout"`
	// MaxResults is the number of raw results requested per query
	MaxResults int `yaml:"max_results"`
	// AllowedDomains restricts results to matching vendor domains.
	// Entries are glob patterns, e.g. "*.venuelook.com".
	AllowedDomains []string `yaml:"allowed_domains"`
	// Enrich fetches accepted venue pages to build richer descriptions
	Enrich bool `yaml:"enrich"`
}

// CacheConfig configures the result cache
type CacheConfig struct {
	// Enabled toggles result memoization
	Enabled bool `yaml:"enabled"`
	// TTL is the per-entry lifetime
	TTL time.Duration `yaml:"ttl"`
	// MaxEntries bounds the cache size; the oldest entry is evicted on overflow
	MaxEntries int `yaml:"max_entries"`
	// SweepInterval is how often expired entries are removed
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// PlannerConfig holds pipeline limits and validation floors
type PlannerConfig struct {
	// MinInputLength is the minimum accepted request text length in runes
	MinInputLength int `yaml:"min_input_length"`
	// MaxInputLength is the maximum accepted request text length in runes
	MaxInputLength int `yaml:"max_input_length"`
	// MaxAttendees caps the extracted attendee count
	MaxAttendees int `yaml:"max_attendees"`
	// BudgetFloor is the minimum budget in minor currency units
	BudgetFloor int `yaml:"budget_floor"`
}

// VenuesConfig configures the static venue table
type VenuesConfig struct {
	// TablePath points at a yaml venue table overriding the built-in defaults
	TablePath string `yaml:"table_path"`
	// Watch reloads the table when the file changes
	Watch bool `yaml:"watch"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Model: ModelConfig{
			Default:     "qwen2.5:14b",
			Endpoint:    "http://localhost:11434/v1",
			Temperature: 0.2,
			Timeout:     60 * time.Second,
		},
		Search: SearchConfig{
			Endpoint:   "",
			Timeout:    20 * time.Second,
			MaxResults: 10,
			AllowedDomains: []string{
				"*.eventbrite.com",
				"*.venuelook.com",
				"*.peerspace.com",
				"*.tagvenue.com",
				"*.uniquevenues.com",
			},
			Enrich: false,
		},
		Cache: CacheConfig{
			Enabled:       true,
			TTL:           30 * time.Minute,
			MaxEntries:    256,
			SweepInterval: 5 * time.Minute,
		},
		Planner: PlannerConfig{
			MinInputLength: 10,
			MaxInputLength: 5000,
			MaxAttendees:   10000,
			BudgetFloor:    1000,
		},
		Venues: VenuesConfig{
			TablePath: "",
			Watch:     false,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Model.Default == "" {
		return fmt.Errorf("model.default is required")
	}
	if c.Model.Endpoint == "" {
		return fmt.Errorf("model.endpoint is required")
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 1 {
		return fmt.Errorf("model.temperature must be between 0 and 1")
	}
	if c.Planner.MinInputLength <= 0 {
		return fmt.Errorf("planner.min_input_length must be positive")
	}
	if c.Planner.MaxInputLength < c.Planner.MinInputLength {
		return fmt.Errorf("planner.max_input_length must be >= min_input_length")
	}
	if c.Planner.MaxAttendees <= 0 {
		return fmt.Errorf("planner.max_attendees must be positive")
	}
	if c.Cache.Enabled {
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("cache.ttl must be positive")
		}
		if c.Cache.MaxEntries <= 0 {
			return fmt.Errorf("cache.max_entries must be positive")
		}
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Server
	if other.Server.Addr != "" {
		c.Server.Addr = other.Server.Addr
	}
	if other.Server.ShutdownTimeout != 0 {
		c.Server.ShutdownTimeout = other.Server.ShutdownTimeout
	}

	// Model
	if other.Model.Default != "" {
		c.Model.Default = other.Model.Default
	}
	if other.Model.Endpoint != "" {
		c.Model.Endpoint = other.Model.Endpoint
	}
	if other.Model.Temperature != 0 {
		c.Model.Temperature = other.Model.Temperature
	}
	if other.Model.Timeout != 0 {
		c.Model.Timeout = other.Model.Timeout
	}

	// Search
	if other.Search.Endpoint != "" {
		c.Search.Endpoint = other.Search.Endpoint
	}
	if other.Search.Timeout != 0 {
		c.Search.Timeout = other.Search.Timeout
	}
	if other.Search.MaxResults != 0 {
		c.Search.MaxResults = other.Search.MaxResults
	}
	if len(other.Search.AllowedDomains) > 0 {
		c.Search.AllowedDomains = other.Search.AllowedDomains
	}
	if other.Search.Enrich {
		c.Search.Enrich = true
	}

	// Cache
	if other.Cache.TTL != 0 {
		c.Cache.TTL = other.Cache.TTL
	}
	if other.Cache.MaxEntries != 0 {
		c.Cache.MaxEntries = other.Cache.MaxEntries
	}
	if other.Cache.SweepInterval != 0 {
		c.Cache.SweepInterval = other.Cache.SweepInterval
	}

	// Planner
	if other.Planner.MinInputLength != 0 {
		c.Planner.MinInputLength = other.Planner.MinInputLength
	}
	if other.Planner.MaxInputLength != 0 {
		c.Planner.MaxInputLength = other.Planner.MaxInputLength
	}
	if other.Planner.MaxAttendees != 0 {
		c.Planner.MaxAttendees = other.Planner.MaxAttendees
	}
	if other.Planner.BudgetFloor != 0 {
		c.Planner.BudgetFloor = other.Planner.BudgetFloor
	}

	// Venues
	if other.Venues.TablePath != "" {
		c.Venues.TablePath = other.Venues.TablePath
	}
	if other.Venues.Watch {
		c.Venues.Watch = true
	}
}
