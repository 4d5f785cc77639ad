package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// ProjectConfigFile is the name of the project-level config file
	ProjectConfigFile = "eventpilot.yaml"
	// UserConfigDir is the directory for user-level config
	UserConfigDir = ".config/eventpilot"
	// UserConfigFile is the name of the user-level config file
	UserConfigFile = "config.yaml"
)

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. User config (~/.config/eventpilot/config.yaml)
// 3. Project config (eventpilot.yaml in current or parent directories)
// 4. EVENTPILOT_* environment variables
func (l *Loader) Load() (*Config, error) {
	// Start with defaults
	config := DefaultConfig()

	// Load user config
	userConfigPath := l.userConfigPath()
	if userConfig, err := LoadFromFile(userConfigPath); err == nil {
		l.logger.Debug("Loaded user config", slog.String("path", userConfigPath))
		config.Merge(userConfig)
	} else if !os.IsNotExist(err) {
		l.logger.Warn("Failed to load user config", slog.String("path", userConfigPath), slog.String("error", err.Error()))
	}

	// Load project config
	projectConfigPath := l.findProjectConfig()
	if projectConfigPath != "" {
		if projectConfig, err := LoadFromFile(projectConfigPath); err == nil {
			l.logger.Debug("Loaded project config", slog.String("path", projectConfigPath))
			config.Merge(projectConfig)
		} else {
			l.logger.Warn("Failed to load project config", slog.String("path", projectConfigPath), slog.String("error", err.Error()))
		}
	} else {
		l.logger.Debug("No project config found")
	}

	// Apply environment overrides last
	applyEnvOverrides(config)

	// Validate final config
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// EnsureUserConfig creates the user config file with defaults if it doesn't exist
func (l *Loader) EnsureUserConfig() error {
	userConfigPath := l.userConfigPath()

	// Check if it already exists
	if _, err := os.Stat(userConfigPath); err == nil {
		return nil // Already exists
	}

	// Create default config
	config := DefaultConfig()
	if err := config.SaveToFile(userConfigPath); err != nil {
		return err
	}

	l.logger.Info("Created default user config", slog.String("path", userConfigPath))
	return nil
}

// userConfigPath returns the path to the user config file
func (l *Loader) userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}

// findProjectConfig searches for eventpilot.yaml in current and parent directories
func (l *Loader) findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			break
		}
		dir = parent
	}

	return ""
}

// applyEnvOverrides applies EVENTPILOT_* environment variables on top of the config.
func applyEnvOverrides(c *Config) {
	if v := os.Getenv("EVENTPILOT_SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("EVENTPILOT_MODEL"); v != "" {
		c.Model.Default = v
	}
	if v := os.Getenv("EVENTPILOT_MODEL_ENDPOINT"); v != "" {
		c.Model.Endpoint = v
	}
	if v := os.Getenv("EVENTPILOT_MODEL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Model.Timeout = d
		}
	}
	if v := os.Getenv("EVENTPILOT_SEARCH_ENDPOINT"); v != "" {
		c.Search.Endpoint = v
	}
	if v := os.Getenv("EVENTPILOT_CACHE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Cache.Enabled = b
		}
	}
	if v := os.Getenv("EVENTPILOT_VENUE_TABLE"); v != "" {
		c.Venues.TablePath = v
	}
}
