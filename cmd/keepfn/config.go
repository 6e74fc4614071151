package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/CTAG07/keepfn/pkg/functions"
	"github.com/CTAG07/keepfn/pkg/templating"
	"github.com/natefinch/atomic"
)

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	LogLevel  string                     `json:"log_level"`
	LogFile   string                     `json:"log_file"`
	Functions *functions.Config          `json:"function_config"`
	Templates *templating.TemplateConfig `json:"template_config"`
}

// DefaultConfig creates a configuration with default values for every section.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:  "info",
		LogFile:   "",
		Functions: functions.DefaultConfig(),
		Templates: templating.DefaultConfig(),
	}
}

// LoadConfig reads the configuration from a JSON file at the given path.
// If the file doesn't exist, it creates one with default values.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			var data []byte
			data, err = json.MarshalIndent(config, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				// Defaults are still usable without a file on disk.
				fmt.Fprintf(os.Stderr, "warning: failed to write default config file: %v\n", err)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err = json.Unmarshal(file, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	// Sections set to null fall back to defaults.
	if config.Functions == nil {
		config.Functions = functions.DefaultConfig()
	}
	if config.Templates == nil {
		config.Templates = templating.DefaultConfig()
	}

	if err = config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return config, nil
}

// Validate checks every section of the configuration.
func (c *Config) Validate() error {
	if _, err := parseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if err := c.Functions.Validate(); err != nil {
		return fmt.Errorf("function_config: %w", err)
	}
	if err := c.Templates.Validate(); err != nil {
		return fmt.Errorf("template_config: %w", err)
	}
	return nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log_level %q", s)
}
