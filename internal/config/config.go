// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CuraDocs Contributors

// Package config loads and validates the portal configuration from file and
// environment (prefix CURADOCS_).
package config

import (
	"errors"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	curaerr "github.com/curadocs-dev/curadocs/pkg/errors"
)

// Config is the top-level CuraDocs configuration.
type Config struct {
	Environment string                    `mapstructure:"environment"`
	Server      ServerConfig              `mapstructure:"server"`
	Storage     StorageConfig             `mapstructure:"storage"`
	Assistant   AssistantConfig           `mapstructure:"assistant"`
	Providers   map[string]ProviderConfig `mapstructure:"providers"`
	Alerts      AlertsConfig              `mapstructure:"alerts"`
}

// ServerConfig controls how the portal listens for connections.
type ServerConfig struct {
	Listen      string   `mapstructure:"listen"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// StorageConfig selects the storage backend. Path is the data directory for
// file-backed backends; DSN is the connection string for postgres.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
	DSN     string `mapstructure:"dsn"`
}

// AssistantConfig controls the health-assistant pipeline.
type AssistantConfig struct {
	Provider     string `mapstructure:"provider"`
	Model        string `mapstructure:"model"`
	Window       int    `mapstructure:"window"`
	HistoryLimit int    `mapstructure:"history_limit"`
}

// ProviderConfig holds credentials and endpoint for a generation provider.
type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// AlertsConfig controls the NATS emergency-alert publisher.
type AlertsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Token   string `mapstructure:"token"`
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix CURADOCS_).
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("environment", "production")
	v.SetDefault("server.listen", "127.0.0.1:8480")
	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("storage.path", "data")
	v.SetDefault("assistant.provider", "google")
	v.SetDefault("assistant.model", "gemini-2.5-flash")
	v.SetDefault("assistant.window", 10)
	v.SetDefault("assistant.history_limit", 50)
	v.SetDefault("alerts.enabled", false)
	v.SetDefault("alerts.url", "nats://127.0.0.1:4222")

	v.SetEnvPrefix("CURADOCS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, curaerr.Errorf(curaerr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, curaerr.Errorf(curaerr.CodeConfigValidateInvalidValue, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, curaerr.Errorf(curaerr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// Validate checks the configuration for logical errors. It collects all
// issues rather than stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateServer()...)
	errs = append(errs, c.validateStorage()...)
	errs = append(errs, c.validateAssistant()...)
	errs = append(errs, c.validateAlerts()...)

	return errs
}

func (c *Config) validateServer() []error {
	var errs []error

	if c.Server.Listen == "" {
		errs = append(errs, curaerr.Errorf(curaerr.CodeConfigValidateInvalidValue, "config: server.listen must not be empty"))
		return errs
	}

	_, portStr, err := net.SplitHostPort(c.Server.Listen)
	if err != nil {
		errs = append(errs, curaerr.Errorf(curaerr.CodeConfigValidateInvalidValue,
			"config: server.listen must be a valid host:port address, got %q: %w",
			c.Server.Listen, err,
		))
		return errs
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		errs = append(errs, curaerr.Errorf(curaerr.CodeConfigValidateInvalidValue,
			"config: server.listen port must be a number, got %q", portStr))
	} else if port < 1 || port > 65535 {
		errs = append(errs, curaerr.Errorf(curaerr.CodeConfigValidateInvalidValue,
			"config: server.listen port must be between 1 and 65535, got %d", port))
	}

	return errs
}

func (c *Config) validateStorage() []error {
	var errs []error

	switch c.Storage.Backend {
	case "sqlite":
		if c.Storage.Path == "" {
			errs = append(errs, curaerr.Errorf(curaerr.CodeConfigValidateInvalidValue, "config: storage.path must not be empty for the sqlite backend"))
		}
	case "postgres":
		if c.Storage.DSN == "" {
			errs = append(errs, curaerr.Errorf(curaerr.CodeConfigValidateInvalidValue, "config: storage.dsn must not be empty for the postgres backend"))
		}
	case "memory":
		// Nothing to validate; data is lost on restart.
	default:
		errs = append(errs, curaerr.Errorf(curaerr.CodeConfigValidateInvalidValue,
			"config: storage.backend must be one of [sqlite, postgres, memory], got %q",
			c.Storage.Backend,
		))
	}

	return errs
}

func (c *Config) validateAssistant() []error {
	var errs []error

	validProviders := map[string]bool{"google": true, "openai": true}
	if !validProviders[c.Assistant.Provider] {
		errs = append(errs, curaerr.Errorf(curaerr.CodeConfigValidateInvalidValue,
			"config: assistant.provider must be one of [google, openai], got %q",
			c.Assistant.Provider,
		))
	} else if c.Providers != nil {
		// Only cross-reference when a providers section exists. A nil map
		// means credentials come from the environment at startup.
		if _, ok := c.Providers[c.Assistant.Provider]; !ok {
			errs = append(errs, curaerr.Errorf(curaerr.CodeConfigValidateInvalidValue,
				"config: assistant.provider %q is not configured under providers",
				c.Assistant.Provider,
			))
		}
	}

	if c.Assistant.Model == "" {
		errs = append(errs, curaerr.Errorf(curaerr.CodeConfigValidateInvalidValue, "config: assistant.model must not be empty"))
	}
	if c.Assistant.Window <= 0 {
		errs = append(errs, curaerr.Errorf(curaerr.CodeConfigValidateInvalidValue,
			"config: assistant.window must be greater than 0, got %d", c.Assistant.Window))
	}
	if c.Assistant.HistoryLimit <= 0 {
		errs = append(errs, curaerr.Errorf(curaerr.CodeConfigValidateInvalidValue,
			"config: assistant.history_limit must be greater than 0, got %d", c.Assistant.HistoryLimit))
	}

	return errs
}

func (c *Config) validateAlerts() []error {
	var errs []error

	if c.Alerts.Enabled && c.Alerts.URL == "" {
		errs = append(errs, curaerr.Errorf(curaerr.CodeConfigValidateInvalidValue, "config: alerts.url must not be empty when alerts are enabled"))
	}

	return errs
}

// ProviderCredentials returns the configured credentials for the active
// assistant provider, or zero values when none are configured.
func (c *Config) ProviderCredentials() ProviderConfig {
	if c.Providers == nil {
		return ProviderConfig{}
	}
	return c.Providers[c.Assistant.Provider]
}
