// Copyright (c) 2025, the autotag contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

import (
	"fmt"
	"time"

	"github.com/data-mint-research/autotag2/internal/models"
)

// Config represents the application configuration.
type Config struct {
	Version string

	Host    string `toml:"host" mapstructure:"host"`
	Port    int    `toml:"port" mapstructure:"port"`
	BaseURL string `toml:"baseUrl" mapstructure:"baseUrl"`

	LogLevel      string `toml:"logLevel" mapstructure:"logLevel"`
	LogPath       string `toml:"logPath" mapstructure:"logPath"`
	LogMaxSize    int    `toml:"logMaxSize" mapstructure:"logMaxSize"`
	LogMaxBackups int    `toml:"logMaxBackups" mapstructure:"logMaxBackups"`

	PprofEnabled   bool   `toml:"pprofEnabled" mapstructure:"pprofEnabled"`
	MetricsEnabled bool   `toml:"metricsEnabled" mapstructure:"metricsEnabled"`
	MetricsHost    string `toml:"metricsHost" mapstructure:"metricsHost"`
	MetricsPort    int    `toml:"metricsPort" mapstructure:"metricsPort"`

	ModelsDir string `toml:"modelsDir" mapstructure:"modelsDir"`

	ClassifierURL            string `toml:"classifierUrl" mapstructure:"classifierUrl"`
	ClassifierTimeoutSeconds int    `toml:"classifierTimeout" mapstructure:"classifierTimeout"`

	ExiftoolPath string `toml:"exiftoolPath" mapstructure:"exiftoolPath"`

	Tagging TaggingConfig `toml:"tagging" mapstructure:"tagging"`
}

// TaggingConfig groups the tag-writing settings.
type TaggingConfig struct {
	// Mode is the default tag mode (append or overwrite) used when a
	// request does not specify one and for all batch runs.
	Mode string `toml:"mode" mapstructure:"mode"`

	// MinConfidencePercent is loaded for compatibility with the original
	// deployment but is intentionally not consulted by tag synthesis.
	MinConfidencePercent int `toml:"minConfidencePercent" mapstructure:"minConfidencePercent"`

	// ExiftoolTimeoutSeconds bounds each exiftool invocation.
	ExiftoolTimeoutSeconds int `toml:"exiftoolTimeout" mapstructure:"exiftoolTimeout"`
}

// DefaultTagMode returns the configured tag mode, falling back to append.
func (c *Config) DefaultTagMode() models.TagMode {
	mode := models.TagMode(c.Tagging.Mode)
	if !mode.Valid() {
		return models.TagModeAppend
	}
	return mode
}

// ExiftoolTimeout returns the per-invocation exiftool timeout.
func (c *Config) ExiftoolTimeout() time.Duration {
	if c.Tagging.ExiftoolTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Tagging.ExiftoolTimeoutSeconds) * time.Second
}

// Validate checks the settings a running server cannot do without.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if mode := models.TagMode(c.Tagging.Mode); c.Tagging.Mode != "" && !mode.Valid() {
		return fmt.Errorf("invalid tagging.mode: %q", c.Tagging.Mode)
	}
	return nil
}
