// Copyright (c) 2025, the autotag contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package config loads the application configuration from config.toml with
// AUTOTAG__ environment overrides, creating a default file on first run.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/data-mint-research/autotag2/internal/domain"
)

const envPrefix = "AUTOTAG__"

var configTemplate = `# config.toml - autotag

# Hostname / IP
host = "0.0.0.0"

# HTTP server port
port = 8000

# Base url when served behind a reverse proxy under a subfolder
#baseUrl = "/autotag/"

# Log level: ERROR, DEBUG, INFO, WARN, TRACE
logLevel = "INFO"

# Optional log file path; empty logs to stderr only
#logPath = "log/autotag.log"

# Directory holding the downloaded model weights
modelsDir = "./models"

# Inference sidecar serving the classifiers
classifierUrl = "http://localhost:8500"
classifierTimeout = 30

# exiftool binary; resolved from PATH when left empty
#exiftoolPath = "exiftool"

# Prometheus metrics endpoint
metricsEnabled = false
metricsHost = "127.0.0.1"
metricsPort = 9074

[tagging]
# Default tag mode: append or overwrite
mode = "append"
# Loaded for compatibility; tag synthesis does not threshold on it
minConfidencePercent = 80
# Seconds each exiftool invocation may run
exiftoolTimeout = 30
`

// AppConfig wraps the typed configuration and its viper instance.
type AppConfig struct {
	Config *domain.Config
	viper  *viper.Viper
	mu     sync.Mutex
}

// New loads the configuration. configPath may be empty (current directory),
// a directory, or a path to a config.toml.
func New(configPath, version string) (*AppConfig, error) {
	c := &AppConfig{
		viper: viper.New(),
	}

	c.defaults(version)

	if err := c.load(configPath); err != nil {
		return nil, err
	}
	if err := c.Config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	c.watch()
	return c, nil
}

func (c *AppConfig) defaults(version string) {
	c.Config = &domain.Config{
		Version:       version,
		Host:          "0.0.0.0",
		Port:          8000,
		BaseURL:       "/",
		LogLevel:      "INFO",
		LogMaxSize:    50,
		LogMaxBackups: 3,
		MetricsHost:   "127.0.0.1",
		MetricsPort:   9074,
		ModelsDir:     "./models",
		ClassifierURL: "http://localhost:8500",

		ClassifierTimeoutSeconds: 30,
		Tagging: domain.TaggingConfig{
			Mode:                   "append",
			MinConfidencePercent:   80,
			ExiftoolTimeoutSeconds: 30,
		},
	}

	c.viper.SetDefault("host", c.Config.Host)
	c.viper.SetDefault("port", c.Config.Port)
	c.viper.SetDefault("baseUrl", c.Config.BaseURL)
	c.viper.SetDefault("logLevel", c.Config.LogLevel)
	c.viper.SetDefault("logPath", c.Config.LogPath)
	c.viper.SetDefault("logMaxSize", c.Config.LogMaxSize)
	c.viper.SetDefault("logMaxBackups", c.Config.LogMaxBackups)
	c.viper.SetDefault("pprofEnabled", c.Config.PprofEnabled)
	c.viper.SetDefault("metricsEnabled", c.Config.MetricsEnabled)
	c.viper.SetDefault("metricsHost", c.Config.MetricsHost)
	c.viper.SetDefault("metricsPort", c.Config.MetricsPort)
	c.viper.SetDefault("modelsDir", c.Config.ModelsDir)
	c.viper.SetDefault("classifierUrl", c.Config.ClassifierURL)
	c.viper.SetDefault("classifierTimeout", c.Config.ClassifierTimeoutSeconds)
	c.viper.SetDefault("exiftoolPath", c.Config.ExiftoolPath)
	c.viper.SetDefault("tagging.mode", c.Config.Tagging.Mode)
	c.viper.SetDefault("tagging.minConfidencePercent", c.Config.Tagging.MinConfidencePercent)
	c.viper.SetDefault("tagging.exiftoolTimeout", c.Config.Tagging.ExiftoolTimeoutSeconds)
}

func (c *AppConfig) load(configPath string) error {
	c.viper.SetConfigType("toml")

	if configPath != "" {
		if filepath.Ext(configPath) == ".toml" {
			c.viper.SetConfigFile(configPath)
		} else {
			c.viper.SetConfigFile(filepath.Join(configPath, "config.toml"))
		}
	} else {
		c.viper.SetConfigName("config")
		c.viper.AddConfigPath(".")
	}

	c.bindEnv()

	if err := c.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || os.IsNotExist(err) {
			if err := c.writeDefault(configPath); err != nil {
				log.Warn().Err(err).Msg("config: could not write default config file")
			}
		} else {
			return errors.Wrap(err, "read config file")
		}
	}

	if err := c.viper.Unmarshal(c.Config); err != nil {
		return errors.Wrap(err, "unmarshal config")
	}
	return nil
}

// bindEnv maps AUTOTAG__SECTION_KEY environment variables onto config keys.
func (c *AppConfig) bindEnv() {
	// viper joins prefix and key with a single underscore; keeping one
	// trailing underscore in the prefix yields the AUTOTAG__KEY form.
	c.viper.SetEnvPrefix(strings.TrimSuffix(envPrefix, "_"))
	c.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	c.viper.AutomaticEnv()
}

func (c *AppConfig) writeDefault(configPath string) error {
	if configPath == "" {
		configPath = "."
	}
	if filepath.Ext(configPath) == ".toml" {
		configPath = filepath.Dir(configPath)
	}
	if err := os.MkdirAll(configPath, 0o755); err != nil {
		return errors.Wrap(err, "create config directory")
	}

	file := filepath.Join(configPath, "config.toml")
	if _, err := os.Stat(file); err == nil {
		return nil
	}
	return os.WriteFile(file, []byte(configTemplate), 0o644)
}

// watch reloads dynamic settings when the config file changes on disk.
// Only the log level is applied live; everything else requires a restart.
func (c *AppConfig) watch() {
	c.viper.OnConfigChange(func(e fsnotify.Event) {
		c.mu.Lock()
		defer c.mu.Unlock()

		level := c.viper.GetString("logLevel")
		if level == "" || strings.EqualFold(level, c.Config.LogLevel) {
			return
		}

		c.Config.LogLevel = level
		if parsed, err := zerolog.ParseLevel(strings.ToLower(level)); err == nil {
			zerolog.SetGlobalLevel(parsed)
			log.Info().Str("logLevel", level).Msg("config: log level updated")
		}
	})
	c.viper.WatchConfig()
}
