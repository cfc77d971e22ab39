// Packboard - Modpack Storefront and Launcher
// Copyright 2026 Packboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/packboard/packboard

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where a config file is searched, first hit wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// envPrefix namespaces all launcherd environment variables.
const envPrefix = "PACKBOARD_"

// Load builds the configuration from defaults, an optional YAML file, and
// PACKBOARD_* environment variables, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load default config: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load environment config: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// findConfigFile resolves the config file path, if any.
func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envKeys maps environment variable names (after the PACKBOARD_ prefix) to
// koanf paths. Multi-word section keys make a naive underscore-to-dot
// transform ambiguous, so the mapping is explicit; unknown variables are
// ignored.
var envKeys = map[string]string{
	"SERVER_HOST":            "server.host",
	"SERVER_PORT":            "server.port",
	"SERVER_TIMEOUT":         "server.timeout",
	"SERVER_CORS_ORIGINS":    "server.cors_origins",
	"BACKEND_URL":            "backend.url",
	"BACKEND_TOKEN":          "backend.token",
	"BACKEND_TIMEOUT":        "backend.timeout",
	"NATS_ENABLED":           "nats.enabled",
	"NATS_URL":               "nats.url",
	"NATS_EMBEDDED":          "nats.embedded",
	"NATS_STORE_DIR":         "nats.store_dir",
	"NATS_DURABLE_NAME":      "nats.durable_name",
	"NATS_QUEUE_GROUP":       "nats.queue_group",
	"TASKS_CHECK_INTERVAL":   "tasks.check_interval",
	"TASKS_ACTIVE_THRESHOLD": "tasks.active_threshold",
	"TASKS_IDLE_THRESHOLD":   "tasks.idle_threshold",
	"SNAPSHOT_ENABLED":       "snapshot.enabled",
	"SNAPSHOT_PATH":          "snapshot.path",
	"LOG_LEVEL":              "logging.level",
	"LOG_FORMAT":             "logging.format",
	"LOG_CALLER":             "logging.caller",
}

func envKeyMapper(s string) string {
	key := strings.TrimPrefix(s, envPrefix)
	if path, ok := envKeys[key]; ok {
		return path
	}
	return ""
}
