// Packboard - Modpack Storefront and Launcher
// Copyright 2026 Packboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/packboard/packboard

// Package config loads launcherd configuration via koanf v2 with layered
// sources, highest priority last: built-in defaults, then an optional
// config.yaml, then environment variables.
package config

import (
	"fmt"
	"time"
)

// Config is the root launcherd configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Backend  BackendConfig  `koanf:"backend"`
	NATS     NATSConfig     `koanf:"nats"`
	Tasks    TasksConfig    `koanf:"tasks"`
	Snapshot SnapshotConfig `koanf:"snapshot"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig configures the local HTTP API surface for the launcher UI.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// BackendConfig configures the storefront backend used for the full task
// pull query.
type BackendConfig struct {
	URL     string        `koanf:"url"`
	Token   string        `koanf:"token"`
	Timeout time.Duration `koanf:"timeout"`
}

// NATSConfig configures the push channel. With Embedded set, launcherd
// hosts the broker itself and the installer pipeline publishes to it;
// otherwise URL names an external server. With Enabled false the daemon
// runs poll-only.
type NATSConfig struct {
	Enabled          bool          `koanf:"enabled"`
	URL              string        `koanf:"url"`
	Embedded         bool          `koanf:"embedded"`
	StoreDir         string        `koanf:"store_dir"`
	MaxMemory        int64         `koanf:"max_memory"`
	MaxStore         int64         `koanf:"max_store"`
	DurableName      string        `koanf:"durable_name"`
	QueueGroup       string        `koanf:"queue_group"`
	SubscribersCount int           `koanf:"subscribers_count"`
	AckWait          time.Duration `koanf:"ack_wait"`
	CloseTimeout     time.Duration `koanf:"close_timeout"`
	ReconnectWait    time.Duration `koanf:"reconnect_wait"`
	MaxReconnects    int           `koanf:"max_reconnects"`
}

// TasksConfig configures the reconciliation cadence.
type TasksConfig struct {
	CheckInterval   time.Duration `koanf:"check_interval"`
	ActiveThreshold time.Duration `koanf:"active_threshold"`
	IdleThreshold   time.Duration `koanf:"idle_threshold"`
}

// SnapshotConfig configures the persisted warm-start snapshot.
type SnapshotConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns the built-in defaults, suitable for a desktop
// install with a local backend and embedded broker.
func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            7630,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   300,
			RateLimitWindow: time.Minute,
		},
		Backend: BackendConfig{
			URL:     "http://127.0.0.1:8090",
			Token:   "",
			Timeout: 15 * time.Second,
		},
		NATS: NATSConfig{
			Enabled:          true,
			URL:              "nats://127.0.0.1:4222",
			Embedded:         true,
			StoreDir:         "data/nats",
			MaxMemory:        64 << 20,
			MaxStore:         256 << 20,
			DurableName:      "launcherd",
			QueueGroup:       "launcherd",
			SubscribersCount: 1,
			AckWait:          30 * time.Second,
			CloseTimeout:     10 * time.Second,
			ReconnectWait:    2 * time.Second,
			MaxReconnects:    -1,
		},
		Tasks: TasksConfig{
			CheckInterval:   10 * time.Second,
			ActiveThreshold: 30 * time.Second,
			IdleThreshold:   5 * time.Minute,
		},
		Snapshot: SnapshotConfig{
			Enabled: true,
			Path:    "data/snapshot",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks the loaded configuration for values that would only fail
// later and more confusingly.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1-65535, got %d", c.Server.Port)
	}
	if c.Backend.URL == "" {
		return fmt.Errorf("backend.url is required")
	}
	if c.NATS.Enabled && !c.NATS.Embedded && c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required when nats is enabled without an embedded server")
	}
	if c.Tasks.CheckInterval <= 0 {
		return fmt.Errorf("tasks.check_interval must be positive")
	}
	if c.Tasks.ActiveThreshold <= 0 || c.Tasks.IdleThreshold <= 0 {
		return fmt.Errorf("tasks thresholds must be positive")
	}
	if c.Tasks.ActiveThreshold > c.Tasks.IdleThreshold {
		return fmt.Errorf("tasks.active_threshold must not exceed tasks.idle_threshold")
	}
	if c.Snapshot.Enabled && c.Snapshot.Path == "" {
		return fmt.Errorf("snapshot.path is required when snapshot is enabled")
	}
	return nil
}
