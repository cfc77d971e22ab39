// Packboard - Modpack Storefront and Launcher
// Copyright 2026 Packboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/packboard/packboard

// Package broker hosts the local push channel. The installer pipeline runs
// on the same machine as the launcher, so the daemon can embed a NATS
// JetStream server instead of requiring an external broker; the pipeline
// publishes task events to it and the ingestor subscribes.
package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
)

// Config holds embedded server settings.
type Config struct {
	// Host and Port for client connections. Port 0 picks a random free
	// port, which tests use.
	Host string
	Port int

	// StoreDir is the JetStream file storage directory.
	StoreDir string

	// MaxMemory and MaxStore bound JetStream resource usage in bytes.
	MaxMemory int64
	MaxStore  int64
}

// DefaultConfig returns limits sized for a desktop machine.
func DefaultConfig(storeDir string) Config {
	return Config{
		Host:      "127.0.0.1",
		Port:      4222,
		StoreDir:  storeDir,
		MaxMemory: 64 << 20,  // 64MB
		MaxStore:  256 << 20, // 256MB
	}
}

// Embedded wraps a NATS server with lifecycle management.
type Embedded struct {
	server    *server.Server
	clientURL string
}

// Start creates and starts an embedded NATS server with JetStream enabled.
// Returns an error if the server is not ready within 10 seconds.
func Start(cfg Config) (*Embedded, error) {
	opts := &server.Options{
		ServerName:         "packboard-tasks",
		Host:               cfg.Host,
		Port:               cfg.Port,
		JetStream:          true,
		StoreDir:           cfg.StoreDir,
		JetStreamMaxMemory: cfg.MaxMemory,
		JetStreamMaxStore:  cfg.MaxStore,
		NoLog:              true,
		MaxPayload:         1 << 20, // task events are small
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create embedded NATS server: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(10 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("embedded NATS server not ready within timeout")
	}

	return &Embedded{server: ns, clientURL: ns.ClientURL()}, nil
}

// ClientURL returns the connection URL for local clients.
func (e *Embedded) ClientURL() string {
	return e.clientURL
}

// Running reports server health.
func (e *Embedded) Running() bool {
	return e.server.Running()
}

// Shutdown stops the server, waiting for completion unless ctx expires.
func (e *Embedded) Shutdown(ctx context.Context) error {
	e.server.Shutdown()

	done := make(chan struct{})
	go func() {
		e.server.WaitForShutdown()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}
